package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kevinaaaquil/yamdb/apperr"
	"github.com/kevinaaaquil/yamdb/models"
	"github.com/kevinaaaquil/yamdb/store/memory"
	"github.com/kevinaaaquil/yamdb/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to, subject, body})
	return m.err
}

func newTestAuth(t *testing.T, opts AuthOptions) (*AuthService, *memory.Store, *recordingMailer) {
	t.Helper()
	st := memory.New()
	mailer := &recordingMailer{}
	svc := NewAuthService(st, mailer, NewTokenIssuer("test-secret", time.Hour), validation.New(), opts)
	codes := []string{"123456", "654321", "111111"}
	svc.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
	return svc, st, mailer
}

func TestSignUp_CreatesUserAndMailsCode(t *testing.T) {
	svc, st, mailer := newTestAuth(t, AuthOptions{})
	ctx := context.Background()

	user, err := svc.SignUp(ctx, SignUpRequest{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.IsActive)

	stored, err := st.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "123456", stored.ConfirmationCode)
	assert.NotNil(t, stored.CodeIssuedAt)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "alice@example.com", mailer.sent[0].to)
	assert.Equal(t, "YaMDb confirmation code", mailer.sent[0].subject)
	assert.Equal(t, "alice, your confirmation code: 123456", mailer.sent[0].body)
}

func TestSignUp_ReissuesCodeForSamePair(t *testing.T) {
	svc, st, _ := newTestAuth(t, AuthOptions{})
	ctx := context.Background()

	first, err := svc.SignUp(ctx, SignUpRequest{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	second, err := svc.SignUp(ctx, SignUpRequest{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	stored, err := st.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "654321", stored.ConfirmationCode)
}

func TestSignUp_ConflictingCredentials(t *testing.T) {
	svc, _, _ := newTestAuth(t, AuthOptions{})
	ctx := context.Background()
	_, err := svc.SignUp(ctx, SignUpRequest{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, SignUpRequest{Username: "alice", Email: "other@example.com"})
	assert.True(t, errors.Is(err, apperr.ErrConflictingCredentials))

	_, err = svc.SignUp(ctx, SignUpRequest{Username: "bob", Email: "alice@example.com"})
	assert.True(t, errors.Is(err, apperr.ErrConflictingCredentials))
}

func TestSignUp_RejectsReservedAndInvalidUsernames(t *testing.T) {
	svc, _, mailer := newTestAuth(t, AuthOptions{})
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpRequest{Username: "me", Email: "me@example.com"})
	assert.Equal(t, apperr.KindReservedUsername, apperr.KindOf(err))

	_, err = svc.SignUp(ctx, SignUpRequest{Username: "bad name", Email: "bad@example.com"})
	assert.Equal(t, apperr.KindInvalidUsername, apperr.KindOf(err))

	_, err = svc.SignUp(ctx, SignUpRequest{Username: "alice", Email: "not-an-email"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	assert.Empty(t, mailer.sent)
}

func TestSignUp_MailFailureIsNotFatal(t *testing.T) {
	svc, _, mailer := newTestAuth(t, AuthOptions{})
	mailer.err = errors.New("smtp down")

	_, err := svc.SignUp(context.Background(), SignUpRequest{Username: "alice", Email: "alice@example.com"})
	assert.NoError(t, err)
}

func TestIssueToken(t *testing.T) {
	svc, st, _ := newTestAuth(t, AuthOptions{})
	ctx := context.Background()
	_, err := svc.SignUp(ctx, SignUpRequest{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	_, err = svc.IssueToken(ctx, TokenRequest{Username: "ghost", ConfirmationCode: "123456"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	token, err := svc.IssueToken(ctx, TokenRequest{Username: "alice", ConfirmationCode: "999999"})
	assert.Equal(t, apperr.KindInvalidCode, apperr.KindOf(err))
	assert.Empty(t, token)

	token, err = svc.IssueToken(ctx, TokenRequest{Username: "alice", ConfirmationCode: "123456"})
	require.NoError(t, err)
	claims, err := svc.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	// inactive accounts cannot exchange a valid code
	user, err := st.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, st.UpdateUser(ctx, user))
	_, err = svc.IssueToken(ctx, TokenRequest{Username: "alice", ConfirmationCode: "123456"})
	assert.Equal(t, apperr.KindInvalidCode, apperr.KindOf(err))
}

func TestIssueToken_RejectsReservedAndInvalidUsernames(t *testing.T) {
	svc, _, _ := newTestAuth(t, AuthOptions{})
	ctx := context.Background()

	_, err := svc.IssueToken(ctx, TokenRequest{Username: "me", ConfirmationCode: "123456"})
	assert.Equal(t, apperr.KindReservedUsername, apperr.KindOf(err))

	_, err = svc.IssueToken(ctx, TokenRequest{Username: "jürgen", ConfirmationCode: "123456"})
	assert.Equal(t, apperr.KindInvalidUsername, apperr.KindOf(err))
}

func TestIssueToken_ReissuedCodeReplacesOld(t *testing.T) {
	svc, _, _ := newTestAuth(t, AuthOptions{})
	ctx := context.Background()
	req := SignUpRequest{Username: "alice", Email: "alice@example.com"}
	_, err := svc.SignUp(ctx, req)
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, req)
	require.NoError(t, err)

	_, err = svc.IssueToken(ctx, TokenRequest{Username: "alice", ConfirmationCode: "123456"})
	assert.Equal(t, apperr.KindInvalidCode, apperr.KindOf(err))
	_, err = svc.IssueToken(ctx, TokenRequest{Username: "alice", ConfirmationCode: "654321"})
	assert.NoError(t, err)
}

func TestIssueToken_HashedCodesAndExpiry(t *testing.T) {
	svc, st, _ := newTestAuth(t, AuthOptions{HashCodes: true, CodeTTL: 10 * time.Minute})
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.SignUp(ctx, SignUpRequest{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	stored, err := st.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.ConfirmationCode, "$2"), "code should be stored as a bcrypt hash")

	_, err = svc.IssueToken(ctx, TokenRequest{Username: "alice", ConfirmationCode: "123456"})
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)
	_, err = svc.IssueToken(ctx, TokenRequest{Username: "alice", ConfirmationCode: "123456"})
	assert.Equal(t, apperr.KindInvalidCode, apperr.KindOf(err))
}

func TestNewConfirmationCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewConfirmationCode()
		require.NoError(t, err)
		require.Len(t, code, models.ConfirmationCodeLength)
		for _, c := range code {
			assert.Contains(t, ConfirmationCodeAlphabet, string(c))
		}
	}
}

func TestTokenIssuer_RejectsForeignAndExpiredTokens(t *testing.T) {
	user := &models.User{ID: "u1", Username: "alice"}
	issuer := NewTokenIssuer("secret-a", time.Hour)
	token, err := issuer.Issue(user)
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b", time.Hour).Verify(token)
	assert.Error(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.Verify(token)
	assert.Error(t, err)
}

func TestEnsureSuperuser(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	user, created, err := EnsureSuperuser(ctx, st, "root", "root@example.com")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, user.IsAdmin())

	_, created, err = EnsureSuperuser(ctx, st, "root", "root@example.com")
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, st.CreateUser(ctx, &models.User{Username: "carol", Email: "carol@example.com", Role: models.RoleUser}))
	user, created, err = EnsureSuperuser(ctx, st, "carol", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, user.IsStaff)
	assert.Equal(t, models.RoleAdmin, user.Role)

	_, _, err = EnsureSuperuser(ctx, st, "dave", "")
	assert.ErrorContains(t, err, "email is required")

	_, _, err = EnsureSuperuser(ctx, st, "me", "me@example.com")
	assert.Equal(t, apperr.KindReservedUsername, apperr.KindOf(err))
}
