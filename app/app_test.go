package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kevinaaaquil/yamdb/config"
	"github.com/kevinaaaquil/yamdb/service"
	"github.com/kevinaaaquil/yamdb/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_Memory(t *testing.T) {
	st, err := OpenStore(context.Background(), &config.Config{StorageDriver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, st)

	_, err = OpenStore(context.Background(), &config.Config{StorageDriver: "sqlite"})
	assert.Error(t, err)
}

func TestMailerSelection(t *testing.T) {
	assert.IsType(t, service.LogMailer{}, Mailer(&config.Config{}))
	assert.IsType(t, &service.SMTPMailer{}, Mailer(&config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587}))
}

func TestLimiter(t *testing.T) {
	l, closeFn, err := Limiter(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, l)
	assert.Nil(t, closeFn)

	mr := miniredis.RunT(t)
	l, closeFn, err = Limiter(&config.Config{RedisAddr: mr.Addr(), AuthRateLimit: 1, AuthRateWindow: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })
	ctx := context.Background()
	assert.True(t, l.Allow(ctx, "signup:1.2.3.4"))
	assert.False(t, l.Allow(ctx, "signup:1.2.3.4"))
}

func TestEnsureAdmin(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, EnsureAdmin(ctx, st, &config.Config{}))

	require.NoError(t, EnsureAdmin(ctx, st, &config.Config{AdminUsername: "root", AdminEmail: "root@example.com"}))
	u, err := st.UserByUsername(ctx, "root")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}
