package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kevinaaaquil/yamdb/apperr"
	"github.com/kevinaaaquil/yamdb/service"
	"github.com/kevinaaaquil/yamdb/store/memory"
	"github.com/kevinaaaquil/yamdb/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyCounter struct {
	mu    sync.Mutex
	limit int
	hits  map[string]int
}

func (l *keyCounter) Allow(_ context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits[key]++
	return l.hits[key] <= l.limit
}

func limitedRouter(trustProxy bool) (http.Handler, *keyCounter) {
	st := memory.New()
	v := validation.NewWithClock(func() time.Time { return fixedNow })
	tokens := service.NewTokenIssuer("test-secret", time.Hour)
	limiter := &keyCounter{limit: 1, hits: map[string]int{}}
	return NewRouter(Deps{
		Store:      st,
		Auth:       service.NewAuthService(st, service.LogMailer{}, tokens, v, service.AuthOptions{}),
		Tokens:     tokens,
		Validator:  v,
		Limiter:    limiter,
		PageSize:   10,
		TrustProxy: trustProxy,
	}), limiter
}

func postToken(h http.Handler, remoteAddr, realIP string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token",
		strings.NewReader(`{"username":"nobody","confirmation_code":"123456"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Real-IP", realIP)
	req.Header.Set("X-Forwarded-For", realIP)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthRateLimit_IgnoresForwardedHeadersByDefault(t *testing.T) {
	h, limiter := limitedRouter(false)

	first := postToken(h, "10.0.0.1:5555", "1.2.3.0")
	assert.Equal(t, http.StatusNotFound, first.Code)

	for _, ip := range []string{"1.2.3.1", "1.2.3.2"} {
		assertError(t, postToken(h, "10.0.0.1:5555", ip), http.StatusTooManyRequests, apperr.KindRateLimited)
	}
	assert.Equal(t, map[string]int{"token:10.0.0.1": 3}, limiter.hits)
}

func TestAuthRateLimit_TrustProxyUsesForwardedAddress(t *testing.T) {
	h, limiter := limitedRouter(true)

	require.Equal(t, http.StatusNotFound, postToken(h, "10.0.0.1:5555", "1.2.3.0").Code)
	require.Equal(t, http.StatusNotFound, postToken(h, "10.0.0.1:5555", "1.2.3.1").Code)
	assertError(t, postToken(h, "10.0.0.1:5555", "1.2.3.1"), http.StatusTooManyRequests, apperr.KindRateLimited)
	assert.Equal(t, 1, limiter.hits["token:1.2.3.0"])
	assert.Equal(t, 2, limiter.hits["token:1.2.3.1"])
}
