package security

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expectHit queues the INCR + EXPIRE NX transaction for one request.
func expectHit(mock redismock.ClientMock, key string, window time.Duration, count int64) {
	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetVal(count)
	mock.ExpectExpireNX(key, window).SetVal(count == 1)
	mock.ExpectTxPipelineExec()
}

func TestRateLimiter_Allow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 2, time.Minute)
	ctx := context.Background()

	expectHit(mock, "ratelimit:verify:user:u1", time.Minute, 1)
	expectHit(mock, "ratelimit:verify:user:u1", time.Minute, 2)
	expectHit(mock, "ratelimit:verify:user:u1", time.Minute, 3)

	ok, err := limiter.Allow(ctx, "verify:user:u1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Allow(ctx, "verify:user:u1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Allow(ctx, "verify:user:u1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_AllowRedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 2, time.Minute)

	mock.ExpectTxPipeline()
	mock.ExpectIncr("ratelimit:k").SetErr(errors.New("connection refused"))

	_, err := limiter.Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestRateLimiter_WindowIsSetWithTheIncrement(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 5, 30*time.Second)

	// EXPIRE NX is sent on every hit, in the same transaction as INCR, so a
	// counter left without a TTL gets one on the next request.
	expectHit(mock, "ratelimit:webhook:ip:10.0.0.1", 30*time.Second, 4)

	ok, err := limiter.Allow(context.Background(), "webhook:ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	limiter := NewRateLimiter(nil, 0, 0)
	assert.Equal(t, 30, limiter.limit)
	assert.Equal(t, time.Minute, limiter.window)
}

func newEvent(method, target, ua string) (*core.RequestEvent, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("User-Agent", ua)

	e := &core.RequestEvent{}
	e.Request = req
	e.Response = rec
	return e, rec
}

func TestRateLimiter_MiddlewareRejectsOverBudget(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 1, time.Minute)

	e, rec := newEvent(http.MethodPost, "/api/v1/payments/verify", "Mozilla/5.0")
	e.Auth = &core.Record{}
	e.Auth.Id = "u1"

	expectHit(mock, "ratelimit:verify:user:u1", time.Minute, 2)

	err := limiter.Middleware("verify").Func(e)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RateLimited")
}

func TestIsSuspiciousUserAgent(t *testing.T) {
	assert.True(t, isSuspiciousUserAgent("Googlebot/2.1"))
	assert.True(t, isSuspiciousUserAgent("MyScraper 1.0"))
	assert.False(t, isSuspiciousUserAgent("Mozilla/5.0 (X11; Linux x86_64)"))
	assert.False(t, isSuspiciousUserAgent("Razorpay-Webhook/v1"))
}

func TestAntiBot_Blocks(t *testing.T) {
	e, rec := newEvent(http.MethodPost, "/api/v1/payments/create-order/evt_1", "python-crawler")

	err := AntiBot().Func(e)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
