package utils

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Circuit Breaker Tests

func newTestBreaker(minRequests uint32) *CircuitBreaker {
	return NewCircuitBreaker("test", BreakerSettings{
		MinRequests:  minRequests,
		FailureRatio: 0.6,
		Timeout:      100 * time.Millisecond,
	})
}

func succeed(context.Context) (string, error) { return "success", nil }

func fail(context.Context) (string, error) { return "", errors.New("failure") }

func TestCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker("gateway", BreakerSettings{})

	assert.Equal(t, "gateway", cb.Name())
	assert.Equal(t, uint32(100), cb.minRequests)
	assert.Equal(t, uint32(1), cb.halfOpenRequests)
	assert.Equal(t, 60*time.Second, cb.interval)
	assert.Equal(t, 60*time.Second, cb.timeout)
	assert.Equal(t, 0.6, cb.failureRatio)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := newTestBreaker(5)

	result, err := Execute(context.Background(), cb, succeed)

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, StateClosed, cb.State())
	counts := cb.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(0), counts.TotalFailures)
}

func TestCircuitBreaker_ExecuteFailure(t *testing.T) {
	cb := newTestBreaker(5)

	result, err := Execute(context.Background(), cb, fail)

	assert.EqualError(t, err, "failure")
	assert.Empty(t, result)
	counts := cb.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalFailures)
}

func TestCircuitBreaker_ClosedToOpen(t *testing.T) {
	cb := newTestBreaker(5)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := Execute(ctx, cb, succeed)
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := Execute(ctx, cb, fail)
		require.Error(t, err)
	}

	assert.Equal(t, StateOpen, cb.State())

	_, err := Execute(ctx, cb, func(context.Context) (string, error) {
		t.Fatal("request must not run while the breaker is open")
		return "", nil
	})
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestCircuitBreaker_OpenToHalfOpenToClosed(t *testing.T) {
	cb := newTestBreaker(5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		Execute(ctx, cb, fail)
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	_, err := Execute(ctx, cb, succeed)
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := newTestBreaker(5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		Execute(ctx, cb, fail)
	}
	time.Sleep(150 * time.Millisecond)

	_, err := Execute(ctx, cb, fail)
	assert.Error(t, err)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker("gateway", BreakerSettings{
		MinRequests:  2,
		FailureRatio: 0.5,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	Execute(context.Background(), cb, fail)
	Execute(context.Background(), cb, fail)

	assert.Equal(t, []string{"gateway:closed->open"}, transitions)
}

func TestCircuitBreaker_CanceledContextSkipsRequest(t *testing.T) {
	cb := newTestBreaker(5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(ctx, cb, func(context.Context) (string, error) {
		t.Fatal("request must not run with a canceled context")
		return "", nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint32(0), cb.Counts().Requests)
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := newTestBreaker(1000)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Execute(ctx, cb, succeed)
		}()
	}
	wg.Wait()

	counts := cb.Counts()
	assert.Equal(t, uint32(50), counts.Requests)
	assert.Equal(t, uint32(50), counts.TotalSuccesses)
}

func TestCircuitBreaker_PanicRecovery(t *testing.T) {
	cb := newTestBreaker(5)

	assert.Panics(t, func() {
		Execute(context.Background(), cb, func(context.Context) (string, error) {
			panic("gateway client bug")
		})
	})
	assert.Equal(t, uint32(1), cb.Counts().TotalFailures)
}

func TestCircuitBreaker_StateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half_open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}

// Random

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(4)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	assert.Equal(t, strings.ToUpper(code), code)
}

func TestNewReceipt(t *testing.T) {
	now := time.Unix(1760000000, 0)

	receipt, err := NewReceipt(now)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt, "r_1760000000_"))
	assert.LessOrEqual(t, len(receipt), 40)
}

// Redis Client Tests

func TestRedisHealthCheck_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectPing().SetVal("PONG")

	err := RedisHealthCheck(db)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHealthCheck_Failure(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectPing().SetErr(errors.New("connection failed"))

	err := RedisHealthCheck(db)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis health check failed")
	assert.Contains(t, err.Error(), "connection failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func BenchmarkCircuitBreaker_Execute_Success(b *testing.B) {
	cb := NewCircuitBreaker("benchmark", BreakerSettings{})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Execute(ctx, cb, succeed)
	}
}
