package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing(context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func probe(t *testing.T, endpoint http.HandlerFunc) (int, statusResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body statusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func runN(c *check, n int) {
	for range n {
		c.run(context.Background())
	}
}

func TestLiveEndpoint(t *testing.T) {
	t.Run("NoChecks", func(t *testing.T) {
		code, body := probe(t, New().LiveEndpoint)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body.Status)
	})
	t.Run("Passing", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("goroutines", time.Second, passing)
		h.AddLivenessCheck("gc", time.Second, passing)

		code, body := probe(t, h.LiveEndpoint)
		assert.Equal(t, http.StatusOK, code)
		assert.Empty(t, body.Checks)
	})
	t.Run("BelowThreshold", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("flaky", time.Second, failing("temporary"))
		runN(h.liveness[0], 2)

		code, _ := probe(t, h.LiveEndpoint)
		assert.Equal(t, http.StatusOK, code)
	})
	t.Run("Failing", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("postgres", time.Second, failing("connection refused"))
		runN(h.liveness[0], 3)

		code, body := probe(t, h.LiveEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", body.Status)
		assert.Equal(t, map[string]string{"postgres": "connection refused"}, body.Checks)
	})
	t.Run("CustomThreshold", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("strict", time.Second, failing("down"), WithFailureThreshold(1))
		runN(h.liveness[0], 1)

		code, _ := probe(t, h.LiveEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("NotMarkedReady", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("postgres", time.Second, passing)

		code, body := probe(t, h.ReadyEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Contains(t, body.Checks, "_readiness")
	})
	t.Run("Toggle", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("postgres", time.Second, passing)
		h.SetReady(true)

		code, _ := probe(t, h.ReadyEndpoint)
		assert.Equal(t, http.StatusOK, code)

		h.SetReady(false)
		code, _ = probe(t, h.ReadyEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})
	t.Run("OneFailing", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("postgres", time.Second, passing)
		h.AddReadinessCheck("pool", time.Second, failing("pool saturated"))
		h.SetReady(true)
		runN(h.readiness[1], 3)

		code, body := probe(t, h.ReadyEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Contains(t, body.Checks, "pool")
		assert.NotContains(t, body.Checks, "postgres")
		assert.False(t, h.IsReady())
	})
}

func TestIsReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing)

	assert.False(t, h.IsReady())
	h.SetReady(true)
	assert.True(t, h.IsReady())
	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestCheckRecovery(t *testing.T) {
	down := true
	h := New()
	h.AddLivenessCheck("flaky", time.Second, func(context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	}, WithSuccessThreshold(2))
	c := h.liveness[0]

	runN(c, 3)
	msg, failed := c.failure()
	require.True(t, failed)
	assert.Equal(t, "down", msg)

	down = false
	runN(c, 1)
	_, failed = c.failure()
	assert.True(t, failed, "one success is below the success threshold")

	runN(c, 1)
	_, failed = c.failure()
	assert.False(t, failed)
}

func TestCheckTimeout(t *testing.T) {
	h := New()
	h.AddReadinessCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, WithFailureThreshold(1))
	runN(h.readiness[0], 1)

	msg, failed := h.readiness[0].failure()
	require.True(t, failed)
	assert.Equal(t, context.DeadlineExceeded.Error(), msg)
}

func TestStartStop(t *testing.T) {
	h := New()
	h.AddLivenessCheck("broken", time.Second, failing("err"), WithFailureThreshold(1))
	h.AddReadinessCheck("postgres", time.Second, passing)
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 10*time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				h.IsReady()
				h.LiveEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))
				h.ReadyEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		w := httptest.NewRecorder()
		h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
		return w.Code == http.StatusServiceUnavailable
	}, time.Second, 10*time.Millisecond)

	h.Stop()
	h.Stop()
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestCheckers(t *testing.T) {
	ctx := context.Background()

	t.Run("GoroutineCount", func(t *testing.T) {
		assert.NoError(t, GoroutineCountCheck(100000)(ctx))
		assert.ErrorContains(t, GoroutineCountCheck(0)(ctx), "exceeds threshold")
	})
	t.Run("GCMaxPause", func(t *testing.T) {
		assert.NoError(t, GCMaxPauseCheck(time.Hour)(ctx))
	})
	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, PingCheck(fakePinger{})(ctx))
		assert.ErrorContains(t, PingCheck(fakePinger{err: errors.New("refused")})(ctx), "refused")
	})
	t.Run("PoolSaturation", func(t *testing.T) {
		usage := func(acquired, capacity int32) func() (int32, int32) {
			return func() (int32, int32) { return acquired, capacity }
		}
		assert.NoError(t, PoolSaturationCheck(usage(3, 10), 0.9)(ctx))
		assert.NoError(t, PoolSaturationCheck(usage(0, 0), 0.9)(ctx))
		assert.ErrorContains(t, PoolSaturationCheck(usage(10, 10), 0.9)(ctx), "10 of 10")
	})
}
