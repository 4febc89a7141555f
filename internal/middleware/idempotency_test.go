package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *IdempotencyStore {
	t.Helper()
	store := NewIdempotencyStore(IdempotencyConfig{TTL: time.Hour})
	t.Cleanup(store.Stop)
	return store
}

// countingHandler answers 201 with a body that names the call number
func countingHandler(calls *atomic.Int32, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"call":` + string(rune('0'+n)) + `}`))
	})
}

func postWithKey(key, auth, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/clubs/c1/join", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req
}

// ============================================================================
// generateKey Tests
// ============================================================================

func TestGenerateKey_Fingerprint(t *testing.T) {
	t.Parallel()
	base := generateKey("user:1", "k", "POST", "/p", []byte(`{"a":1}`))

	assert.Equal(t, base, generateKey("user:1", "k", "POST", "/p", []byte(`{"a":1}`)))
	assert.NotEqual(t, base, generateKey("user:2", "k", "POST", "/p", []byte(`{"a":1}`)))
	assert.NotEqual(t, base, generateKey("user:1", "k2", "POST", "/p", []byte(`{"a":1}`)))
	assert.NotEqual(t, base, generateKey("user:1", "k", "POST", "/q", []byte(`{"a":1}`)))
	assert.NotEqual(t, base, generateKey("user:1", "k", "POST", "/p", []byte(`{"a":2}`)))
	// Field boundaries matter.
	assert.NotEqual(t, generateKey("ab", "c", "POST", "/p", nil), generateKey("a", "bc", "POST", "/p", nil))
}

// ============================================================================
// Idempotency Middleware Tests
// ============================================================================

func TestIdempotency_SkipsNonPostAndKeyless(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	var calls atomic.Int32
	handler := Idempotency(store)(countingHandler(&calls, http.StatusOK))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPatch, "/v1/clubs/c1", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "k")
		handler.ServeHTTP(httptest.NewRecorder(), req)
		handler.ServeHTTP(httptest.NewRecorder(), postWithKey("", "Bearer t", `{}`))
	}

	assert.Equal(t, int32(4), calls.Load())
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	var calls atomic.Int32
	handler := Idempotency(store)(countingHandler(&calls, http.StatusCreated))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postWithKey("k1", "Bearer t", `{"x":1}`))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postWithKey("k1", "Bearer t", `{"x":1}`))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Empty(t, first.Header().Get("X-Idempotency-Replayed"))
}

func TestIdempotency_DifferentCallerOrBody_Executes(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	var calls atomic.Int32
	handler := Idempotency(store)(countingHandler(&calls, http.StatusCreated))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("k1", "Bearer alice", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("k1", "Bearer bob", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("k1", "Bearer alice", `{"changed":true}`))

	assert.Equal(t, int32(3), calls.Load())
}

func TestIdempotency_ServerErrorIsNotStored(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	var calls atomic.Int32
	handler := Idempotency(store)(countingHandler(&calls, http.StatusServiceUnavailable))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("k1", "Bearer t", `{}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postWithKey("k1", "Bearer t", `{}`))

	assert.Equal(t, int32(2), calls.Load())
	assert.Empty(t, rr.Header().Get("X-Idempotency-Replayed"))
}

func TestIdempotency_PanicReleasesKey(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	handler := Recovery(Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("k1", "Bearer t", `{}`))

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.entries)
}

func TestIdempotency_RestoresRequestBody(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	var seen string
	handler := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("k1", "", `{"rating":5}`))

	assert.Equal(t, `{"rating":5}`, seen)
}

func TestIdempotency_OversizedKey_ReturnsBadRequest(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	rr := httptest.NewRecorder()

	Idempotency(store)(&captureHandler{}).ServeHTTP(rr, postWithKey(strings.Repeat("k", 256), "", `{}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIdempotency_InFlight_SecondRequestWaits(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	handler := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		close(started)
		<-release
		w.WriteHeader(http.StatusCreated)
	}))

	var wg sync.WaitGroup
	recorders := []*httptest.ResponseRecorder{httptest.NewRecorder(), httptest.NewRecorder()}
	wg.Add(1)
	go func() {
		defer wg.Done()
		handler.ServeHTTP(recorders[0], postWithKey("k1", "Bearer t", `{}`))
	}()
	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		handler.ServeHTTP(recorders[1], postWithKey("k1", "Bearer t", `{}`))
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, http.StatusCreated, recorders[1].Code)
	assert.Equal(t, "true", recorders[1].Header().Get("X-Idempotency-Replayed"))
}

// ============================================================================
// Store Tests
// ============================================================================

func TestIdempotencyStore_Cleanup(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	store.entries["old"] = &idempotencyEntry{expiresAt: time.Now().Add(-time.Minute)}
	store.entries["fresh"] = &idempotencyEntry{expiresAt: time.Now().Add(time.Minute)}
	store.entries["running"] = &idempotencyEntry{inFlight: true}

	store.cleanup()

	require.Len(t, store.entries, 2)
	assert.Contains(t, store.entries, "fresh")
	assert.Contains(t, store.entries, "running")
}

func TestIdempotencyStore_ExpiredEntry_Reclaimed(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	store.entries["k"] = &idempotencyEntry{status: http.StatusCreated, expiresAt: time.Now().Add(-time.Second)}

	assert.Nil(t, store.claim("k"))
	assert.True(t, store.entries["k"].inFlight)
}
