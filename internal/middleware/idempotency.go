package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

// maxIdempotentBody bounds the request body read for fingerprinting
const maxIdempotentBody = 1 << 20

// IdempotencyStore stores idempotency key results
type IdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

type idempotencyEntry struct {
	status    int
	headers   http.Header
	body      []byte
	expiresAt time.Time
	inFlight  bool
	done      chan struct{}
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // How long to keep idempotency results (default 24h)
	Cleanup time.Duration // Cleanup interval (default 1h)
}

// NewIdempotencyStore creates a new idempotency store
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Hour
	}

	store := &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      cfg.TTL,
		stopChan: make(chan struct{}),
	}

	go store.cleanupLoop(cfg.Cleanup)

	return store
}

// Stop stops the cleanup goroutine
func (s *IdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *IdempotencyStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.entries {
		if !entry.inFlight && entry.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// claim returns a finished entry to replay, or marks key in flight and
// returns nil. Concurrent callers with the same key wait for the first.
func (s *IdempotencyStore) claim(key string) *idempotencyEntry {
	for {
		s.mu.Lock()
		entry, ok := s.entries[key]
		switch {
		case !ok || (!entry.inFlight && entry.expiresAt.Before(time.Now())):
			s.entries[key] = &idempotencyEntry{inFlight: true, done: make(chan struct{})}
			s.mu.Unlock()
			return nil
		case entry.inFlight:
			done := entry.done
			s.mu.Unlock()
			<-done
		default:
			s.mu.Unlock()
			return entry
		}
	}
}

// finish records the response for key. Server errors are not kept so the
// client can retry with the same key.
func (s *IdempotencyStore) finish(key string, status int, headers http.Header, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[key]
	if entry == nil {
		return
	}
	if status >= http.StatusInternalServerError {
		delete(s.entries, key)
	} else {
		entry.status = status
		entry.headers = headers
		entry.body = body
		entry.expiresAt = time.Now().Add(s.ttl)
		entry.inFlight = false
	}
	close(entry.done)
}

// generateKey creates a unique key from the caller, idempotency key, and request fingerprint
func generateKey(subject, idempotencyKey, method, path string, body []byte) string {
	h := sha256.New()
	for _, part := range []string{subject, idempotencyKey, method, path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// idempotencyResponseWriter captures the response for caching
type idempotencyResponseWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *idempotencyResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func replay(w http.ResponseWriter, entry *idempotencyEntry) {
	for k, v := range entry.headers {
		for _, val := range v {
			w.Header().Add(k, val)
		}
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(entry.status)
	_, _ = w.Write(entry.body)
}

// Idempotency returns middleware that replays the stored response when a
// POST arrives again with the same Idempotency-Key, caller and body.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := r.Header.Get("Idempotency-Key")
			if r.Method != http.MethodPost || idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(idempotencyKey) > 255 {
				model.NewBadRequestError("Idempotency-Key must be at most 255 characters").WriteJSON(w)
				return
			}

			// Runs ahead of authentication, so the bearer token stands in for the user.
			subject := GetUserID(r.Context())
			if subject == "" {
				subject = r.Header.Get("Authorization")
			}
			if subject == "" {
				subject = clientIP(r)
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody))
			if err != nil {
				model.NewBadRequestError("could not read request body").WriteJSON(w)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := generateKey(subject, idempotencyKey, r.Method, r.URL.Path, body)
			if entry := store.claim(key); entry != nil {
				replay(w, entry)
				return
			}

			irw := &idempotencyResponseWriter{ResponseWriter: w, status: http.StatusOK}
			completed := false
			defer func() {
				if !completed {
					store.finish(key, http.StatusInternalServerError, nil, nil)
				}
			}()

			next.ServeHTTP(irw, r)

			completed = true
			store.finish(key, irw.status, irw.Header().Clone(), irw.body.Bytes())
		})
	}
}
