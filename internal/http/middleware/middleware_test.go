package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memIdempotencyStore struct {
	entries map[string]string
	setErr  error
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{entries: make(map[string]string)}
}

func (s *memIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return s.entries[key], nil
}

func (s *memIdempotencyStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[key] = value
	return nil
}

func reservationHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"rental_id":1}`))
	})
}

func TestIdempotencyReplaysCachedResponse(t *testing.T) {
	store := newMemIdempotencyStore()
	calls := 0
	h := Idempotency(store)(reservationHandler(&calls))

	first := httptest.NewRequest(http.MethodPost, "/rentals", strings.NewReader(`{}`))
	first.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, calls)

	// The retry must not reach the handler: same body, same status, no
	// second booking.
	retry := httptest.NewRequest(http.MethodPost, "/rentals", strings.NewReader(`{}`))
	retry.Header.Set("Idempotency-Key", "key-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, retry)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"rental_id":1}`, rec.Body.String())
	assert.Equal(t, 1, calls, "cached replay must not invoke the handler again")
}

func TestIdempotencyDistinctKeysBookSeparately(t *testing.T) {
	store := newMemIdempotencyStore()
	calls := 0
	h := Idempotency(store)(reservationHandler(&calls))

	for _, key := range []string{"key-1", "key-2"} {
		req := httptest.NewRequest(http.MethodPost, "/rentals", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", key)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2, calls)
}

func TestIdempotencyIgnoresRequestsWithoutKey(t *testing.T) {
	store := newMemIdempotencyStore()
	calls := 0
	h := Idempotency(store)(reservationHandler(&calls))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/rentals", strings.NewReader(`{}`))
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2, calls, "no key means no replay semantics")
	assert.Empty(t, store.entries)
}

func TestIdempotencyDoesNotCacheFailures(t *testing.T) {
	store := newMemIdempotencyStore()
	calls := 0
	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"vehicle AB123CD is not available"}`))
	})
	h := Idempotency(store)(failing)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/rentals", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	assert.Equal(t, 2, calls, "rejections are retried for real, never replayed")
	assert.Empty(t, store.entries)
}

func TestIdempotencySkipsNonPost(t *testing.T) {
	store := newMemIdempotencyStore()
	calls := 0
	h := Idempotency(store)(reservationHandler(&calls))

	req := httptest.NewRequest(http.MethodGet, "/rentals", nil)
	req.Header.Set("Idempotency-Key", "key-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1, calls)
	assert.Empty(t, store.entries)
}

func TestDecodeCached(t *testing.T) {
	status, body := decodeCached("201\n{\"rental_id\":1}")
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, `{"rental_id":1}`, body)

	// Entries without a status line replay as 200.
	status, body = decodeCached(`{"rental_id":1}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `{"rental_id":1}`, body)
}
