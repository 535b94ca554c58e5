package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/palletspaces/backend/pkg/errors"
)

type fakeIdempotencyStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{data: make(map[string]string)}
}

func (s *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("ps:idempotency:%s:%s", scope, id)
}

func (s *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func newOrderRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req = req.WithContext(WithUserIdentity(req.Context(), 55, "Ada", "ada@example.com"))
	return req
}

func TestIdempotency_replaysStoredResponse(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Location", "/api/v1/orders/41/confirm")
		w.WriteHeader(http.StatusSeeOther)
		_, _ = w.Write([]byte(`{"data":{"id":41}}`))
	}))

	body := `{"listing_id":7,"quantity":2,"start_date":"2025-01-05","end_date":"2025-01-10"}`

	req := newOrderRequest(body)
	req.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}

	// Retry with the same key and body replays without re-running the handler.
	req2 := newOrderRequest(body)
	req2.Header.Set("Idempotency-Key", "key-1")
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)

	if calls != 1 {
		t.Fatalf("expected handler invoked once, got %d", calls)
	}
	if rec2.Code != http.StatusSeeOther {
		t.Fatalf("expected replayed 303, got %d", rec2.Code)
	}
	if rec2.Header().Get("Location") != "/api/v1/orders/41/confirm" {
		t.Fatalf("expected replayed Location header, got %q", rec2.Header().Get("Location"))
	}
	if rec2.Body.String() != `{"data":{"id":41}}` {
		t.Fatalf("unexpected replayed body: %s", rec2.Body.String())
	}
}

func TestIdempotency_rejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeIdempotencyStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := newOrderRequest(`{"listing_id":7,"quantity":2}`)
	req.Header.Set("Idempotency-Key", "key-2")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req2 := newOrderRequest(`{"listing_id":7,"quantity":3}`)
	req2.Header.Set("Idempotency-Key", "key-2")
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)

	if rec2.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key, got %d", rec2.Code)
	}
	if !strings.Contains(rec2.Body.String(), string(pkgerrors.CodeIdempotency)) {
		t.Fatalf("expected idempotency error code, got %s", rec2.Body.String())
	}
}

func TestIdempotency_missingKeyPassesThrough(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := newOrderRequest(`{"listing_id":7}`)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("expected both requests handled, got %d", calls)
	}
}

func TestIdempotency_unruledRouteIgnored(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set("Idempotency-Key", "key-3")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}
	if calls != 2 {
		t.Fatalf("expected GETs untouched, got %d handler calls", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected nothing stored for unruled route")
	}
}

func TestIdempotency_scopesKeysPerUser(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	body := `{"listing_id":7,"quantity":2}`
	for _, userID := range []int64{55, 56} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		req = req.WithContext(WithUserIdentity(req.Context(), userID, "U", "u@example.com"))
		req.Header.Set("Idempotency-Key", "shared-key")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 for user %d, got %d", userID, rec.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("expected distinct users handled separately, got %d", calls)
	}
}
