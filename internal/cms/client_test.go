package cms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"jbeauty/content/internal/groq"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "2026-02-04", "production", opts...)
}

func TestExecuteList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/v2026-02-04/data/query/production" {
			t.Errorf("unexpected path %s", got)
		}
		if r.URL.Query().Get("query") == "" {
			t.Errorf("missing query parameter")
		}
		w.Write([]byte(`{"result": [{"_id": "n1", "title": "hello"}]}`))
	})

	result, err := client.Execute(context.Background(), groq.NewsList())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Singleton {
		t.Errorf("list query reported singleton result")
	}
	if len(result.List) != 1 || result.List[0]["title"] != "hello" {
		t.Errorf("unexpected result: %+v", result.List)
	}
}

func TestExecuteEmptyList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": []}`))
	})

	result, err := client.Execute(context.Background(), groq.NewsList())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.List == nil || len(result.List) != 0 {
		t.Errorf("empty list should decode to a non-nil empty slice, got %#v", result.List)
	}
}

func TestExecuteSingleton(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("$id"); got != `"n1"` {
			t.Errorf("expected JSON-encoded id param, got %q", got)
		}
		w.Write([]byte(`{"result": {"_id": "n1", "title": "hello"}}`))
	})

	result, err := client.Execute(context.Background(), groq.NewsByID("n1"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Singleton || result.Record["_id"] != "n1" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestExecuteSingletonNoMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": null}`))
	})

	result, err := client.Execute(context.Background(), groq.NewsByID("missing"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Singleton || result.Record != nil {
		t.Errorf("expected empty singleton result, got %+v", result)
	}
}

func TestExecuteTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Execute(context.Background(), groq.NewsList())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.Status != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", transportErr.Status)
	}
}

func TestExecuteDecodeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": [truncated`))
	})

	_, err := client.Execute(context.Background(), groq.NewsList())
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Size == 0 {
		t.Errorf("decode error should record the payload size")
	}
}

func TestRetryPolicyRetriesTransportErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"result": []}`))
	}, WithRetryPolicy(5, time.Millisecond, 10*time.Millisecond))

	if _, err := client.Execute(context.Background(), groq.NewsList()); err != nil {
		t.Fatalf("Execute failed after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestRetryPolicyDoesNotRetryDecodeErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`not json`))
	}, WithRetryPolicy(5, time.Millisecond, 10*time.Millisecond))

	_, err := client.Execute(context.Background(), groq.NewsList())
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("decode error should not be retried, got %d attempts", got)
	}
}
