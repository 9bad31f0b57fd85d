package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"jbeauty/content/internal/cms"
	"jbeauty/content/internal/config"
	"jbeauty/content/internal/groq"
	"jbeauty/content/internal/notice"
)

type stubExecutor struct {
	fn    func(ctx context.Context, q groq.Query) (cms.Result, error)
	calls int
}

func (s *stubExecutor) Execute(ctx context.Context, q groq.Query) (cms.Result, error) {
	s.calls++
	return s.fn(ctx, q)
}

func testConfig() config.Config {
	return config.Config{
		CMSProjectID:    "mbj14vcv",
		CMSDataset:      "production",
		ImageCDNURL:     "https://cdn.example.com",
		NoticeVersion:   "recall_2026_01",
		NoticeDetailURL: "https://example.com/product-recall/",
	}
}

func newTestServer(executor Executor) *httptest.Server {
	service := New(testConfig(), executor, notice.NewMemoryStore())
	return httptest.NewServer(NewHTTPServer(service, "*").Handler())
}

func getJSON(t *testing.T, srv *httptest.Server, path string) (int, map[string]any) {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("GET %s returned undecodable body: %v", path, err)
	}
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubExecutor{fn: func(ctx context.Context, q groq.Query) (cms.Result, error) {
		return cms.Result{}, nil
	}})
	defer srv.Close()

	status, body := getJSON(t, srv, "/api/health")
	if status != http.StatusOK || body["ok"] != true {
		t.Errorf("unexpected health response: %d %v", status, body)
	}
}

func TestBrandsEndpoint(t *testing.T) {
	executor := &stubExecutor{fn: func(ctx context.Context, q groq.Query) (cms.Result, error) {
		return cms.Result{List: []cms.RawRecord{
			{"_id": "b1", "name": "Aroma", "category": "fragrance"},
			{"_id": "b2", "name": "Mystery", "category": "unknown_x"},
		}}, nil
	}}
	srv := newTestServer(executor)
	defer srv.Close()

	status, body := getJSON(t, srv, "/api/brands")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	if body["state"] != "loaded" {
		t.Errorf("expected loaded state, got %v", body["state"])
	}
	brands := body["brands"].([]any)
	if len(brands) != 1 {
		t.Errorf("expected the invalid brand dropped, got %v", brands)
	}
	if body["dropped"] != float64(1) {
		t.Errorf("expected dropped=1, got %v", body["dropped"])
	}
}

func TestBrandsGrouped(t *testing.T) {
	executor := &stubExecutor{fn: func(ctx context.Context, q groq.Query) (cms.Result, error) {
		return cms.Result{List: []cms.RawRecord{
			{"_id": "b1", "name": "Herb", "category": "organic_cosmetics"},
			{"_id": "b2", "name": "Aroma", "category": "fragrance"},
		}}, nil
	}}
	srv := newTestServer(executor)
	defer srv.Close()

	status, body := getJSON(t, srv, "/api/brands?grouped=1")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	groups := body["groups"].([]any)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %v", groups)
	}
	first := groups[0].(map[string]any)
	if first["category"] != "fragrance" {
		t.Errorf("fragrance group should come first, got %v", first["category"])
	}
}

func TestNewsEmptyListIsLoaded(t *testing.T) {
	executor := &stubExecutor{fn: func(ctx context.Context, q groq.Query) (cms.Result, error) {
		return cms.Result{List: []cms.RawRecord{}}, nil
	}}
	srv := newTestServer(executor)
	defer srv.Close()

	status, body := getJSON(t, srv, "/api/news")
	if status != http.StatusOK || body["state"] != "loaded" {
		t.Fatalf("empty list must load, got %d %v", status, body)
	}
	if items := body["items"].([]any); len(items) != 0 {
		t.Errorf("expected no items, got %v", items)
	}
}

func TestUpstreamFailureIsExplicit(t *testing.T) {
	executor := &stubExecutor{fn: func(ctx context.Context, q groq.Query) (cms.Result, error) {
		return cms.Result{}, &cms.TransportError{Status: 503}
	}}
	srv := newTestServer(executor)
	defer srv.Close()

	status, body := getJSON(t, srv, "/api/news")
	if status != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", status)
	}
	if body["code"] != "UPSTREAM_FAILED" {
		t.Errorf("failure must carry an explicit code, got %v", body)
	}
}

func TestNewsDetailNotFound(t *testing.T) {
	executor := &stubExecutor{fn: func(ctx context.Context, q groq.Query) (cms.Result, error) {
		return cms.Result{Singleton: true}, nil
	}}
	srv := newTestServer(executor)
	defer srv.Close()

	status, body := getJSON(t, srv, "/api/news/missing")
	if status != http.StatusNotFound || body["code"] != "NOT_FOUND" {
		t.Errorf("missing record should 404, got %d %v", status, body)
	}
}

func TestNewsDetailLoaded(t *testing.T) {
	executor := &stubExecutor{fn: func(ctx context.Context, q groq.Query) (cms.Result, error) {
		return cms.Result{
			Singleton: true,
			Record: cms.RawRecord{
				"_id":   "n1",
				"title": "Recall notice",
				"body": []any{map[string]any{
					"_type": "block", "style": "normal",
					"children": []any{map[string]any{"_type": "span", "text": "Details."}},
				}},
			},
		}, nil
	}}
	srv := newTestServer(executor)
	defer srv.Close()

	status, body := getJSON(t, srv, "/api/news/n1")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	item := body["item"].(map[string]any)
	if item["title"] != "Recall notice" {
		t.Errorf("unexpected item: %v", item)
	}
	if item["bodyHtml"] != "<p>Details.</p>\n" {
		t.Errorf("body not rendered: %q", item["bodyHtml"])
	}
}

func TestCachedSnapshotAndRefresh(t *testing.T) {
	executor := &stubExecutor{fn: func(ctx context.Context, q groq.Query) (cms.Result, error) {
		return cms.Result{List: []cms.RawRecord{}}, nil
	}}
	srv := newTestServer(executor)
	defer srv.Close()

	getJSON(t, srv, "/api/news")
	getJSON(t, srv, "/api/news")
	if executor.calls != 1 {
		t.Fatalf("second request should serve the cached snapshot, got %d calls", executor.calls)
	}

	getJSON(t, srv, "/api/news?refresh=1")
	if executor.calls != 2 {
		t.Errorf("refresh should trigger exactly one refetch, got %d calls", executor.calls)
	}
}

func TestNoticeFlow(t *testing.T) {
	executor := &stubExecutor{fn: func(ctx context.Context, q groq.Query) (cms.Result, error) {
		return cms.Result{}, nil
	}}
	srv := newTestServer(executor)
	defer srv.Close()

	status, body := getJSON(t, srv, "/api/notice")
	if status != http.StatusOK || body["show"] != true {
		t.Fatalf("fresh notice should show, got %d %v", status, body)
	}
	payload := body["notice"].(map[string]any)
	if payload["version"] != "recall_2026_01" || payload["detailUrl"] == "" {
		t.Errorf("unexpected notice payload: %v", payload)
	}

	resp, err := srv.Client().Post(srv.URL+"/api/notice/suppress", "application/json", nil)
	if err != nil {
		t.Fatalf("suppress failed: %v", err)
	}
	resp.Body.Close()

	_, body = getJSON(t, srv, "/api/notice")
	if body["show"] != false {
		t.Errorf("suppressed notice should stay hidden for the day, got %v", body)
	}
}

func TestPreflightHasNoBody(t *testing.T) {
	executor := &stubExecutor{fn: func(ctx context.Context, q groq.Query) (cms.Result, error) {
		return cms.Result{}, nil
	}}
	srv := newTestServer(executor)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/brands", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("OPTIONS failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if len(body) != 0 {
		t.Errorf("preflight response must have no body, got %q", body)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight missing CORS origin header")
	}
}

func TestUnknownRoute(t *testing.T) {
	executor := &stubExecutor{fn: func(ctx context.Context, q groq.Query) (cms.Result, error) {
		return cms.Result{}, nil
	}}
	srv := newTestServer(executor)
	defer srv.Close()

	status, body := getJSON(t, srv, "/api/unknown")
	if status != http.StatusNotFound || body["code"] != "NOT_FOUND" {
		t.Errorf("unexpected response: %d %v", status, body)
	}
}
