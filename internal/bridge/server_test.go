package bridge

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"go.uber.org/zap"
)

func testApp(t *testing.T) (*Server, *httpTester) {
	t.Helper()
	server := NewServer(NewStore(), zap.NewNop())
	return server, &httpTester{t: t, server: server}
}

type httpTester struct {
	t      *testing.T
	server *Server
}

func (h *httpTester) get(path string) (*http.Response, []byte) {
	h.t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	resp, err := h.server.App().Test(req)
	if err != nil {
		h.t.Fatalf("request %s: %v", path, err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	return resp, body
}

func chunkURL(id, hash string, index, total int, data string) string {
	q := url.Values{}
	q.Set("id", id)
	q.Set("h", hash)
	q.Set("i", strconv.Itoa(index))
	q.Set("n", strconv.Itoa(total))
	q.Set("d", data)
	return "/api/chunk?" + q.Encode()
}

// TestHealthEndpoint verifies the health payload before and after a
// state arrives.
func TestHealthEndpoint(t *testing.T) {
	server, tester := testApp(t)
	resp, body := tester.get("/api/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var health struct {
		Status   string `json:"status"`
		HasState bool   `json:"has_state"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "ok" || health.HasState {
		t.Fatalf("health = %+v", health)
	}

	server.store.AddChunk("g", "h", 0, 1, base64.RawURLEncoding.EncodeToString([]byte(`{}`)))
	_, body = tester.get("/api/health")
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !health.HasState {
		t.Fatal("has_state should flip after a state arrives")
	}
}

// TestChunkEndpoint verifies beacon ingestion: the GIF response and the
// state assembled across two requests.
func TestChunkEndpoint(t *testing.T) {
	server, tester := testApp(t)
	payload := `{"gameId":"web1","steps":[{"ply":1,"sfen":"x","usi":"7g7f"}]}`
	b64 := base64.RawURLEncoding.EncodeToString([]byte(payload))
	half := len(b64) / 2

	resp, body := tester.get(chunkURL("web1", "abc", 0, 2, b64[:half]))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/gif" {
		t.Fatalf("content type = %q, want image/gif", ct)
	}
	if len(body) == 0 || string(body[:3]) != "GIF" {
		t.Fatal("chunk response is not a GIF")
	}

	tester.get(chunkURL("web1", "abc", 1, 2, b64[half:]))
	state, _ := server.store.State()
	if string(state) != payload {
		t.Fatalf("state = %q, want %q", state, payload)
	}
}

// TestChunkEndpoint_IgnoresMalformedQuery verifies that missing
// parameters never crash ingestion and still answer with the GIF.
func TestChunkEndpoint_IgnoresMalformedQuery(t *testing.T) {
	server, tester := testApp(t)
	for _, path := range []string{
		"/api/chunk",
		"/api/chunk?id=x",
		"/api/chunk?id=x&i=-1&n=2&d=aaaa",
		"/api/chunk?id=x&i=0&n=0&d=aaaa",
	} {
		resp, _ := tester.get(path)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status = %d", path, resp.StatusCode)
		}
	}
	if state, _ := server.store.State(); state != nil {
		t.Fatalf("state from malformed queries: %q", state)
	}
}

// TestStateEndpoint verifies the polling payload in both the empty and
// populated cases.
func TestStateEndpoint(t *testing.T) {
	server, tester := testApp(t)
	_, body := tester.get("/api/state")
	var empty struct {
		State   json.RawMessage `json:"state"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &empty); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(empty.State) != "null" || empty.Message != "No game data received yet" {
		t.Fatalf("empty state payload = %s", body)
	}

	payload := `{"gameId":"web2"}`
	server.store.AddChunk("web2", "h", 0, 1, base64.RawURLEncoding.EncodeToString([]byte(payload)))
	_, body = tester.get("/api/state")
	var filled struct {
		State     json.RawMessage `json:"state"`
		Timestamp int64           `json:"timestamp"`
		AgeMs     *int64          `json:"age_ms"`
	}
	if err := json.Unmarshal(body, &filled); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(filled.State) != payload {
		t.Fatalf("state = %s, want %s", filled.State, payload)
	}
	if filled.Timestamp == 0 || filled.AgeMs == nil {
		t.Fatalf("metadata missing: %s", body)
	}
}

// TestWSRouteRequiresUpgrade verifies plain HTTP on the websocket path
// is refused.
func TestWSRouteRequiresUpgrade(t *testing.T) {
	_, tester := testApp(t)
	resp, _ := tester.get("/ws/state")
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUpgradeRequired)
	}
}
