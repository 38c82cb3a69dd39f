package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hintaro/hintaro/internal/analysis"
	"github.com/hintaro/hintaro/internal/config"
	"github.com/hintaro/hintaro/internal/database"
	"github.com/hintaro/hintaro/internal/share"
	"github.com/hintaro/hintaro/internal/viral"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func newTestServer(t *testing.T) (*Server, *analysis.Service, *database.DB) {
	t.Helper()
	db := openTestDB(t)
	cfg := config.Default()
	svc := analysis.NewService(db, viral.NewDeriver(cfg.Cards.ToneMarkers), share.NewRenderer(cfg.Brand, cfg.Theme), nil)
	srv, err := New(svc, db, cfg.Brand, nil)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv, svc, db
}

func do(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if strings.HasPrefix(target, "/replies") {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthRoute(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := do(srv, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestCreateAnalysisObject(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body := `{"tier":"pro","analysis":{"interest_level":88,"emotional_risk":"low","tone":"Flirty","intent":"Wants to hang out this weekend for sure"}}`
	rec := do(srv, "POST", "/api/analyses", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp createResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ID == "" || resp.Tier != "pro" {
		t.Errorf("unexpected response %+v", resp)
	}
	card := resp.ViralCard
	if card.Stamp != viral.StampGreen || card.RoastLevel != viral.RoastSpicy || card.ScoreVisual != 88 {
		t.Errorf("unexpected card %+v", card)
	}
	if card.Headline != "Wants to hang out this weeke" {
		t.Errorf("headline = %q", card.Headline)
	}
}

func TestCreateAnalysisFromText(t *testing.T) {
	srv, svc, _ := newTestServer(t)

	text, _ := json.Marshal("```json\n{\"interest_level\": \"30%\"}\n```")
	rec := do(srv, "POST", "/api/analyses", fmt.Sprintf(`{"analysis":%s}`, text))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	recent, err := svc.Recent(10)
	if err != nil || len(recent) != 1 {
		t.Fatalf("expected one stored analysis, got %d (%v)", len(recent), err)
	}
	if recent[0].Tier != "free" {
		t.Errorf("tier = %q, want free", recent[0].Tier)
	}
	if recent[0].Record.ViralCard == nil || recent[0].Record.ViralCard.Stamp != "RED FLAG" {
		t.Errorf("expected embedded RED FLAG card, got %+v", recent[0].Record.ViralCard)
	}
}

func TestCreateAnalysisBadRequests(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := map[string]string{
		"bad json":     `{"tier":`,
		"bad tier":     `{"tier":"gold","analysis":{}}`,
		"no analysis":  `{"tier":"free"}`,
		"null":         `{"analysis":null}`,
		"garbage text": `{"analysis":"not json at all"}`,
	}
	for name, body := range tests {
		if rec := do(srv, "POST", "/api/analyses", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, rec.Code)
		}
	}

	if rec := do(srv, "GET", "/api/analyses", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestGetAndDeleteAnalysis(t *testing.T) {
	srv, svc, _ := newTestServer(t)
	a, _, err := svc.Create("plus", map[string]any{"interest_level": 50, "custom": "kept"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := do(srv, "GET", "/api/analyses/"+a.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"custom":"kept"`) || !strings.Contains(body, `"viral_card"`) {
		t.Errorf("expected stored record with card, got %s", body)
	}

	if rec := do(srv, "DELETE", "/api/analyses/"+a.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec := do(srv, "GET", "/api/analyses/"+a.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
	if rec := do(srv, "DELETE", "/api/analyses/"+a.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestCardRoute(t *testing.T) {
	srv, svc, _ := newTestServer(t)
	a, _, err := svc.Create("free", map[string]any{
		"interest_level": -20,
		"viral_card":     map[string]any{"stamp": "MIXED SIGNAL", "shareable_quote": "???"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := do(srv, "GET", "/api/analyses/"+a.ID+"/card?format=square", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var v share.View
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding view: %v", err)
	}
	if v.ID != a.ID || v.Format != share.FormatSquare {
		t.Errorf("unexpected view header %q %q", v.ID, v.Format)
	}
	if v.Card.ScoreVisual != 0 {
		t.Errorf("score = %d, want 0", v.Card.ScoreVisual)
	}
	if v.Card.ShareableQuote != "Red flag energy. Step back." {
		t.Errorf("quote = %q", v.Card.ShareableQuote)
	}

	if rec := do(srv, "GET", "/api/analyses/"+a.ID+"/card?format=banner", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown format, got %d", rec.Code)
	}
	if rec := do(srv, "GET", "/api/analyses/missing/card", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSchemaRoute(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := do(srv, "GET", "/api/schema/card", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "shareable_quote") {
		t.Error("expected card properties in schema")
	}
	if rec := do(srv, "GET", "/api/schema/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestIndexRoute(t *testing.T) {
	srv, svc, _ := newTestServer(t)
	if _, _, err := svc.Create("free", map[string]any{"interest_level": 90, "intent": "Totally into you"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := do(srv, "GET", "/", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Recent cards") || !strings.Contains(body, "Totally into you") {
		t.Error("expected recent card in response body")
	}

	if rec := do(srv, "GET", "/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestShareRoute(t *testing.T) {
	srv, svc, _ := newTestServer(t)
	a, _, err := svc.Create("pro", map[string]any{"interest_level": "77%", "emotional_risk": "low", "recommended_timing": "Reply now"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := do(srv, "GET", "/share/"+a.ID+"?format=story", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"GREEN SIGNAL", "77%", "hintaro.com", "1080 / 1920", "rgba(16,185,129,0.2)"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in share page", want)
		}
	}

	if rec := do(srv, "GET", "/share/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestRepliesRoutes(t *testing.T) {
	srv, _, db := newTestServer(t)

	rec := do(srv, "POST", "/replies/add", "reply_text=**Bold** move&reply_type=playful")
	if rec.Code != http.StatusFound {
		t.Errorf("expected 302, got %d", rec.Code)
	}
	db.InsertSavedReply(nil, "Something else", ptr("direct"))

	rec = do(srv, "GET", "/replies?q=bold", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>Bold</strong>") {
		t.Error("expected markdown-rendered reply")
	}
	if strings.Contains(body, "Something else") {
		t.Error("expected search to filter replies")
	}

	replies, _ := db.GetSavedReplies("bold")
	if len(replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(replies))
	}
	rec = do(srv, "POST", fmt.Sprintf("/replies/%d/delete", replies[0].ID), "")
	if rec.Code != http.StatusFound {
		t.Errorf("expected 302, got %d", rec.Code)
	}
	if r, _ := db.GetSavedReply(replies[0].ID); r != nil {
		t.Error("expected reply to be deleted")
	}
}

func TestStaticRoute(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := do(srv, "GET", "/static/style.css", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "font-sans") {
		t.Error("expected CSS content")
	}
}
