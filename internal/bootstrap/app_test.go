package bootstrap

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-workspace/internal/shared/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:             "test",
		StorageBackend:  "memory",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		CORSAllowOrigin: []string{"http://localhost:5173"},
		RateLimit:       config.RateLimitConfig{Rate: 100, Burst: 100, AIRate: 1, AIBurst: 1},
		Editor: config.EditorConfig{
			HistoryLimit:  50,
			VersionLimit:  30,
			AutosaveDelay: time.Hour,
		},
	}
}

func call(r *gin.Engine, method, path, guest, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if guest != "" {
		req.Header.Set("X-Guest-Id", guest)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestBuildServesEditingFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()
	r := app.Router

	resp := call(r, http.MethodGet, "/api/v1/health", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", resp.Code)
	}
	if resp := call(r, http.MethodGet, "/api/v1/resumes", "", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.Code)
	}

	resp = call(r, http.MethodPost, "/api/v1/resumes", "g1", `{"title":"Platform Engineer"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	session := "/api/v1/resumes/" + created.ID + "/session"

	if resp := call(r, http.MethodPost, session, "g1", ""); resp.Code != http.StatusOK {
		t.Fatalf("open: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := call(r, http.MethodPost, session, "g2", ""); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another guest, got %d", resp.Code)
	}
	if resp := call(r, http.MethodPost, session+"/sections", "g1", `{"name":"Projects"}`); resp.Code != http.StatusOK {
		t.Fatalf("add section: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := call(r, http.MethodPost, session+"/save", "g1", ""); resp.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = call(r, http.MethodGet, "/api/v1/resumes/"+created.ID+"/versions", "g1", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("versions: expected 200, got %d", resp.Code)
	}
	var versions struct {
		Items []struct {
			ChangeType string `json:"changeType"`
		} `json:"items"`
	}
	json.Unmarshal(resp.Body.Bytes(), &versions)
	if len(versions.Items) != 1 || versions.Items[0].ChangeType != "manual" {
		t.Fatalf("expected one manual version, got %+v", versions.Items)
	}

	resp = call(r, http.MethodPost, session+"/ai/gaps", "g1", "")
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without an AI credential, got %d", resp.Code)
	}

	if resp := call(r, http.MethodDelete, "/api/v1/resumes/"+created.ID, "g1", ""); resp.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.Code)
	}
	if app.Sessions.Len() != 0 {
		t.Fatalf("deleting a resume should close its session")
	}

	resp = call(r, http.MethodGet, "/metrics", "", "")
	if !strings.Contains(resp.Body.String(), "save_manual_total") {
		t.Fatalf("expected metrics output")
	}
}
