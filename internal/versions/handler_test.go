package versions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-workspace/internal/shared/access"
)

type ownerOnly struct {
	owner string
}

func (o ownerOnly) Authorize(_ context.Context, userID, resumeID string) error {
	if resumeID == "missing" {
		return access.ErrResumeNotFound
	}
	if userID != o.owner {
		return access.ErrForbidden
	}
	return nil
}

func setupRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(0)
	h := NewHandler(svc, ownerOnly{owner: "guest:g1"})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "guest:"+c.GetHeader("X-Guest-Id"))
		c.Next()
	})
	h.RegisterRoutes(r.Group("/api/v1"))
	return r, svc
}

func doRequest(r *gin.Engine, method, path, guest, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Guest-Id", guest)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandlerListNewestFirst(t *testing.T) {
	r, svc := setupRouter(t)
	ctx := context.Background()
	svc.CreateVersion(ctx, CreateInput{ResumeID: "r1", Content: "one"})
	svc.CreateVersion(ctx, CreateInput{ResumeID: "r1", Content: "two"})

	resp := doRequest(r, http.MethodGet, "/api/v1/resumes/r1/versions", "g1", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Items []Version `json:"items"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Items) != 2 || payload.Items[0].Label != "Version 2" {
		t.Fatalf("unexpected items %+v", payload.Items)
	}
}

func TestHandlerAccess(t *testing.T) {
	r, svc := setupRouter(t)
	v, _, _ := svc.CreateVersion(context.Background(), CreateInput{ResumeID: "r1", Content: "one"})

	if resp := doRequest(r, http.MethodGet, "/api/v1/versions/"+v.ID, "intruder", ""); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	if resp := doRequest(r, http.MethodGet, "/api/v1/resumes/missing/versions", "g1", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if resp := doRequest(r, http.MethodGet, "/api/v1/versions/nope", "g1", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown version, got %d", resp.Code)
	}
}

func TestHandlerRenameDeleteCompare(t *testing.T) {
	r, svc := setupRouter(t)
	ctx := context.Background()
	a, _, _ := svc.CreateVersion(ctx, CreateInput{ResumeID: "r1", Content: "<p>Go</p>"})
	b, _, _ := svc.CreateVersion(ctx, CreateInput{ResumeID: "r1", Content: "<p>Go Rust</p>"})

	resp := doRequest(r, http.MethodPatch, "/api/v1/versions/"+a.ID, "g1", `{"label":"Submitted to Acme"}`)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "Submitted to Acme") {
		t.Fatalf("rename: %d %s", resp.Code, resp.Body.String())
	}
	if resp := doRequest(r, http.MethodPatch, "/api/v1/versions/"+a.ID, "g1", `{"label":""}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty label, got %d", resp.Code)
	}

	resp = doRequest(r, http.MethodGet, "/api/v1/versions/"+a.ID+"/compare/"+b.ID, "g1", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"additions":1`) {
		t.Fatalf("compare: %d %s", resp.Code, resp.Body.String())
	}

	if resp := doRequest(r, http.MethodDelete, "/api/v1/versions/"+b.ID, "g1", ""); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp := doRequest(r, http.MethodGet, "/api/v1/versions/"+b.ID, "g1", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}
