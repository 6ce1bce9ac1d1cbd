package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/gebo/internal/comps"
	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/storage"
	"github.com/starford/gebo/internal/testutil"
)

type testEnv struct {
	repo   *comps.Repository
	fs     *storage.FS
	db     *index.DB
	router chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, fs := testutil.TestRepo(t)
	db := testutil.TestDB(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	saver := comps.NewAutosave(repo, 20*time.Millisecond, nil)
	h := NewHandler(repo, saver, db, fs, nil, logger)
	ih := NewImageHandler(fs, logger)

	return &testEnv{
		repo:   repo,
		fs:     fs,
		db:     db,
		router: NewRouter(h, ih, false, "", nil),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestCreateAndGetComp(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "Blade-Ace"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var created CompDetail
	decodeInto(t, w, &created)
	if created.Name != "blade-ace" || created.Display != "Blade-Ace" {
		t.Errorf("created = %+v", created)
	}
	if created.Items == nil || created.Tags == nil {
		t.Error("nil sequences in response")
	}

	w = env.do(t, http.MethodGet, "/comps/blade-ace", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/comps/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCreateCompValidation(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(t, http.MethodPost, "/comps", CreateCompRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty name: status = %d, want 400", w.Code)
	}

	env.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "dup"})
	if w := env.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "DUP"}); w.Code != http.StatusConflict {
		t.Errorf("duplicate: status = %d, want 409", w.Code)
	}
}

func TestListCompsWithFilters(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "blade-ace"})
	env.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "mage-lane"})
	tags := []string{"aggro"}
	env.do(t, http.MethodPatch, "/comps/blade-ace", UpdateCompRequest{Tags: &tags})

	var list CompListResponse
	w := env.do(t, http.MethodGet, "/comps", nil)
	decodeInto(t, w, &list)
	if list.Total != 2 || len(list.Comps) != 2 {
		t.Fatalf("list = %+v", list)
	}
	if list.Revision == "" {
		t.Error("missing revision")
	}

	w = env.do(t, http.MethodGet, "/comps?tag=aggro", nil)
	decodeInto(t, w, &list)
	if list.Total != 1 || list.Comps[0].Name != "blade-ace" {
		t.Errorf("filtered list = %+v", list)
	}

	w = env.do(t, http.MethodGet, "/comps?q=mage", nil)
	decodeInto(t, w, &list)
	if list.Total != 1 || list.Comps[0].Name != "mage-lane" {
		t.Errorf("searched list = %+v", list)
	}
}

func TestUpdateCompFullMutation(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "blade-ace"})

	items := []string{"Sword", "Shield"}
	notes := "<p>plan</p>"
	w := env.do(t, http.MethodPatch, "/comps/blade-ace", UpdateCompRequest{Notes: &notes, Items: &items})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var detail CompDetail
	decodeInto(t, w, &detail)
	if detail.Notes != notes || len(detail.Items) != 2 {
		t.Errorf("detail = %+v", detail)
	}

	// Non-notes updates persist synchronously.
	rec, err := env.repo.Get("blade-ace")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Items) != 2 {
		t.Errorf("items not persisted: %v", rec.Items)
	}
}

func TestUpdateNotesOnlyIsDebounced(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "blade-ace"})

	notes := "<p>debounced over http</p>"
	w := env.do(t, http.MethodPatch, "/comps/blade-ace", UpdateCompRequest{Notes: &notes})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	// In memory immediately.
	rec, _ := env.repo.Get("blade-ace")
	if rec.Notes != notes {
		t.Errorf("notes = %q", rec.Notes)
	}

	// On disk after the quiet period.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, err := env.fs.ReadStore()
		if err == nil && strings.Contains(string(data), "debounced over http") {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("debounced notes never reached disk")
}

func TestRenameComp(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "blade-ace"})
	env.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "taken"})

	w := env.do(t, http.MethodPost, "/comps/blade-ace/rename", RenameCompRequest{NewName: "blade-king"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodGet, "/comps/blade-ace", nil); w.Code != http.StatusNotFound {
		t.Errorf("old name still resolves: %d", w.Code)
	}

	if w := env.do(t, http.MethodPost, "/comps/blade-king/rename", RenameCompRequest{NewName: "taken"}); w.Code != http.StatusConflict {
		t.Errorf("collision: status = %d, want 409", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/comps/ghost/rename", RenameCompRequest{NewName: "x"}); w.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", w.Code)
	}
}

func TestDeleteComp(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "blade-ace"})
	env.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "mage-lane"})

	if w := env.do(t, http.MethodDelete, "/comps/blade-ace", nil); w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}

	// The last remaining comp is protected.
	if w := env.do(t, http.MethodDelete, "/comps/mage-lane", nil); w.Code != http.StatusConflict {
		t.Errorf("last comp: status = %d, want 409", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/comps/ghost", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", w.Code)
	}
}

func TestPlannerEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "blade-ace"})
	items := []string{"Sword", "Shield"}
	env.do(t, http.MethodPatch, "/comps/blade-ace", UpdateCompRequest{Items: &items})
	env.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "mage-lane"})

	var list CompListResponse
	w := env.do(t, http.MethodGet, "/planner?item=Sword&item=Shield", nil)
	decodeInto(t, w, &list)
	if list.Total != 1 || list.Comps[0].Name != "blade-ace" {
		t.Errorf("planner = %+v", list)
	}

	w = env.do(t, http.MethodGet, "/planner?item=Sword&item=Orb", nil)
	decodeInto(t, w, &list)
	if list.Total != 0 {
		t.Errorf("planner = %+v", list)
	}
}

func TestSearchEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "blade-ace"})
	notes := "<p>rush the sword early</p>"
	env.do(t, http.MethodPatch, "/comps/blade-ace", UpdateCompRequest{Notes: &notes, Items: &[]string{}})

	w := env.do(t, http.MethodGet, "/search?q=sword", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Results []index.SearchResult `json:"results"`
	}
	decodeInto(t, w, &resp)
	if len(resp.Results) != 1 || resp.Results[0].Name != "blade-ace" {
		t.Errorf("results = %+v", resp.Results)
	}

	if w := env.do(t, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing q: status = %d, want 400", w.Code)
	}
}

func TestExportImportOverHTTP(t *testing.T) {
	src := newTestEnv(t)
	src.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "blade-ace"})

	w := src.do(t, http.MethodGet, "/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	payload := w.Body.String()

	dst := newTestEnv(t)
	dst.do(t, http.MethodPost, "/comps", CreateCompRequest{Name: "blade-ace"})

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	dst.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp ImportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Comps["blade-ace"] != "blade-ace-imported" {
		t.Errorf("imported as %q", resp.Comps["blade-ace"])
	}

	if w := dst.do(t, http.MethodGet, "/export?comp=ghost", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown comp export: status = %d, want 404", w.Code)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader("not a payload"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestImageSaveAndServe(t *testing.T) {
	env := newTestEnv(t)

	data := base64.StdEncoding.EncodeToString([]byte("pixels"))
	w := env.do(t, http.MethodPost, "/images", ImageSaveRequest{Data: data, Filename: "map.png"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ImageSaveResponse
	decodeInto(t, w, &resp)
	if !resp.Success || resp.Filename != "map.png" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Path != "../data/images/map.png" {
		t.Errorf("path = %q", resp.Path)
	}

	// Same filename again gets a uniquified name.
	w = env.do(t, http.MethodPost, "/images", ImageSaveRequest{Data: data, Filename: "map.png"})
	decodeInto(t, w, &resp)
	if resp.Filename == "map.png" {
		t.Error("collision not uniquified")
	}

	got := env.do(t, http.MethodGet, "/images/map.png", nil)
	if got.Code != http.StatusOK || got.Body.String() != "pixels" {
		t.Errorf("serve: %d %q", got.Code, got.Body.String())
	}
	if ct := got.Header().Get("Content-Type"); !strings.HasPrefix(ct, "image/png") {
		t.Errorf("content type = %q", ct)
	}

	if w := env.do(t, http.MethodGet, "/images/ghost.png", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing image: status = %d", w.Code)
	}
}

func TestImageSaveGeneratesFilename(t *testing.T) {
	env := newTestEnv(t)

	data := base64.StdEncoding.EncodeToString([]byte("pixels"))
	body, _ := json.Marshal(ImageSaveRequest{Data: data})
	req := httptest.NewRequest(http.MethodPost, "/images", bytes.NewReader(body))
	req.Header.Set("X-Image-Type", "image/jpeg")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	var resp ImageSaveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.Filename, "pasted-") || !strings.HasSuffix(resp.Filename, ".jpg") {
		t.Errorf("filename = %q", resp.Filename)
	}
}

func TestImageSaveValidation(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(t, http.MethodPost, "/images", ImageSaveRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty data: status = %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/images", ImageSaveRequest{Data: "%%%"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad base64: status = %d", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	repo, fs := testutil.TestRepo(t)
	db := testutil.TestDB(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	saver := comps.NewAutosave(repo, time.Hour, nil)
	h := NewHandler(repo, saver, db, fs, nil, logger)
	router := NewRouter(h, NewImageHandler(fs, logger), true, "secret", nil)

	req := httptest.NewRequest(http.MethodGet, "/comps", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/comps", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/comps", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", w.Code)
	}
}
