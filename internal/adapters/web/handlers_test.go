package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nicnocquee/spanduck/internal/domain"
	"github.com/nicnocquee/spanduck/internal/usecases"
)

// MockImageService is a hand-written ImageService.
type MockImageService struct {
	generateResult *usecases.GenerateResult
	downloadBytes  []byte
	createResult   *domain.GeneratedImage
	listResult     []domain.GeneratedImage
	getResult      *domain.GeneratedImage
	err            error

	lastInput usecases.CreateGeneratedImage
	lastQuery domain.ListQuery
	deletedID uint64
}

func (m *MockImageService) Generate(ctx context.Context, in usecases.CreateGeneratedImage) (*usecases.GenerateResult, error) {
	m.lastInput = in
	return m.generateResult, m.err
}

func (m *MockImageService) Download(ctx context.Context, in usecases.CreateGeneratedImage) ([]byte, *usecases.GenerateResult, error) {
	m.lastInput = in
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.downloadBytes, m.generateResult, nil
}

func (m *MockImageService) Create(ctx context.Context, in usecases.CreateGeneratedImage) (*domain.GeneratedImage, error) {
	m.lastInput = in
	return m.createResult, m.err
}

func (m *MockImageService) List(ctx context.Context, q domain.ListQuery) ([]domain.GeneratedImage, error) {
	m.lastQuery = q
	return m.listResult, m.err
}

func (m *MockImageService) Get(ctx context.Context, id uint64) (*domain.GeneratedImage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.getResult, nil
}

func (m *MockImageService) Delete(ctx context.Context, id uint64) error {
	m.deletedID = id
	return m.err
}

func newTestApp(svc ImageService) *fiber.App {
	app := fiber.New()
	rl := NewRateLimiter(100, time.Minute)
	SetupRoutes(app, NewHandlers(svc, time.Second), rl, RouteOptions{Records: true})
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (int, Response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	var out Response
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("invalid JSON body %q: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

const validBody = `{"type":"twitter","url":"https://twitter.com/acme/status/123","template_id":1,"user_id":"user-1","project_id":7}`

func TestCreateGeneratedImage_Success(t *testing.T) {
	// Arrange
	svc := &MockImageService{createResult: &domain.GeneratedImage{ID: 1, Name: "123_1.png"}}
	app := newTestApp(svc)

	// Act
	status, body := doRequest(t, app, http.MethodPost, "/generated-images", validBody)

	// Assert
	if status != fiber.StatusCreated {
		t.Errorf("status: got %d, want 201", status)
	}
	if body.Data == nil {
		t.Error("data: got nil, want the created record")
	}
	if svc.lastInput.TemplateID != 1 || svc.lastInput.ProjectID != 7 || svc.lastInput.UserID != "user-1" {
		t.Errorf("input: got %+v", svc.lastInput)
	}
}

func TestCreateGeneratedImage_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"type":`},
		{"missing url", `{"type":"twitter","template_id":1,"user_id":"u"}`},
		{"unknown type", `{"type":"facebook","url":"https://example.com","template_id":1,"user_id":"u"}`},
		{"zero template", `{"type":"url","url":"https://example.com","template_id":0,"user_id":"u"}`},
		{"missing user", `{"type":"url","url":"https://example.com","template_id":1}`},
		{"missing project", `{"type":"url","url":"https://example.com","template_id":1,"user_id":"u"}`},
		{"zero project", `{"type":"url","url":"https://example.com","template_id":1,"user_id":"u","project_id":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockImageService{}
			app := newTestApp(svc)

			status, body := doRequest(t, app, http.MethodPost, "/generated-images", tt.body)

			if status != fiber.StatusBadRequest {
				t.Errorf("status: got %d, want 400", status)
			}
			if body.Error == "" {
				t.Error("error: got empty, want a reason")
			}
		})
	}
}

func TestCreateGeneratedImage_ErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"wrong host", domain.ErrTweetHost, fiber.StatusUnprocessableEntity},
		{"template missing", domain.Wrap(domain.ErrNotFound, "render", domain.ErrTemplateNotFound), fiber.StatusUnprocessableEntity},
		{"upstream", domain.Wrap(domain.ErrUpstream, "resolve", fmt.Errorf("timeout")), fiber.StatusInternalServerError},
		{"render", domain.Wrap(domain.ErrRender, "render", fmt.Errorf("chrome died")), fiber.StatusInternalServerError},
		{"store", domain.Wrap(domain.ErrStore, "put", fmt.Errorf("denied")), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&MockImageService{err: tt.err})

			status, body := doRequest(t, app, http.MethodPost, "/generated-images", validBody)

			if status != tt.want {
				t.Errorf("status: got %d, want %d", status, tt.want)
			}
			if body.Message == "" || body.Error == "" {
				t.Errorf("body: got %+v, want message and error", body)
			}
		})
	}
}

func TestListGeneratedImages(t *testing.T) {
	svc := &MockImageService{listResult: []domain.GeneratedImage{{ID: 1}, {ID: 2}}}
	app := newTestApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/generated-images?filter=project_id:3&order=name:asc&from=0&to=9", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	var body ListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if body.Count != 2 {
		t.Errorf("count: got %d, want 2", body.Count)
	}
	if len(svc.lastQuery.Filters) != 1 || !svc.lastQuery.Filters[0].Exact {
		t.Errorf("filters: got %+v", svc.lastQuery.Filters)
	}
	if svc.lastQuery.To == nil || *svc.lastQuery.To != 9 {
		t.Errorf("range: got %+v", svc.lastQuery)
	}
}

func TestListGeneratedImages_InvalidQuery(t *testing.T) {
	tests := []struct {
		name   string
		target string
		svcErr error
	}{
		{"malformed filter", "/generated-images?filter=nocolon", nil},
		{"bad limit", "/generated-images?limit=abc", nil},
		{"unknown column", "/generated-images?filter=secret:x", fmt.Errorf("%w: unknown filter column", domain.ErrValidation)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&MockImageService{err: tt.svcErr})

			status, _ := doRequest(t, app, http.MethodGet, tt.target, "")

			if status != fiber.StatusBadRequest {
				t.Errorf("status: got %d, want 400", status)
			}
		})
	}
}

func TestGetGeneratedImage(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		app := newTestApp(&MockImageService{getResult: &domain.GeneratedImage{ID: 5}})

		status, _ := doRequest(t, app, http.MethodGet, "/generated-images/5", "")

		if status != fiber.StatusOK {
			t.Errorf("status: got %d, want 200", status)
		}
	})

	t.Run("absent", func(t *testing.T) {
		app := newTestApp(&MockImageService{err: fmt.Errorf("generated image 5: %w", domain.ErrNotFound)})

		status, _ := doRequest(t, app, http.MethodGet, "/generated-images/5", "")

		if status != fiber.StatusNotFound {
			t.Errorf("status: got %d, want 404", status)
		}
	})

	t.Run("non numeric id", func(t *testing.T) {
		app := newTestApp(&MockImageService{})

		status, _ := doRequest(t, app, http.MethodGet, "/generated-images/abc", "")

		if status != fiber.StatusBadRequest {
			t.Errorf("status: got %d, want 400", status)
		}
	})
}

func TestDeleteGeneratedImage(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		svc := &MockImageService{}
		app := newTestApp(svc)

		status, _ := doRequest(t, app, http.MethodDelete, "/generated-images/42", "")

		if status != fiber.StatusNoContent {
			t.Errorf("status: got %d, want 204", status)
		}
		if svc.deletedID != 42 {
			t.Errorf("deleted id: got %d, want 42", svc.deletedID)
		}
	})

	t.Run("absent", func(t *testing.T) {
		app := newTestApp(&MockImageService{err: domain.ErrNotFound})

		status, _ := doRequest(t, app, http.MethodDelete, "/generated-images/42", "")

		if status != fiber.StatusNotFound {
			t.Errorf("status: got %d, want 404", status)
		}
	})
}

func TestGenerateImage_ReturnsURL(t *testing.T) {
	svc := &MockImageService{generateResult: &usecases.GenerateResult{ArtifactURL: "https://cdn.example/images/123_1.png"}}
	app := newTestApp(svc)

	status, body := doRequest(t, app, http.MethodGet, "/images?source=https://twitter.com/acme/status/123&type=twitter&templateID=1", "")

	if status != fiber.StatusOK {
		t.Fatalf("status: got %d, want 200", status)
	}
	if body.Data != "https://cdn.example/images/123_1.png" {
		t.Errorf("data: got %v, want artifact URL", body.Data)
	}
	if svc.lastInput.Type != "twitter" || svc.lastInput.TemplateID != 1 {
		t.Errorf("input: got %+v", svc.lastInput)
	}
}

func TestGenerateImage_DefaultTypeIsURL(t *testing.T) {
	svc := &MockImageService{generateResult: &usecases.GenerateResult{ArtifactURL: "https://cdn.example/images/abc_1.png"}}
	app := newTestApp(svc)

	status, _ := doRequest(t, app, http.MethodGet, "/images?source=https://example.com/post&templateID=1", "")

	if status != fiber.StatusOK {
		t.Fatalf("status: got %d, want 200", status)
	}
	if svc.lastInput.Type != "url" {
		t.Errorf("type: got %v, want url", svc.lastInput.Type)
	}
}

func TestGenerateImage_Download_ReturnsPNGBytes(t *testing.T) {
	// Arrange
	svc := &MockImageService{
		downloadBytes:  []byte("\x89PNG"),
		generateResult: &usecases.GenerateResult{FileName: "123_1.png"},
	}
	app := newTestApp(svc)
	req := httptest.NewRequest(http.MethodGet, "/images?source=https://twitter.com/acme/status/123&type=twitter&templateID=1&dl=1", nil)

	// Act
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	// Assert
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type: got %v, want image/png", ct)
	}
	if string(raw) != "\x89PNG" {
		t.Errorf("body: got %q, want %q", raw, "\x89PNG")
	}
}

func TestGenerateImage_Download_NotFound(t *testing.T) {
	app := newTestApp(&MockImageService{err: domain.ErrNotFound})

	status, _ := doRequest(t, app, http.MethodGet, "/images?source=https://example.com&templateID=1&dl=1", "")

	if status != fiber.StatusNotFound {
		t.Errorf("status: got %d, want 404", status)
	}
}

func TestGenerateImage_MissingTemplate(t *testing.T) {
	app := newTestApp(&MockImageService{})

	status, _ := doRequest(t, app, http.MethodGet, "/images?source=https://example.com&type=url", "")

	if status != fiber.StatusBadRequest {
		t.Errorf("status: got %d, want 400", status)
	}
}

func TestRoutes_RecordsDisabled(t *testing.T) {
	app := fiber.New()
	rl := NewRateLimiter(10, time.Minute)
	defer rl.Close()
	SetupRoutes(app, NewHandlers(&MockImageService{}, time.Second), rl, RouteOptions{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/generated-images", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(&MockImageService{})

	for _, path := range []string{"/health", "/metrics"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			t.Fatalf("app.Test(%s) error = %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("%s status: got %d, want 200", path, resp.StatusCode)
		}
	}
}
