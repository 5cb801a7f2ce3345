package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tinylink-dev/tinylink/internal/app/model"
	"github.com/tinylink-dev/tinylink/internal/app/service"
	"github.com/tinylink-dev/tinylink/internal/app/store"
)

func newTestAPI(t *testing.T) (*fiber.App, *service.Registry) {
	t.Helper()

	registry, err := service.NewRegistry(context.Background(), store.NewMemoryStore(), service.RegistryOptions{})
	if err != nil {
		t.Fatalf("NewRegistry error: %v", err)
	}

	app := fiber.New()
	NewAPIHandler(APIDeps{Registry: registry}).Register(app)
	return app, registry
}

func postLink(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/link", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	return resp
}

func decodeLink(t *testing.T, resp *http.Response) model.Link {
	t.Helper()
	var link model.Link
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return link
}

func TestAPI_CreateLink(t *testing.T) {
	app, _ := newTestAPI(t)

	resp := postLink(t, app, `{"targetUrl":"https://a.com"}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	link := decodeLink(t, resp)
	if len(link.Code) != 6 {
		t.Errorf("code = %q, want 6 generated chars", link.Code)
	}
	if link.Clicks != 0 {
		t.Errorf("clicks = %d, want 0", link.Clicks)
	}
	if link.TargetURL != "https://a.com" {
		t.Errorf("target_url = %q", link.TargetURL)
	}
}

func TestAPI_CreateLinkCustomCode(t *testing.T) {
	app, _ := newTestAPI(t)

	resp := postLink(t, app, `{"targetUrl":"https://a.com","code":"my-code"}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if link := decodeLink(t, resp); link.Code != "my-code" {
		t.Errorf("code = %q, want my-code", link.Code)
	}
}

func TestAPI_CreateLinkInvalid(t *testing.T) {
	app, _ := newTestAPI(t)

	cases := []struct {
		name string
		body string
	}{
		{"bad scheme", `{"targetUrl":"ftp://a.com"}`},
		{"not a url", `{"targetUrl":"nope"}`},
		{"code too short", `{"targetUrl":"https://a.com","code":"ab"}`},
		{"code bad charset", `{"targetUrl":"https://a.com","code":"a!b"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if resp := postLink(t, app, tc.body); resp.StatusCode != fiber.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestAPI_CreateLinkDuplicateTarget(t *testing.T) {
	app, _ := newTestAPI(t)

	first := decodeLink(t, postLink(t, app, `{"targetUrl":"https://example.com"}`))

	resp := postLink(t, app, `{"targetUrl":"https://example.com"}`)
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode conflict body: %v", err)
	}
	if body.Code != first.Code {
		t.Errorf("conflict code = %q, want %q", body.Code, first.Code)
	}
}

func TestAPI_CreateLinkDuplicateCode(t *testing.T) {
	app, _ := newTestAPI(t)

	if resp := postLink(t, app, `{"targetUrl":"https://a.com","code":"taken"}`); resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("first status = %d, want 201", resp.StatusCode)
	}
	if resp := postLink(t, app, `{"targetUrl":"https://b.com","code":"taken"}`); resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("second status = %d, want 409", resp.StatusCode)
	}
}

func TestAPI_ListNewestFirst(t *testing.T) {
	app, registry := newTestAPI(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := registry.Create(ctx, fmt.Sprintf("https://site-%d.com", i), ""); err != nil {
			t.Fatalf("Create error: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/link", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var links []model.Link
	if err := json.NewDecoder(resp.Body).Decode(&links); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(links) != 3 {
		t.Fatalf("len = %d, want 3", len(links))
	}
	if links[0].TargetURL != "https://site-2.com" {
		t.Errorf("first item %q, want newest", links[0].TargetURL)
	}
}

func TestAPI_GetLink(t *testing.T) {
	app, registry := newTestAPI(t)

	link, err := registry.Create(context.Background(), "https://a.com", "known1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/link/"+link.Code, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/link/missing", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAPI_DeleteIdempotent(t *testing.T) {
	app, registry := newTestAPI(t)

	link, err := registry.Create(context.Background(), "https://a.com", "")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/api/link/"+link.Code, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test error: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("delete #%d status = %d, want 200", i+1, resp.StatusCode)
		}
	}
}
