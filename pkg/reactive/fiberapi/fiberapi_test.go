package fiberapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/reactive"
	"github.com/goliatone/go-formkit/pkg/registry"
)

func setupApp(t *testing.T, fns ...OptionFn) *fiber.App {
	t.Helper()
	reg := registry.New()
	reg.MustRegister("contact", func(context.Context, *formstate.State) (*model.Schema, error) {
		return model.NewSchema("contact",
			model.Text("name"),
			model.Select("topic").StaticOptions(
				model.Option{Value: "sales", Label: "Sales"},
				model.Option{Value: "support", Label: "Support"},
			),
		), nil
	})
	app := fiber.New()
	if err := Register(app, reactive.New(reactive.WithRegistry(reg)), fns...); err != nil {
		t.Fatalf("register: %v", err)
	}
	return app
}

func do(t *testing.T, app *fiber.App, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return resp, payload
}

func TestUpdate(t *testing.T) {
	app := setupApp(t)
	resp, payload := do(t, app, "/_formkit/update", `{"schemaId":"contact","formState":{"name":"Ada"},"requestToken":"t9"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, payload)
	}
	if payload["requestToken"] != "t9" {
		t.Fatalf("expected token echo, got %v", payload["requestToken"])
	}
	if resp.Header.Get(fiber.HeaderXRequestID) == "" {
		t.Fatalf("expected request id header")
	}
	schema, _ := payload["schema"].([]any)
	if len(schema) != 2 {
		t.Fatalf("expected two fields, got %v", payload["schema"])
	}
}

func TestUpdate_Errors(t *testing.T) {
	app := setupApp(t)
	cases := []struct {
		body string
		code int
	}{
		{body: `nope`, code: http.StatusBadRequest},
		{body: `{}`, code: http.StatusBadRequest},
		{body: `{"schemaId":"missing"}`, code: http.StatusNotFound},
	}
	for _, tc := range cases {
		resp, payload := do(t, app, "/_formkit/update", tc.body)
		if resp.StatusCode != tc.code || payload["error"] == "" {
			t.Fatalf("body %q: expected %d with error, got %d %v", tc.body, tc.code, resp.StatusCode, payload)
		}
	}
}

func TestSearch(t *testing.T) {
	app := setupApp(t)
	resp, payload := do(t, app, "/_select/search", `{"schemaId":"contact","field":"topic","search":"sup"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, payload)
	}
	data, _ := payload["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("expected one match, got %v", payload["data"])
	}
	if first, _ := data[0].(map[string]any); first["value"] != "support" {
		t.Fatalf("unexpected option %v", data[0])
	}
}

func TestMiddlewareRunsFirst(t *testing.T) {
	app := setupApp(t, WithMiddleware(func(c *fiber.Ctx) error {
		return c.Status(http.StatusUnauthorized).JSON(reactive.ErrorBody{Error: "unauthorized"})
	}))
	resp, _ := do(t, app, "/_formkit/update", `{"schemaId":"contact"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
