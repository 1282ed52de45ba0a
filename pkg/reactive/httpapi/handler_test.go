package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-formkit/pkg/entities"
	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/reactive"
	"github.com/goliatone/go-formkit/pkg/registry"
	"github.com/goliatone/go-formkit/pkg/resolver"
	"github.com/goliatone/go-formkit/pkg/serialize"
)

func testEngine() *reactive.Engine {
	reg := registry.New()
	reg.MustRegister("contact", func(context.Context, *formstate.State) (*model.Schema, error) {
		return model.NewSchema("contact", model.Text("name"), model.Text("email").Set("type", "email")), nil
	})
	return reactive.New(reactive.WithRegistry(reg))
}

type updateResponse struct {
	Schema       []map[string]any `json:"schema"`
	Data         map[string]any   `json:"data"`
	Affected     []string         `json:"affected"`
	Changed      []string         `json:"changed"`
	RequestToken string           `json:"requestToken"`
	Error        string           `json:"error"`
}

func post(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, updateResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/_formkit/update", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload updateResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return rec, payload
}

func TestHandler_Update(t *testing.T) {
	h := Handler(testEngine())
	rec, payload := post(t, h, `{"schemaId":"contact","formState":{"name":"Jane"},"requestToken":"r1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, payload.Error)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content-type, got %q", ct)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id")
	}
	if len(payload.Schema) != 2 || payload.Schema[0]["value"] != "Jane" {
		t.Fatalf("unexpected schema %#v", payload.Schema)
	}
	if payload.RequestToken != "r1" || payload.Data["name"] != "Jane" {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if payload.Affected == nil || payload.Changed == nil {
		t.Fatalf("affected and changed must be arrays")
	}
}

func TestHandler_ErrorStatuses(t *testing.T) {
	h := Handler(testEngine())
	cases := []struct {
		name string
		body string
		code int
	}{
		{name: "malformed body", body: `{`, code: http.StatusBadRequest},
		{name: "missing schema id", body: `{"formState":{}}`, code: http.StatusBadRequest},
		{name: "unknown schema", body: `{"schemaId":"nope"}`, code: http.StatusNotFound},
		{name: "unknown target", body: `{"schemaId":"contact","target":"pdf"}`, code: http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, payload := post(t, h, tc.body)
			if rec.Code != tc.code {
				t.Fatalf("expected status %d, got %d", tc.code, rec.Code)
			}
			if payload.Error == "" {
				t.Fatalf("expected error message")
			}
		})
	}
}

func TestHandler_MalformedStateStillRenders(t *testing.T) {
	rec, payload := post(t, Handler(testEngine()), `{"schemaId":"contact","formState":"not-an-object"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if len(payload.Data) != 0 {
		t.Fatalf("expected empty data, got %#v", payload.Data)
	}
}

func TestHandler_FailingStoreYieldsEmptyOptions(t *testing.T) {
	reg := registry.New()
	reg.MustRegister("task", func(context.Context, *formstate.State) (*model.Schema, error) {
		return model.NewSchema("task",
			model.Text("title"),
			model.Select("owner").Relationship("users", "name"),
		), nil
	})
	store := entities.StoreFunc(func(context.Context, *entities.Query) ([]entities.Record, error) {
		return nil, errors.New("connection refused")
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := reactive.New(
		reactive.WithRegistry(reg),
		reactive.WithLogger(logger),
		reactive.WithSerializer(serialize.New(serialize.WithResolver(
			resolver.New(resolver.WithStore(store), resolver.WithLogger(logger)),
		))),
	)

	rec, payload := post(t, Handler(engine), `{"schemaId":"task","formState":{"title":"Ship","owner":3},"changedField":"title"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, payload.Error)
	}
	if len(payload.Schema) != 2 {
		t.Fatalf("unexpected schema %#v", payload.Schema)
	}
	options, ok := payload.Schema[1]["options"].([]any)
	if !ok || len(options) != 0 {
		t.Fatalf("expected owner options to be an empty array, got %#v", payload.Schema[1]["options"])
	}
	if payload.Schema[0]["value"] != "Ship" {
		t.Fatalf("other fields must still render, got %#v", payload.Schema[0])
	}
}

func TestHandler_GuardAndMethod(t *testing.T) {
	h := Handler(testEngine(), WithGuard(func(*http.Request) error {
		return reactive.StatusError{Code: http.StatusUnauthorized}
	}))
	rec, _ := post(t, h, `{"schemaId":"contact"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}

	forbidden := Handler(testEngine(), WithGuard(func(*http.Request) error { return errors.New("no") }))
	rec, _ = post(t, forbidden, `{"schemaId":"contact"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/_formkit/update", nil)
	req.Header.Set("X-Request-ID", "abc")
	get := httptest.NewRecorder()
	Handler(testEngine()).ServeHTTP(get, req)
	if get.Code != http.StatusMethodNotAllowed || get.Header().Get("X-Request-ID") != "abc" {
		t.Fatalf("expected 405 with echoed request id, got %d %q", get.Code, get.Header().Get("X-Request-ID"))
	}
}

func TestRegisterRoutes(t *testing.T) {
	mux := http.NewServeMux()
	pattern, err := RegisterRoutes(mux, "/admin/", testEngine())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if pattern != "/admin/_formkit/update" {
		t.Fatalf("unexpected pattern %q", pattern)
	}
	if got := MountPath("", WithRoutePath("forms/update")); got != "/forms/update" {
		t.Fatalf("unexpected mount path %q", got)
	}
	if _, err := RegisterRoutes(nil, "", testEngine()); err == nil {
		t.Fatalf("expected missing mux error")
	}
}
