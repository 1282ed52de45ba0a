package searchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/functions"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/reactive"
	"github.com/goliatone/go-formkit/pkg/registry"
)

func testEngine() *reactive.Engine {
	fns := functions.NewRegistry()
	fns.MustRegisterCompute("cities", func(_ context.Context, get formstate.Getter, _ formstate.Setter) (any, error) {
		prefix, _ := get("region").(string)
		out := make([]string, 0, 300)
		for i := 0; i < 300; i++ {
			out = append(out, fmt.Sprintf("%s city %03d", prefix, i))
		}
		return out, nil
	}, "region")

	reg := registry.New()
	reg.MustRegister("travel", func(context.Context, *formstate.State) (*model.Schema, error) {
		return model.NewSchema("travel",
			model.Text("region"),
			model.Select("city").Computed("cities").Set("searchable", true),
			model.Select("class").StaticOptions(
				model.Option{Value: "eco", Label: "Economy"},
				model.Option{Value: "biz", Label: "Business"},
				model.Option{Value: "first", Label: "First"},
			),
		), nil
	})
	return reactive.New(reactive.WithRegistry(reg), reactive.WithFunctions(fns))
}

type searchResponse struct {
	Data    []model.Option `json:"data"`
	HasMore bool           `json:"hasMore"`
	Error   string         `json:"error"`
}

func post(t *testing.T, h http.Handler, body string) (int, searchResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/_select/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload searchResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return rec.Code, payload
}

func TestHandler_Search(t *testing.T) {
	h := Handler(testEngine())
	code, payload := post(t, h, `{"schemaId":"travel","field":"class","search":"s"}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", code, payload.Error)
	}
	want := []model.Option{{Value: "biz", Label: "Business"}, {Value: "first", Label: "First"}}
	if diff := cmp.Diff(want, payload.Data); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if payload.HasMore {
		t.Fatalf("expected a complete page")
	}
}

func TestHandler_ClampsLimitAndUsesState(t *testing.T) {
	h := Handler(testEngine(), WithMaxLimit(20))
	code, payload := post(t, h, `{"schemaId":"travel","field":"city","search":"north","limit":500,"formState":{"region":"north"}}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", code, payload.Error)
	}
	if len(payload.Data) != 20 || !payload.HasMore {
		t.Fatalf("expected 20 options with more, got %d (hasMore=%v)", len(payload.Data), payload.HasMore)
	}
	if payload.Data[0].Label != "north city 000" {
		t.Fatalf("unexpected first option %+v", payload.Data[0])
	}
}

func TestHandler_Errors(t *testing.T) {
	h := Handler(testEngine())
	cases := []struct {
		name string
		body string
		code int
	}{
		{name: "malformed", body: `[`, code: http.StatusBadRequest},
		{name: "unknown schema", body: `{"schemaId":"x","field":"city"}`, code: http.StatusNotFound},
		{name: "unknown field", body: `{"schemaId":"travel","field":"nope"}`, code: http.StatusNotFound},
		{name: "no options", body: `{"schemaId":"travel","field":"region"}`, code: http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, payload := post(t, h, tc.body)
			if code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, code)
			}
			if payload.Error == "" {
				t.Fatalf("expected error message")
			}
		})
	}
}

func TestClamp(t *testing.T) {
	cases := []struct{ limit, max, want int }{
		{0, 100, 0},
		{-3, 100, 0},
		{10, 100, 10},
		{500, 100, 100},
	}
	for _, tc := range cases {
		if got := Clamp(tc.limit, tc.max); got != tc.want {
			t.Fatalf("Clamp(%d, %d) = %d, want %d", tc.limit, tc.max, got, tc.want)
		}
	}
}

func TestRegisterRoutes(t *testing.T) {
	pattern, err := RegisterRoutes(http.NewServeMux(), "/api", testEngine())
	if err != nil || pattern != "/api/_select/search" {
		t.Fatalf("unexpected registration %q %v", pattern, err)
	}
}
