package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetup_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), "", "formkit")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestMiddleware_RecordsStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := NewProvider("formkit-test", sdktrace.WithSpanProcessor(recorder))

	h := Middleware(provider, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/_formkit/update", nil))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Name() != "http.request" {
		t.Fatalf("unexpected span name %q", spans[0].Name())
	}
	var status int64
	for _, attr := range spans[0].Attributes() {
		if attr.Key == "http.status_code" {
			status = attr.Value.AsInt64()
		}
	}
	if status != http.StatusTeapot {
		t.Fatalf("expected status attribute 418, got %d", status)
	}
}
