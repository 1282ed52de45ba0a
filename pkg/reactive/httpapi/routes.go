package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-formkit/pkg/reactive"
)

// Mux is the minimal interface required to register a net/http handler. It is
// satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// MountPath returns the full mount path for the update route under basePath.
func MountPath(basePath string, fns ...OptionFn) string {
	opts := NewOptions(fns...)
	return JoinPath(basePath, opts.RoutePath)
}

// RegisterRoutes registers the update handler under basePath on mux.
func RegisterRoutes(mux Mux, basePath string, engine *reactive.Engine, fns ...OptionFn) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("httpapi: missing mux")
	}
	if engine == nil {
		return "", fmt.Errorf("httpapi: missing engine")
	}
	opts := NewOptions(fns...)
	pattern := JoinPath(basePath, opts.RoutePath)
	mux.Handle(pattern, HandlerWithOptions(engine, opts))
	return pattern, nil
}

// JoinPath joins a base path and route path with exactly one slash.
func JoinPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}
