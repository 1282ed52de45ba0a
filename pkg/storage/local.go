package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Local serves files from a public base URL such as "/storage" or
// "https://cdn.example.com/uploads".
type Local struct {
	BaseURL string
}

// NewLocal returns a local disk rooted at baseURL.
func NewLocal(baseURL string) *Local {
	return &Local{BaseURL: strings.TrimRight(baseURL, "/")}
}

// URL joins the escaped key onto the base URL.
func (l *Local) URL(_ context.Context, key string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("storage: key is required")
	}
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		if segment == ".." {
			return "", fmt.Errorf("storage: invalid key %q", key)
		}
		segments[i] = url.PathEscape(segment)
	}
	return l.BaseURL + "/" + strings.Join(segments, "/"), nil
}
