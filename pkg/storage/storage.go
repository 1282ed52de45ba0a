// Package storage turns stored file keys into URLs for file fields. Uploads
// and deletes are handled by the host application; the serializer only reads.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

var ErrUnknownDisk = errors.New("storage: unknown disk")

// Disk resolves a stored key into a URL a client can fetch.
type Disk interface {
	URL(ctx context.Context, key string) (string, error)
}

// DiskFunc adapts a function into a Disk.
type DiskFunc func(ctx context.Context, key string) (string, error)

// URL calls the underlying function.
func (fn DiskFunc) URL(ctx context.Context, key string) (string, error) {
	return fn(ctx, key)
}

// File describes a stored upload as rendered to clients.
type File struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size,omitempty"`
}

// Disks is a named set of disks.
type Disks struct {
	mu    sync.RWMutex
	disks map[string]Disk
}

// NewDisks creates an empty disk set.
func NewDisks() *Disks {
	return &Disks{disks: make(map[string]Disk)}
}

// Register adds a disk. Duplicate names return an error.
func (d *Disks) Register(name string, disk Disk) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("storage: disk name is required")
	}
	if disk == nil {
		return fmt.Errorf("storage: disk %q is nil", name)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.disks[name]; exists {
		return fmt.Errorf("storage: disk %q already registered", name)
	}
	d.disks[name] = disk
	return nil
}

// Disk returns a disk by name.
func (d *Disks) Disk(name string) (Disk, error) {
	if d == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownDisk, name)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	disk, ok := d.disks[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownDisk, name)
	}
	return disk, nil
}

// Names returns the registered disk names in order.
func (d *Disks) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.disks))
	for name := range d.disks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Files resolves the value of a file field. Value may be a key, an object
// with key/name/size or a list of either.
func (d *Disks) Files(ctx context.Context, diskName string, value any) ([]File, error) {
	refs := references(value)
	if len(refs) == 0 {
		return []File{}, nil
	}
	disk, err := d.Disk(diskName)
	if err != nil {
		return nil, err
	}
	out := make([]File, 0, len(refs))
	for _, ref := range refs {
		url, err := disk.URL(ctx, ref.Key)
		if err != nil {
			return nil, fmt.Errorf("storage: url for %q: %w", ref.Key, err)
		}
		ref.URL = url
		out = append(out, ref)
	}
	return out, nil
}

func references(value any) []File {
	var out []File
	switch v := value.(type) {
	case string:
		if key := strings.TrimSpace(v); key != "" {
			out = append(out, File{Key: key, Name: path.Base(key)})
		}
	case map[string]any:
		key, _ := v["key"].(string)
		if key == "" {
			key, _ = v["path"].(string)
		}
		if key == "" {
			return nil
		}
		f := File{Key: key, Name: path.Base(key)}
		if name, ok := v["name"].(string); ok && name != "" {
			f.Name = name
		}
		switch size := v["size"].(type) {
		case float64:
			f.Size = int64(size)
		case int:
			f.Size = int64(size)
		case int64:
			f.Size = size
		}
		out = append(out, f)
	case []any:
		for _, item := range v {
			out = append(out, references(item)...)
		}
	case []string:
		for _, item := range v {
			out = append(out, references(item)...)
		}
	}
	return out
}
