// Package transport talks to the freshness classification service over HTTP.
package transport

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// File is a picked input: an opaque payload plus its media type.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// ReadFile loads a file from disk. Any type and size is accepted; the media
// type comes from the extension, then from content sniffing.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return NewFile(filepath.Base(path), data), nil
}

// NewFile wraps an in-memory payload, detecting its media type.
func NewFile(name string, data []byte) File {
	mediaType := mime.TypeByExtension(filepath.Ext(name))
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}
	return File{Name: name, MediaType: mediaType, Data: data}
}
