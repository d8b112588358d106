// Package codec reads and writes junctionbox documents in YAML, JSON and the
// legacy XML layout.
package codec

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/phanxgames/junctionbox"
)

// Importer interface for reading documents from a format
type Importer interface {
	Parse(r io.Reader) (junctionbox.Document, error)
	Format() string
}

// Exporter interface for writing documents to a format
type Exporter interface {
	Export(doc junctionbox.Document, w io.Writer) error
	Format() string
}

// Codec both reads and writes one format.
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec for "yaml", "json" or "xml".
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	case "json":
		return NewJSONCodec(), nil
	case "xml":
		return NewXMLCodec(), nil
	}
	return nil, fmt.Errorf("unknown document format %q", format)
}

// ForPath returns the codec matching the file extension of path.
func ForPath(path string) (Codec, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("no extension on %q", path)
	}
	return ForFormat(ext)
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func fromMillis(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}
