package dataset

import (
	"context"
	"os"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Source supplies the customer graph from some backing resource.
// Name identifies the resource in logs and error messages.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Customer, error)
}

// FileSource reads the dataset from a JSON document on disk. The document has
// a single top-level "customers" array; see model.go for the entity shapes.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return "file:" + s.path }

func (s *FileSource) Load(ctx context.Context) ([]Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrap(err, "reading dataset document")
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding dataset document")
	}
	return doc.Customers, nil
}
