package schemagen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZyrusAlvez/Schema-Generator/schema"
)

// Document is one input document. Name is the file name the policy
// configuration is resolved against.
type Document struct {
	Name   string
	Format schema.Format
	Data   []byte
}

// JSONBytes returns a JSON document named name.
func JSONBytes(name string, data []byte) Document {
	return Document{Name: name, Format: schema.FormatJSON, Data: data}
}

// XMLBytes returns an XML document named name.
func XMLBytes(name string, data []byte) Document {
	return Document{Name: name, Format: schema.FormatXML, Data: data}
}

// LoadDocument reads the file at path. The format follows the extension and
// Name is the base name.
func LoadDocument(path string) (Document, error) {
	f, ok := schema.FormatFromFilename(path)
	if !ok {
		return Document{}, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	return Document{Name: filepath.Base(path), Format: f, Data: b}, nil
}
