package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// fileDocument is the YAML layout of a catalog file:
//
//	products:
//	  - name: Foo
//	    variants:
//	      - name: V1
//	        description: small
//	        price: 100
type fileDocument struct {
	Products []ProductSpec `yaml:"products"`
}

// FileLoader reads the catalog from a YAML file.
type FileLoader struct {
	Path string
}

// Load implements Loader.
func (l FileLoader) Load(ctx context.Context, dst *Catalog) error {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", l.Path, err)
	}
	specs, err := DecodeYAML(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("catalog: parse %s: %w", l.Path, err)
	}
	return Fill(ctx, dst, "file", func(_ context.Context, scratch *Catalog) error {
		return Build(scratch, specs)
	})
}

// DecodeYAML parses a catalog document. Unknown fields are rejected.
func DecodeYAML(r io.Reader) ([]ProductSpec, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc fileDocument
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	return doc.Products, nil
}
