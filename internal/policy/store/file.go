package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"discovery/internal/policy"
	"discovery/pkg/platform/sentinel"
)

// FileSource reads a JSON or YAML document, chosen by file extension.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return "file:" + s.path }

func (s *FileSource) Load(_ context.Context) (policy.Document, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return policy.Document{}, fmt.Errorf("policy file %s: %w", s.path, sentinel.ErrNotFound)
	}
	if err != nil {
		return policy.Document{}, fmt.Errorf("read policy file: %w", err)
	}
	return DecodeDocument(filepath.Ext(s.path), raw)
}

// DecodeDocument decodes raw by format extension (".json", ".yaml", ".yml").
// Unknown fields are rejected so typos in reference data fail at startup.
func DecodeDocument(ext string, raw []byte) (policy.Document, error) {
	var doc policy.Document
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return policy.Document{}, fmt.Errorf("decode json policy: %w", err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return policy.Document{}, fmt.Errorf("decode yaml policy: %w", err)
		}
	default:
		return policy.Document{}, fmt.Errorf("unsupported policy format %q", ext)
	}
	return doc, nil
}
