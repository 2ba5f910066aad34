package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Decode parses a document from JSON, or from YAML when the payload is not JSON.
func Decode(data []byte) (*domain.Document, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return decodeJSON(data)
	}
	return DecodeYAML(data)
}

// DecodeYAML parses a YAML document using the same field names as the JSON format.
func DecodeYAML(data []byte) (*domain.Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("yaml to json: %w", err)
	}
	return decodeJSON(buf)
}

// DecodeFile reads a document from disk, choosing the format by extension.
func DecodeFile(path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	case ".json":
		return decodeJSON(data)
	}
	return Decode(data)
}

// EncodeYAML renders a document as YAML.
func EncodeYAML(doc *domain.Document) ([]byte, error) {
	buf, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var raw any
	if err := yaml.Unmarshal(buf, &raw); err != nil {
		return nil, err
	}
	return yaml.Marshal(raw)
}

func decodeJSON(data []byte) (*domain.Document, error) {
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return &doc, nil
}
