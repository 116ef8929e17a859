// Package catalog loads, watches and exports the YAML card catalog used to
// seed the store.
package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/starford/strength/internal/models"
)

// File is the on-disk catalog document.
type File struct {
	Cards []models.Card `yaml:"cards"`
}

// Parse decodes a catalog document. Unknown keys are rejected so typos in
// hand-edited catalogs surface instead of silently dropping data.
func Parse(data []byte) ([]models.Card, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return []models.Card{}, nil
		}
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if f.Cards == nil {
		f.Cards = []models.Card{}
	}
	return f.Cards, nil
}

// Marshal encodes cards as a catalog document.
func Marshal(cards []models.Card) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(File{Cards: cards}); err != nil {
		return nil, fmt.Errorf("catalog: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("catalog: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// checksum returns the hex-encoded SHA-256 digest of data.
func checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
