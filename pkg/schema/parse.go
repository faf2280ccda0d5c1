package schema

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes raw document text into a Config.
//
// Decoding is strict: unknown fields are rejected, and only the well-known
// scalar and collection types of the schema are accepted (yaml.v3 performs no
// custom tag resolution or code execution for plain struct targets). Parse is
// pure; a malformed document is reported as an error, never a panic, and a
// failed parse is final for the attempt - callers do not retry.
func Parse(text string) (*Config, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("document is empty")
		}
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	// A second document in the same stream is not a valid configuration.
	if err := dec.Decode(new(struct{})); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected trailing document")
	}

	return &cfg, nil
}
