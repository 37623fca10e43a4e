package layout

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/photocard/pkg/errors"
)

// Parse reads a layout document, applies defaults and validates it.
//
// Documents starting with '{' are decoded as JSON, anything else as YAML.
// Every failure is an *errors.Error with code INVALID_LAYOUT.
func Parse(data []byte) (Config, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Config{}, errors.Config("layout document is empty")
	}

	var cfg Config
	if data[0] == '{' {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidLayout, err, "decode layout JSON")
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidLayout, err, "decode layout YAML")
		}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal renders c as indented JSON, the storage form used by templates.
func Marshal(c Config) ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
