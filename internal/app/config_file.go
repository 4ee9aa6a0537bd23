package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig mirrors the YAML config file. Pointer fields distinguish
// "absent" from a zero value so command-line flags can win only when the
// user actually set them.
type FileConfig struct {
	Input  string `yaml:"input"`
	Output struct {
		JSON string `yaml:"json"`
		Text string `yaml:"text"`
	} `yaml:"output"`
	// Timeout and Delay are in seconds; Delay accepts fractions.
	Timeout  *int     `yaml:"timeout"`
	Delay    *float64 `yaml:"delay"`
	Validate *bool    `yaml:"validate"`
	Search   struct {
		Enable *bool  `yaml:"enable"`
		Max    *int   `yaml:"max"`
		File   string `yaml:"file"`
	} `yaml:"search"`
	Searx struct {
		URL       string `yaml:"url"`
		Key       string `yaml:"key"`
		UserAgent string `yaml:"ua"`
	} `yaml:"searx"`
	Segment struct {
		Fallback *bool `yaml:"fallback"`
	} `yaml:"segment"`
	Verbose *bool `yaml:"verbose"`
}

// LoadConfigFile reads and decodes a YAML config file. Unknown keys are
// rejected so typos surface instead of being silently ignored.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}
