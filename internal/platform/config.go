package platform

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML config file.
//
//	pattern: "actions/**/*.yaml"
//	strict: true
//	event_buffer: 256
//	effects: true
//	fetch_ttl: 10m
//	fetch_timeout: 5s
type Config struct {
	Pattern      string        `yaml:"pattern"`
	Strict       *bool         `yaml:"strict"`
	EventBuffer  int           `yaml:"event_buffer"`
	Debounce     time.Duration `yaml:"debounce"`
	Effects      *bool         `yaml:"effects"`
	FetchTTL     time.Duration `yaml:"fetch_ttl"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// LoadConfig reads a config file. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes config file content. Empty content is an empty config.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if c.EventBuffer < 0 {
		return Config{}, fmt.Errorf("invalid config: event_buffer must not be negative")
	}
	return c, nil
}

// Options converts the fields that are set into options. Options given
// after these override them.
func (c Config) Options() []Option {
	var opts []Option
	if c.Pattern != "" {
		opts = append(opts, WithPattern(c.Pattern))
	}
	if c.Strict != nil {
		opts = append(opts, WithStrict(*c.Strict))
	}
	if c.EventBuffer > 0 {
		opts = append(opts, WithEventBuffer(c.EventBuffer))
	}
	if c.Debounce > 0 {
		opts = append(opts, WithDebounce(c.Debounce))
	}
	if c.Effects != nil {
		opts = append(opts, WithEffects(*c.Effects))
	}
	if c.FetchTTL != 0 {
		opts = append(opts, WithFetchTTL(c.FetchTTL))
	}
	if c.FetchTimeout > 0 {
		opts = append(opts, WithFetchTimeout(c.FetchTimeout))
	}
	return opts
}
