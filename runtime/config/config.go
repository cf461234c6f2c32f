// Package config loads the svelteparse.yaml project file.
//
// The file is validated against an embedded JSON Schema before it is decoded,
// so every error names the offending field. Missing fields keep their
// defaults.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/aledsdavies/svelteparse/core/invariant"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// FileName is the project file looked up by Find.
const FileName = "svelteparse.yaml"

// DefaultSvelteVersion is the language version assumed without a config.
const DefaultSvelteVersion = "v5.0.0"

// Whitespace policies.
const (
	WhitespaceWarning = "warning"
	WhitespaceError   = "error"
	WhitespaceIgnore  = "ignore"
)

// Config is the decoded project configuration.
type Config struct {
	// Svelte is the targeted language version, "5.0.0" or "v5.0.0".
	Svelte string `yaml:"svelte"`
	// Language is the fallback expression dialect: auto, js or ts.
	Language           string     `yaml:"language"`
	MaxEachTransitions int        `yaml:"maxEachTransitions"`
	Whitespace         string     `yaml:"whitespace"`
	Directives         Directives `yaml:"directives"`

	// Path is the file the config was loaded from, if any.
	Path string `yaml:"-"`
}

// Directives configures directive validation.
type Directives struct {
	StrictTargets bool `yaml:"strictTargets"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Svelte:             DefaultSvelteVersion,
		Language:           "auto",
		MaxEachTransitions: 1000,
		Whitespace:         WhitespaceWarning,
		Directives:         Directives{StrictTargets: true},
	}
}

// LanguageMode returns the configured fallback mode. "auto" and values
// that never went through Parse are ModeUnset.
func (c *Config) LanguageMode() lexer.LanguageMode {
	mode, err := lexer.ParseLanguageMode(c.Language)
	if err != nil {
		return lexer.ModeUnset
	}
	return mode
}

// AtLeast reports whether the configured Svelte version is v or newer.
func (c *Config) AtLeast(v string) bool {
	return semver.Compare(CanonicalVersion(c.Svelte), CanonicalVersion(v)) >= 0
}

// CanonicalVersion adds the "v" prefix semver expects.
func CanonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

//go:embed schema.json
var schemaJSON string

const schemaURL = "schema://svelteparse.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
)

func compiledSchema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true
		if compiler.Formats == nil {
			compiler.Formats = make(map[string]func(interface{}) bool)
		}
		compiler.Formats["semver"] = func(v interface{}) bool {
			s, ok := v.(string)
			if !ok {
				return true // Type validation happens separately
			}
			return semver.IsValid(CanonicalVersion(s))
		}
		compiler.LoadURL = func(url string) (io.ReadCloser, error) {
			return nil, fmt.Errorf("remote $ref not allowed: %s", url)
		}
		invariant.ExpectNoError(compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)), "add config schema")
		var err error
		schema, err = compiler.Compile(schemaURL)
		invariant.ExpectNoError(err, "compile config schema")
	})
	return schema
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Parse decodes and validates a YAML document. An empty document yields the
// defaults.
func Parse(data []byte) (*Config, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	cfg := Default()
	if doc == nil {
		return cfg, nil
	}

	// The schema validator works on JSON values; round-trip to get them.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := compiledSchema().Validate(value); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return nil, fmt.Errorf("%w: %s", ErrInvalid, describe(ve))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cfg, nil
}

// describe flattens a validation error to its most specific causes.
func describe(ve *jsonschema.ValidationError) string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return fmt.Sprintf("%s: %s", loc, ve.Message)
	}
	parts := make([]string, 0, len(ve.Causes))
	for _, c := range ve.Causes {
		parts = append(parts, describe(c))
	}
	return strings.Join(parts, "; ")
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Find walks up from dir looking for FileName. It returns the defaults when
// no file exists.
func Find(dir string) (*Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}
