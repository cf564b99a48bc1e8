// Package config loads validator settings from TOML or YAML files and turns
// them into xvizschema options.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/reoring/xvizschema"
	"github.com/reoring/xvizschema/i18n"
	"github.com/reoring/xvizschema/internal/logging"
	"github.com/reoring/xvizschema/internal/yamlsrc"
)

// Config is the complete validator configuration.
type Config struct {
	Catalog    CatalogConfig
	Validation ValidationConfig
	Log        LogConfig
}

// CatalogConfig selects the schema catalog. An empty Dir means the
// bundled catalog.
type CatalogConfig struct {
	Dir string
}

// ValidationConfig tunes how payloads are checked.
type ValidationConfig struct {
	MaxDepth      int
	UnknownKeys   string // "declared" or "strict"
	DuplicateKeys string // "ignore", "warn" or "error"
	LazyCompile   bool
	Language      string
}

// LogConfig selects the logger level and output format.
type LogConfig struct {
	Level  string
	Format string // "console" or "json"
}

// Default returns the configuration New uses when given no options.
func Default() Config {
	return Config{
		Validation: ValidationConfig{
			MaxDepth:      xvizschema.DefaultMaxDepth,
			UnknownKeys:   "declared",
			DuplicateKeys: xvizschema.Error.String(),
			Language:      "en",
		},
		Log: LogConfig{Level: "info", Format: logging.FormatConsole},
	}
}

type fileConfig struct {
	Catalog struct {
		Dir string `toml:"dir" yaml:"dir"`
	} `toml:"catalog" yaml:"catalog"`
	Validation struct {
		MaxDepth      int    `toml:"max_depth" yaml:"max_depth"`
		UnknownKeys   string `toml:"unknown_keys" yaml:"unknown_keys"`
		DuplicateKeys string `toml:"duplicate_keys" yaml:"duplicate_keys"`
		LazyCompile   bool   `toml:"lazy_compile" yaml:"lazy_compile"`
		Language      string `toml:"language" yaml:"language"`
	} `toml:"validation" yaml:"validation"`
	Log struct {
		Level  string `toml:"level" yaml:"level"`
		Format string `toml:"format" yaml:"format"`
	} `toml:"log" yaml:"log"`
}

// Load reads path, chosen by extension (.toml, .yaml or .yml), and overlays
// the keys it defines on Default. A relative catalog dir is resolved
// against the directory holding path.
func Load(path string) (Config, error) {
	var (
		cfg Config
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		cfg, err = loadTOML(path)
	case ".yaml", ".yml":
		cfg, err = loadYAML(path)
	default:
		return Config{}, fmt.Errorf("config: unsupported file type %q", ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if cfg.Catalog.Dir != "" && !filepath.IsAbs(cfg.Catalog.Dir) {
		cfg.Catalog.Dir = filepath.Join(filepath.Dir(path), cfg.Catalog.Dir)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func loadTOML(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return overlay(raw, meta.IsDefined), nil
}

func loadYAML(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	tree, err := yamlsrc.Decode(bytes.NewReader(data))
	if err != nil {
		return Config{}, err
	}
	var raw fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return overlay(raw, func(keys ...string) bool { return defined(tree, keys) }), nil
}

func defined(tree any, keys []string) bool {
	for _, k := range keys {
		m, ok := tree.(map[string]any)
		if !ok {
			return false
		}
		if tree, ok = m[k]; !ok {
			return false
		}
	}
	return true
}

func overlay(raw fileConfig, isDefined func(keys ...string) bool) Config {
	cfg := Default()
	if isDefined("catalog", "dir") {
		cfg.Catalog.Dir = strings.TrimSpace(raw.Catalog.Dir)
	}
	if isDefined("validation", "max_depth") {
		cfg.Validation.MaxDepth = raw.Validation.MaxDepth
	}
	if isDefined("validation", "unknown_keys") {
		cfg.Validation.UnknownKeys = strings.TrimSpace(raw.Validation.UnknownKeys)
	}
	if isDefined("validation", "duplicate_keys") {
		cfg.Validation.DuplicateKeys = strings.TrimSpace(raw.Validation.DuplicateKeys)
	}
	if isDefined("validation", "lazy_compile") {
		cfg.Validation.LazyCompile = raw.Validation.LazyCompile
	}
	if isDefined("validation", "language") {
		cfg.Validation.Language = strings.TrimSpace(raw.Validation.Language)
	}
	if isDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if isDefined("log", "format") {
		cfg.Log.Format = strings.TrimSpace(raw.Log.Format)
	}
	return cfg
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Validation.MaxDepth < 1 {
		return fmt.Errorf("validation.max_depth must be at least 1, got %d", c.Validation.MaxDepth)
	}
	if _, err := unknownPolicy(c.Validation.UnknownKeys); err != nil {
		return err
	}
	if _, err := severity(c.Validation.DuplicateKeys); err != nil {
		return err
	}
	if !slices.Contains(i18n.Languages(), c.Validation.Language) {
		return fmt.Errorf("validation.language %q is not one of %s", c.Validation.Language, strings.Join(i18n.Languages(), ", "))
	}
	if _, err := logging.New(c.Log.Level, c.Log.Format, io.Discard); err != nil {
		return err
	}
	if c.Catalog.Dir != "" {
		st, err := os.Stat(c.Catalog.Dir)
		if err != nil {
			return fmt.Errorf("catalog.dir: %w", err)
		}
		if !st.IsDir() {
			return fmt.Errorf("catalog.dir %s is not a directory", c.Catalog.Dir)
		}
	}
	return nil
}

// Options converts c into validator options; logs go to w.
func (c Config) Options(w io.Writer) ([]xvizschema.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	log, err := logging.New(c.Log.Level, c.Log.Format, w)
	if err != nil {
		return nil, err
	}
	unknown, _ := unknownPolicy(c.Validation.UnknownKeys)
	dup, _ := severity(c.Validation.DuplicateKeys)

	opts := []xvizschema.Option{
		xvizschema.WithLogger(log),
		xvizschema.WithMaxDepth(c.Validation.MaxDepth),
		xvizschema.WithUnknownPolicy(unknown),
		xvizschema.WithDuplicateKeys(dup),
		xvizschema.WithLanguage(c.Validation.Language),
	}
	if c.Catalog.Dir != "" {
		opts = append(opts, xvizschema.WithCatalog(os.DirFS(c.Catalog.Dir)))
	}
	if c.Validation.LazyCompile {
		opts = append(opts, xvizschema.WithLazyCompile())
	}
	return opts, nil
}

// NewValidator builds a validator from c, logging to w.
func NewValidator(c Config, w io.Writer) (*xvizschema.Validator, error) {
	opts, err := c.Options(w)
	if err != nil {
		return nil, err
	}
	return xvizschema.New(opts...)
}

func unknownPolicy(s string) (xvizschema.UnknownPolicy, error) {
	switch strings.ToLower(s) {
	case "declared", "":
		return xvizschema.UnknownAsDeclared, nil
	case "strict":
		return xvizschema.UnknownStrict, nil
	}
	return 0, fmt.Errorf("validation.unknown_keys %q must be declared or strict", s)
}

func severity(s string) (xvizschema.Severity, error) {
	for _, sev := range []xvizschema.Severity{xvizschema.Ignore, xvizschema.Warn, xvizschema.Error} {
		if strings.EqualFold(s, sev.String()) {
			return sev, nil
		}
	}
	return 0, fmt.Errorf("validation.duplicate_keys %q must be ignore, warn or error", s)
}
