// Package config loads scriptblocks settings from a TOML file.
//
// Resolution order is defaults, then the file, then command-line flags. The
// file is the one named by --config, or scriptblocks.toml in the working
// directory when it exists. Flags are applied by the CLI after Resolve.
//
// Example file:
//
//	[store]
//	path = "scripts.db"
//
//	[generator]
//	indent = "\t"
//
//	[log]
//	level = "debug"
//
//	[output]
//	format = "json"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultFile is looked up in the working directory when no file is named.
const DefaultFile = "scriptblocks.toml"

// Valid values for Log.Level and Output.Format.
var (
	Levels  = []string{"debug", "info", "warn", "error"}
	Formats = []string{"text", "json"}
)

// Config is the complete set of settings.
type Config struct {
	Store     Store     `toml:"store"`
	Generator Generator `toml:"generator"`
	Log       Log       `toml:"log"`
	Output    Output    `toml:"output"`
}

// Store configures the version history database.
type Store struct {
	Path string `toml:"path"`
}

// Generator configures code generation.
type Generator struct {
	// Indent is written once per nesting level.
	Indent string `toml:"indent"`
}

// Log configures diagnostics on stderr.
type Log struct {
	Level string `toml:"level"`
}

// Output configures command results on stdout.
type Output struct {
	Format string `toml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Store:     Store{Path: "scriptblocks.db"},
		Generator: Generator{Indent: "  "},
		Log:       Log{Level: "info"},
		Output:    Output{Format: "text"},
	}
}

// Load reads path over the defaults. Keys the file sets replace the default;
// unknown keys are an error so typos do not pass silently.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads the named file, or DefaultFile when path is empty and the
// file exists, or returns the defaults. It also returns the path it read, or
// "" for defaults.
func Resolve(path string) (Config, string, error) {
	if path != "" {
		cfg, err := Load(path)
		return cfg, path, err
	}
	if _, err := os.Stat(DefaultFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), "", nil
		}
		return Config{}, "", fmt.Errorf("failed to stat %s: %w", DefaultFile, err)
	}
	cfg, err := Load(DefaultFile)
	return cfg, DefaultFile, err
}

// Validate checks enumerated values and the indent unit.
func (c Config) Validate() error {
	if !slices.Contains(Levels, c.Log.Level) {
		return fmt.Errorf("log.level %q: must be one of %v", c.Log.Level, Levels)
	}
	if !slices.Contains(Formats, c.Output.Format) {
		return fmt.Errorf("output.format %q: must be one of %v", c.Output.Format, Formats)
	}
	if c.Generator.Indent == "" || strings.Trim(c.Generator.Indent, " \t") != "" {
		return fmt.Errorf("generator.indent %q: must be spaces or tabs", c.Generator.Indent)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	return nil
}
