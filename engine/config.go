package engine

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/phonometrica/phonometrica-sub000/internal/trace"
)

// ConfigFile is the name of the project manifest looked up by FindConfig.
const ConfigFile = "phon.toml"

// DefaultModuleExt is the extension appended to imported module names.
const DefaultModuleExt = ".phon"

// Config tunes a Runtime. The TOML keys match the [engine] table of
// phon.toml; zero values fall back to the defaults.
type Config struct {
	StackSize    int      `toml:"stack_size"`
	MaxCallDepth int      `toml:"max_call_depth"`
	GCThreshold  int      `toml:"gc_threshold"`
	ModulePaths  []string `toml:"module_paths"`
	ModuleExt    string   `toml:"module_ext"`
	TraceLevel   string   `toml:"trace_level"`
	// Cache stores compiled scripts on disk, keyed by their content.
	Cache    bool   `toml:"cache"`
	CacheDir string `toml:"cache_dir"`
	// Builtins installs the standard native library in New.
	Builtins bool `toml:"builtins"`

	// Output receives print statements; nil means os.Stdout.
	Output io.Writer `toml:"-"`
	// Tracer receives pipeline spans and collector events; nil disables tracing.
	Tracer trace.Tracer `toml:"-"`
	// TraceVM, when set, logs every executed instruction.
	TraceVM io.Writer `toml:"-"`
}

// DefaultConfig returns the configuration used when no manifest exists.
func DefaultConfig() Config {
	return Config{
		ModuleExt:  DefaultModuleExt,
		TraceLevel: "off",
		Builtins:   true,
	}
}

type manifest struct {
	Engine Config `toml:"engine"`
}

// DecodeConfig parses a phon.toml document on top of base. Keys absent from
// the document keep their value from base.
func DecodeConfig(data string, base Config) (Config, error) {
	var m manifest
	md, err := toml.Decode(data, &m)
	if err != nil {
		return base, fmt.Errorf("decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return base, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	out := base
	set := func(key string) bool { return md.IsDefined("engine", key) }
	if set("stack_size") {
		out.StackSize = m.Engine.StackSize
	}
	if set("max_call_depth") {
		out.MaxCallDepth = m.Engine.MaxCallDepth
	}
	if set("gc_threshold") {
		out.GCThreshold = m.Engine.GCThreshold
	}
	if set("module_paths") {
		out.ModulePaths = m.Engine.ModulePaths
	}
	if set("module_ext") {
		out.ModuleExt = m.Engine.ModuleExt
	}
	if set("trace_level") {
		out.TraceLevel = m.Engine.TraceLevel
	}
	if set("cache") {
		out.Cache = m.Engine.Cache
	}
	if set("cache_dir") {
		out.CacheDir = m.Engine.CacheDir
	}
	if set("builtins") {
		out.Builtins = m.Engine.Builtins
	}
	return out, out.validate()
}

func (c Config) validate() error {
	if c.StackSize < 0 {
		return fmt.Errorf("stack_size must not be negative, got %d", c.StackSize)
	}
	if c.MaxCallDepth < 0 {
		return fmt.Errorf("max_call_depth must not be negative, got %d", c.MaxCallDepth)
	}
	if c.TraceLevel != "" {
		if _, err := trace.ParseLevel(c.TraceLevel); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfig reads the manifest at path. Relative module paths are made
// relative to the manifest's directory.
func LoadConfig(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	cfg, err := DecodeConfig(string(data), base)
	if err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i, p := range cfg.ModulePaths {
		if !filepath.IsAbs(p) {
			cfg.ModulePaths[i] = filepath.Join(dir, p)
		}
	}
	return cfg, nil
}

// FindConfig walks up from dir looking for phon.toml. It returns "" when
// none exists.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, ConfigFile)
		st, err := os.Stat(candidate)
		switch {
		case err == nil && !st.IsDir():
			return candidate, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
