package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the optional pdd configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
}

// DefaultsConfig holds persistent operand and flag defaults. Nil fields
// were not set in the file; command-line values always win.
type DefaultsConfig struct {
	BlockSize *string   `toml:"bs"`
	Direct    *bool     `toml:"direct"`
	Sync      *bool     `toml:"sync"`
	Fsync     *bool     `toml:"fsync"`
	Progress  *string   `toml:"progress"` // auto, bar, plain or none
	BarWidth  *int      `toml:"bar_width"`
	Interval  *Duration `toml:"interval"`
	Verify    *bool     `toml:"verify"`
	BWLimit   *string   `toml:"bwlimit"`
	Prealloc  *bool     `toml:"prealloc"`
	Color     *bool     `toml:"color"`
	Log       *string   `toml:"log"`
}

// Duration is a time.Duration written as a Go duration string ("250ms").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	if v <= 0 {
		return fmt.Errorf("duration must be positive: %q", text)
	}
	d.Duration = v
	return nil
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pdd", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config file at path. A missing file yields a zero
// Config; undecodable or unknown keys are errors.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}
