// Package config loads moonterm's startup configuration.
//
// The configuration is a JSON file:
//
//	{
//	  "script": {"path": "init.lua", "all_libraries": false},
//	  "palette": {
//	    "pairs": [
//	      {"pair": 1, "fg": "yellow", "bg": "navy"},
//	      {"pair": 2, "fg": "#ff8800", "bg": "black"}
//	    ]
//	  }
//	}
//
// Colors accept tcell color names and #rrggbb hex values. A missing
// file yields the defaults; a malformed one is an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/tbellam/moonterm/internal/term"
)

// Errors returned by configuration handling.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrInvalidColor  = errors.New("invalid color name")
)

// Pair maps a color-pair index to its foreground and background.
type Pair struct {
	Pair int
	Fg   string
	Bg   string
}

// Config is the resolved startup configuration.
type Config struct {
	ScriptPath   string
	AllLibraries bool
	Pairs        []Pair
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{ScriptPath: "init.lua"}
}

// Load reads the configuration at path. A missing file is not an
// error; the defaults are returned.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration document, filling in defaults for
// absent fields.
func Parse(data []byte) (Config, error) {
	if !gjson.ValidBytes(data) {
		return Config{}, ErrInvalidConfig
	}

	cfg := Default()
	if v := gjson.GetBytes(data, "script.path"); v.Exists() {
		cfg.ScriptPath = v.String()
	}
	cfg.AllLibraries = gjson.GetBytes(data, "script.all_libraries").Bool()

	for _, p := range gjson.GetBytes(data, "palette.pairs").Array() {
		cfg.Pairs = append(cfg.Pairs, Pair{
			Pair: int(p.Get("pair").Int()),
			Fg:   p.Get("fg").String(),
			Bg:   p.Get("bg").String(),
		})
	}
	return cfg, nil
}

// Apply registers the configured palette on a live screen.
func (c Config) Apply(s *term.Screen) error {
	for _, p := range c.Pairs {
		fg, err := lookupColor(p.Fg)
		if err != nil {
			return fmt.Errorf("pair %d: %w", p.Pair, err)
		}
		bg, err := lookupColor(p.Bg)
		if err != nil {
			return fmt.Errorf("pair %d: %w", p.Pair, err)
		}
		if err := s.InitPair(p.Pair, fg, bg); err != nil {
			return err
		}
	}
	return nil
}

func lookupColor(name string) (tcell.Color, error) {
	if name == "" || name == "default" {
		return tcell.ColorDefault, nil
	}
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault {
		return 0, fmt.Errorf("%q: %w", name, ErrInvalidColor)
	}
	return c, nil
}

// Marshal renders a configuration back to JSON.
func Marshal(c Config) ([]byte, error) {
	data := []byte(`{}`)
	var err error

	if data, err = sjson.SetBytes(data, "script.path", c.ScriptPath); err != nil {
		return nil, err
	}
	if data, err = sjson.SetBytes(data, "script.all_libraries", c.AllLibraries); err != nil {
		return nil, err
	}
	for i, p := range c.Pairs {
		prefix := fmt.Sprintf("palette.pairs.%d", i)
		if data, err = sjson.SetBytes(data, prefix+".pair", p.Pair); err != nil {
			return nil, err
		}
		if data, err = sjson.SetBytes(data, prefix+".fg", p.Fg); err != nil {
			return nil, err
		}
		if data, err = sjson.SetBytes(data, prefix+".bg", p.Bg); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// WriteDefault seeds path with the default configuration unless a file
// already exists there.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	data, err := Marshal(Default())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
