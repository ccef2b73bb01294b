// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnknownConfigFormat is returned for config files that are neither
// TOML nor YAML.
var ErrUnknownConfigFormat = errors.New("rhi: unknown config file format")

// Config is the file form of device options.
//
// Example config.toml:
//
//	backend = "null"
//	debug_markers = true
//	profile = "counting"
//	log_level = "debug"
//
//	[surface]
//	width = 1280
//	height = 720
//	dpr = 1.0
//
//	[native]
//	headless = true
//	fence_timeout = "5s"
type Config struct {
	// Backend is a registered backend name; empty picks the best available.
	Backend      string        `toml:"backend" yaml:"backend"`
	DebugMarkers bool          `toml:"debug_markers" yaml:"debug_markers"`
	Profile      string        `toml:"profile" yaml:"profile"`
	LogLevel     string        `toml:"log_level" yaml:"log_level"`
	Surface      SurfaceConfig `toml:"surface" yaml:"surface"`
	Native       NativeConfig  `toml:"native" yaml:"native"`
}

// SurfaceConfig describes a headless surface. A zero width or height
// leaves the surface unset.
type SurfaceConfig struct {
	Width  int     `toml:"width" yaml:"width"`
	Height int     `toml:"height" yaml:"height"`
	DPR    float32 `toml:"dpr" yaml:"dpr"`
}

// NativeConfig holds options for GPU backends.
type NativeConfig struct {
	Headless bool `toml:"headless" yaml:"headless"`
	// FenceTimeout is a time.ParseDuration string such as "5s".
	FenceTimeout string `toml:"fence_timeout" yaml:"fence_timeout"`
}

type decoder interface {
	Decode(v any) error
}

type decoderFunc func(r io.Reader) decoder

func tomlDecoder(r io.Reader) decoder {
	return toml.NewDecoder(r).DisallowUnknownFields()
}

func yamlDecoder(r io.Reader) decoder {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	return d
}

func decoderFor(path string) (decoderFunc, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return tomlDecoder, nil
	case ".yaml", ".yml":
		return yamlDecoder, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownConfigFormat, path)
}

// LoadConfig reads a TOML (.toml) or YAML (.yaml, .yml) config file.
func LoadConfig(path string) (Config, error) {
	dec, err := decoderFor(path)
	if err != nil {
		return Config{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("rhi: load config: %w", err)
	}
	defer f.Close()
	return readConfig(bufio.NewReader(f), dec)
}

// ParseConfig decodes config data. format is "toml" or "yaml".
func ParseConfig(r io.Reader, format string) (Config, error) {
	dec, err := decoderFor("config." + format)
	if err != nil {
		return Config{}, err
	}
	return readConfig(r, dec)
}

func readConfig(r io.Reader, dec decoderFunc) (Config, error) {
	var c Config
	if err := dec(r).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("rhi: parse config: %w", err)
	}
	return c, c.Validate()
}

// Validate checks enumerated and duration fields.
func (c Config) Validate() error {
	switch c.Profile {
	case "", "counting", "log":
	default:
		return fmt.Errorf("rhi: config: unknown profile %q", c.Profile)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Native.FenceTimeout != "" {
		if _, err := time.ParseDuration(c.Native.FenceTimeout); err != nil {
			return fmt.Errorf("rhi: config: fence_timeout: %w", err)
		}
	}
	if c.Surface.Width < 0 || c.Surface.Height < 0 {
		return fmt.Errorf("rhi: config: negative surface size %dx%d", c.Surface.Width, c.Surface.Height)
	}
	return nil
}

// Level returns the configured log level, Info when unset.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("rhi: config: log_level: %w", err)
	}
	return l, nil
}

// Options converts the config into device options. The logger is left to
// the caller, see Level.
func (c Config) Options() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	opts := []Option{
		WithDebugMarkers(c.DebugMarkers),
		WithHeadless(c.Native.Headless),
	}
	switch c.Profile {
	case "counting":
		opts = append(opts, WithProfiler(NewCountingProfiler()))
	case "log":
		opts = append(opts, WithProfiler(LogProfiler{}))
	}
	if c.Surface.Width > 0 && c.Surface.Height > 0 {
		opts = append(opts, WithSurface(HeadlessSurface{
			Size: Size{Width: c.Surface.Width, Height: c.Surface.Height},
			DPR:  c.Surface.DPR,
		}))
	}
	if c.Native.FenceTimeout != "" {
		d, _ := time.ParseDuration(c.Native.FenceTimeout)
		opts = append(opts, WithFenceTimeout(d))
	}
	return opts, nil
}
