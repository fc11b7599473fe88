// Package layout reads keyboard layouts: named key rectangles kept in YAML,
// TOML or JSON files so a projected keyboard can be set up without clicking
// every key into place.
package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	gotoml "github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/depthkeys/internal/keys"
)

// Format is a layout file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for file extensions that are not a layout format.
var ErrUnknownFormat = errors.New("unknown layout format")

// Entry is one key in a layout file.
type Entry struct {
	Key    string `json:"key" yaml:"key" toml:"key"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Left   int    `json:"left" yaml:"left" toml:"left"`
	Top    int    `json:"top" yaml:"top" toml:"top"`
	Width  int    `json:"width" yaml:"width" toml:"width"`
	Height int    `json:"height" yaml:"height" toml:"height"`
}

// Rect returns the entry's rectangle.
func (e Entry) Rect() keys.Rect {
	return keys.Rect{Left: e.Left, Top: e.Top, Width: e.Width, Height: e.Height}
}

// Layout is a named list of keys.
type Layout struct {
	Name string  `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Keys []Entry `json:"keys" yaml:"keys" toml:"keys"`
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Load reads and parses a layout file.
func Load(path string) (*Layout, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}

	l, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Parse decodes a layout in the given format.
func Parse(data []byte, format Format) (*Layout, error) {
	var l Layout

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &l); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &l); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&l); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return &l, nil
}

// Marshal encodes the layout in the given format.
func (l *Layout) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(l)
	case FormatTOML:
		return gotoml.Marshal(*l)
	case FormatJSON:
		return json.MarshalIndent(l, "", "  ")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Regions builds key regions for a frame of the given size. Any invalid
// entry rejects the whole layout.
func (l *Layout) Regions(frameWidth, frameHeight int) ([]keys.Region, error) {
	regions := make([]keys.Region, 0, len(l.Keys))
	for i, e := range l.Keys {
		r, err := keys.NewRegion(e.Rect(), e.Key, frameWidth, frameHeight)
		if err != nil {
			return nil, fmt.Errorf("key %d (%q): %w", i, e.Key, err)
		}
		regions = append(regions, r.WithLabel(e.Label))
	}
	return regions, nil
}

// Example returns a small home-row layout for a 512x424 frame.
func Example() *Layout {
	l := &Layout{Name: "home-row"}
	for i, k := range []string{"a", "s", "d", "f", "j", "k", "l", ";"} {
		l.Keys = append(l.Keys, Entry{
			Key:    k,
			Label:  strings.ToUpper(k),
			Left:   40 + i*56,
			Top:    300,
			Width:  48,
			Height: 48,
		})
	}
	return l
}
