package layout

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/depthkeys/internal/keys"
)

const yamlLayout = `name: numpad
keys:
  - key: "1"
    left: 100
    top: 100
    width: 50
    height: 50
  - key: enter
    label: Enter
    left: 160
    top: 100
    width: 50
    height: 110
`

const tomlLayout = `name = "numpad"

[[keys]]
key = "1"
left = 100
top = 100
width = 50
height = 50

[[keys]]
key = "enter"
label = "Enter"
left = 160
top = 100
width = 50
height = 110
`

const jsonLayout = `{
  "name": "numpad",
  "keys": [
    {"key": "1", "left": 100, "top": 100, "width": 50, "height": 50},
    {"key": "enter", "label": "Enter", "left": 160, "top": 100, "width": 50, "height": 110}
  ]
}`

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"yaml", yamlLayout, FormatYAML},
		{"toml", tomlLayout, FormatTOML},
		{"json", jsonLayout, FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Parse([]byte(tt.data), tt.format)
			require.NoError(t, err)

			assert.Equal(t, "numpad", l.Name)
			require.Len(t, l.Keys, 2)
			assert.Equal(t, Entry{Key: "1", Left: 100, Top: 100, Width: 50, Height: 50}, l.Keys[0])
			assert.Equal(t, "Enter", l.Keys[1].Label)
			assert.Equal(t, 110, l.Keys[1].Height)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("keys: [unclosed"), FormatYAML)
	assert.Error(t, err)

	_, err = Parse([]byte("keys = "), FormatTOML)
	assert.Error(t, err)

	_, err = Parse([]byte(`{"keys": [], "colour": "red"}`), FormatJSON)
	assert.Error(t, err)

	_, err = Parse([]byte(""), Format("ini"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"keys.yaml":      FormatYAML,
		"keys.YML":       FormatYAML,
		"/a/b/keys.toml": FormatTOML,
		"keys.json":      FormatJSON,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("keys.txt")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlLayout), 0644))

	l, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, l.Keys, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLayout_Regions(t *testing.T) {
	l, err := Parse([]byte(yamlLayout), FormatYAML)
	require.NoError(t, err)

	regions, err := l.Regions(512, 424)
	require.NoError(t, err)
	require.Len(t, regions, 2)

	assert.Equal(t, "1", regions[0].Key)
	assert.Equal(t, "1", regions[0].Label)
	assert.Len(t, regions[0].Indices, 2500)
	assert.Equal(t, 100*512+100, regions[0].Indices[0])
	assert.Equal(t, "Enter", regions[1].Label)
	assert.NotEqual(t, regions[0].ID, regions[1].ID)
}

func TestLayout_Regions_RejectsWholeLayout(t *testing.T) {
	l := &Layout{Keys: []Entry{
		{Key: "a", Left: 0, Top: 0, Width: 10, Height: 10},
		{Key: "b", Left: 500, Top: 0, Width: 50, Height: 10},
	}}

	regions, err := l.Regions(512, 424)
	assert.Nil(t, regions)
	assert.True(t, errors.Is(err, keys.ErrOutOfBounds), "err = %v", err)

	l = &Layout{Keys: []Entry{{Key: "", Width: 1, Height: 1}}}
	_, err = l.Regions(512, 424)
	assert.ErrorIs(t, err, keys.ErrEmptyKey)
}

func TestLayout_Marshal(t *testing.T) {
	example := Example()

	for _, format := range []Format{FormatYAML, FormatTOML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			data, err := example.Marshal(format)
			require.NoError(t, err)

			parsed, err := Parse(data, format)
			require.NoError(t, err)
			assert.Equal(t, example, parsed)
		})
	}
}

func TestExample_FitsDefaultFrame(t *testing.T) {
	regions, err := Example().Regions(512, 424)
	require.NoError(t, err)
	assert.Len(t, regions, 8)
}
