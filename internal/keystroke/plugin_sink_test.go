package keystroke

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/depthkeys/internal/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptPlugin writes a keystroke plugin that appends each request to out.
func scriptPlugin(t *testing.T, body string) (*plugin.Plugin, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	out := filepath.Join(dir, "received.log")
	script := "#!/bin/sh\nOUT=" + out + "\n" + body
	path := filepath.Join(dir, "keyboard.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))

	return &plugin.Plugin{
		Manifest: plugin.Manifest{
			Name:       "keyboard",
			Executable: "keyboard.sh",
			Actions:    []string{plugin.ActionKeystroke},
		},
		Path:       dir,
		Executable: path,
	}, out
}

func TestPluginSink_Delivers(t *testing.T) {
	p, out := scriptPlugin(t, `cat >> "$OUT"
echo >> "$OUT"
echo '{"success":true}'
`)

	sink, err := NewPluginSink(PluginSinkConfig{Plugin: p, Logger: discardLogger()})
	require.NoError(t, err)
	defer sink.Close()

	sink.Send("a")
	sink.Send("b")

	require.Eventually(t, func() bool {
		delivered, _, _ := sink.Stats()
		return delivered == 2
	}, 5*time.Second, 10*time.Millisecond)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first, second plugin.Request
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, plugin.ActionKeystroke, first.Action)
	assert.Equal(t, "a", first.Key)
	assert.Equal(t, "b", second.Key)
}

func TestPluginSink_CountsFailures(t *testing.T) {
	p, _ := scriptPlugin(t, `cat > /dev/null
echo '{"success":false,"error":"no display"}'
`)

	sink, err := NewPluginSink(PluginSinkConfig{Plugin: p, Logger: discardLogger()})
	require.NoError(t, err)
	defer sink.Close()

	sink.Send("a")

	require.Eventually(t, func() bool {
		_, _, failed := sink.Stats()
		return failed == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestPluginSink_DropsWhenFull(t *testing.T) {
	p, _ := scriptPlugin(t, `cat > /dev/null
sleep 5
echo '{"success":true}'
`)

	sink, err := NewPluginSink(PluginSinkConfig{
		Plugin:    p,
		QueueSize: 1,
		TimeoutMs: 10000,
		Logger:    discardLogger(),
	})
	require.NoError(t, err)
	defer sink.Close()

	start := time.Now()
	for i := 0; i < 10; i++ {
		sink.Send("k")
	}
	assert.Less(t, time.Since(start), time.Second, "Send blocked")

	_, dropped, _ := sink.Stats()
	assert.GreaterOrEqual(t, dropped, int64(8))
}

func TestPluginSink_SendAfterClose(t *testing.T) {
	p, _ := scriptPlugin(t, `echo '{"success":true}'`)

	sink, err := NewPluginSink(PluginSinkConfig{Plugin: p, Logger: discardLogger()})
	require.NoError(t, err)

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())
	sink.Send("a")

	_, dropped, _ := sink.Stats()
	assert.Zero(t, dropped)
}

func TestNewPluginSink_Rejects(t *testing.T) {
	_, err := NewPluginSink(PluginSinkConfig{})
	assert.ErrorIs(t, err, plugin.ErrPluginNotFound)

	noKeys := &plugin.Plugin{Manifest: plugin.Manifest{Name: "volume", Actions: []string{"volume_up"}}}
	_, err = NewPluginSink(PluginSinkConfig{Plugin: noKeys})
	assert.Error(t, err)

	strict := &plugin.Plugin{Manifest: plugin.Manifest{
		Name:         "keyboard",
		Actions:      []string{plugin.ActionKeystroke},
		ConfigSchema: json.RawMessage(`{"type":"object","additionalProperties":false}`),
	}}
	_, err = NewPluginSink(PluginSinkConfig{Plugin: strict, Config: json.RawMessage(`{"x":1}`)})
	assert.Error(t, err)
}
