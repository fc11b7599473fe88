package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/depthkeys/testdata"
)

func TestAPI_KeyboardWorkflow(t *testing.T) {
	a := newTestApp(t)
	srv := New(Config{App: a, Logger: discardLogger()})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()
	conn := dialEvents(t, ts.URL)
	require.Eventually(t, func() bool { return srv.Events().Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	// 1. Add a key
	body := `{"key":"a","left":100,"top":100,"width":50,"height":50}`
	resp, err := client.Post(ts.URL+"/api/keys", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// 2. Calibrate on the next frame
	post := func(command string) int {
		resp, err := client.Post(ts.URL+"/api/mode", "application/json", bytes.NewBufferString(`{"command":"`+command+`"}`))
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}
	require.Equal(t, http.StatusOK, post("calibrate"))
	assert.Equal(t, "calibrating", readEvent(t, conn).Mode)

	a.Pipeline().OnFrame(testdata.Surface())
	assert.Equal(t, "idle", readEvent(t, conn).Mode)

	// 3. Detect a touch
	require.Equal(t, http.StatusOK, post("start"))
	assert.Equal(t, "detecting", readEvent(t, conn).Mode)

	a.Pipeline().OnFrame(nil) // dropped frame
	a.Pipeline().OnFrame(testdata.Press(120, 120, 15))

	e := readEvent(t, conn)
	assert.Equal(t, "key", e.Type)
	assert.Equal(t, "a", e.Key)

	// 4. Status reflects everything
	resp, err = client.Get(ts.URL + "/api/mode")
	require.NoError(t, err)
	defer resp.Body.Close()

	var st struct {
		Mode       string `json:"mode"`
		Calibrated bool   `json:"calibrated"`
		Keys       int    `json:"keys"`
		Stats      struct {
			Dropped uint64 `json:"dropped"`
			Keys    uint64 `json:"keys"`
		} `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, "detecting", st.Mode)
	assert.True(t, st.Calibrated)
	assert.Equal(t, 1, st.Keys)
	assert.Equal(t, uint64(1), st.Stats.Dropped)
	assert.Equal(t, uint64(1), st.Stats.Keys)
}
