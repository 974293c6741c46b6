package main

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/mastercactapus/gcpath/config"
	"github.com/mastercactapus/gcpath/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const square = "G21 G90\nG1 X10 Y0 F600\nG1 X10 Y10\nG3 X0 Y10 I-5 J0\nG1 X0 Y0"

func newTestServer(t *testing.T, store *export.SQLite) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newAPI(config.Default(), t.TempDir(), store))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readLines(t *testing.T, r io.Reader) []string {
	t.Helper()
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestAPI_Expand(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := post(t, srv.URL+"/api/expand", square)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Run-ID"))

	lines := readLines(t, resp.Body)
	require.Len(t, lines, 4)
	var m export.Message
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &m))
	assert.Equal(t, export.TypeSegment, m.Type)
	require.NotNil(t, m.Segment)
	assert.Equal(t, 3, m.Segment.Line)
	assert.InDelta(t, 5, m.Segment.Radius, 1e-9)

	resp = post(t, srv.URL+"/api/expand?format=csv", square)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Len(t, readLines(t, resp.Body), 5, "header and one row per segment")
}

func TestAPI_ExpandErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := post(t, srv.URL+"/api/expand?strict=1", "G1 X1\nM9999\nG1 X2")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = post(t, srv.URL+"/api/expand?tolerance=-1", square)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/api/expand?format=svg", square)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/api/expand?level=1", square)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "no mesh stored yet")

	resp = post(t, srv.URL+"/api/expand?file=missing.nc", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_Lenient(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := post(t, srv.URL+"/api/expand", "G1 X1\nM9999\nG1 X2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lines := readLines(t, resp.Body)
	require.Len(t, lines, 3)

	var m export.Message
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &m))
	assert.Equal(t, export.TypeDiagnostic, m.Type)
	require.NotNil(t, m.Diagnostic)
	assert.Equal(t, 1, m.Diagnostic.Line)
}

func TestAPI_Level(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := post(t, srv.URL+"/api/mesh", `[
		{"X":0,"Y":0,"Z":0,"Valid":true},
		{"X":0,"Y":100,"Z":0,"Valid":true},
		{"X":100,"Y":0,"Z":30,"Valid":true},
		{"X":100,"Y":100,"Z":30,"Valid":true},
		{"X":50,"Y":50,"Z":-99,"Valid":false}
	]`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = post(t, srv.URL+"/api/expand?level=1", "G1 X1 F1200")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/x-gcode", resp.Header.Get("Content-Type"))
	lines := readLines(t, resp.Body)
	require.NotEmpty(t, lines)
	assert.Equal(t, "G21 G90 M83", lines[0])
	assert.Equal(t, "G1 X1 Y0 Z0.3 F1200", lines[len(lines)-1])

	resp = post(t, srv.URL+"/api/mesh", `[{"X":0,"Y":0,"Z":0,"Valid":true}]`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Data(t *testing.T) {
	srv := newTestServer(t, nil)

	req, err := http.NewRequest("PUT", srv.URL+"/data/parts/square.nc", strings.NewReader(square))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/data/parts/square.nc")
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, square, string(data))

	resp = post(t, srv.URL+"/api/expand?file=parts/square.nc", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, readLines(t, resp.Body), 4)

	req, err = http.NewRequest("DELETE", srv.URL+"/data/parts/square.nc", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/data/parts/square.nc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_Runs(t *testing.T) {
	store, err := export.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()
	srv := newTestServer(t, store)

	resp := post(t, srv.URL+"/api/expand", square+"\nM9999")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id := resp.Header.Get("X-Run-ID")
	require.NotEmpty(t, id)

	resp, err = http.Get(srv.URL + "/api/runs/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run struct {
		ID          string
		Segments    []export.Record
		Diagnostics []json.RawMessage
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, id, run.ID)
	assert.Len(t, run.Segments, 4)
	assert.Len(t, run.Diagnostics, 1)

	resp, err = http.Get(srv.URL + "/api/runs/00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ExpandWebsocket(t *testing.T) {
	srv := newTestServer(t, nil)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/expand/ws", nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteJSON(wsRequest{Program: square, Points: true}))

	var segs int
	for {
		var msg map[string]json.RawMessage
		require.NoError(t, ws.ReadJSON(&msg))

		var typ string
		require.NoError(t, json.Unmarshal(msg["type"], &typ))
		if typ != "done" {
			assert.Equal(t, export.TypeSegment, typ)
			segs++
			continue
		}

		var done wsDone
		data, err := json.Marshal(msg)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &done))
		assert.NotEmpty(t, done.ID)
		assert.Empty(t, done.Error)
		assert.Equal(t, 4, done.Stats.Segments)
		break
	}
	assert.Equal(t, 4, segs)
}

func TestSafePath(t *testing.T) {
	ok, name := safePath("data", "../../etc/passwd")
	assert.True(t, ok)
	assert.Equal(t, "data/etc/passwd", name)
}
