package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/mastercactapus/gcpath/config"
	"github.com/mastercactapus/gcpath/coord"
	"github.com/mastercactapus/gcpath/diag"
	"github.com/mastercactapus/gcpath/export"
	"github.com/mastercactapus/gcpath/gcode"
	"github.com/mastercactapus/gcpath/interp"
	"github.com/mastercactapus/gcpath/meshlevel"
)

// gridFile holds the last uploaded probe grid inside the data directory.
const gridFile = "grid.json"

type api struct {
	http.Handler
	cfg     config.Config
	dataDir string
	sse     *sse.Server
	// store is optional; runs are kept when it is set.
	store *export.SQLite
}

// probeResult is one probed point. Invalid points never touched the bed.
type probeResult struct {
	coord.Point
	Valid bool
}

// runEvent is published on /events/runs.
type runEvent struct {
	ID    string        `json:"id"`
	State string        `json:"state"`
	Stats *interp.Stats `json:"stats,omitempty"`
	Error string        `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func newAPI(cfg config.Config, dir string, store *export.SQLite) *api {
	r := mux.NewRouter()

	a := &api{
		Handler: r,
		cfg:     cfg,
		dataDir: dir,
		store:   store,
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(ioutil.Discard, "", 0),
		}),
	}

	fs := http.FileServer(http.Dir(dir))
	r.PathPrefix("/data/").Handler(http.StripPrefix("/data", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case "GET":
			fs.ServeHTTP(w, req)
		case "PUT":
			a.putFile(w, req)
		case "DELETE":
			a.deleteFile(w, req)
		default:
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	})))

	r.HandleFunc("/api/expand", a.expand).Methods("POST")
	r.HandleFunc("/api/expand/ws", a.expandWS)
	r.HandleFunc("/api/mesh", a.putMesh).Methods("POST")
	r.HandleFunc("/api/runs/{id}", a.getRun).Methods("GET")

	r.PathPrefix("/events/").Handler(a.sse)

	return a
}

func safePath(base, name string) (bool, string) {
	if filepath.Separator != '/' && strings.ContainsRune(name, filepath.Separator) {
		log.Println("invalid path '" + name + "'")
		return false, ""
	}
	dir := base
	if dir == "" {
		dir = "."
	}
	fullName := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+name)))
	return true, fullName
}

func (a *api) publish(ev runEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("ERROR: marshal json: %+v", err)
		return
	}
	a.sse.SendMessage("/events/runs", sse.SimpleMessage(string(data)))
}

// runConfig applies the tolerance, strict and units query parameters.
func (a *api) runConfig(req *http.Request) (config.Config, error) {
	c := a.cfg
	if v := req.FormValue("tolerance"); v != "" {
		tol, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c, err
		}
		c.Tolerance = tol
	}
	if v := req.FormValue("strict"); v != "" {
		c.Strictness = config.StrictnessLenient
		if v == "1" {
			c.Strictness = config.StrictnessStrict
		}
	}
	if v := req.FormValue("units"); v != "" {
		c.DefaultUnits = v
	}
	return c, c.Validate()
}

// run interprets a program and records it. Only an invalid config yields
// a nil Result.
func (a *api) run(ctx context.Context, r gcode.Reader, c config.Config) (*interp.Result, error) {
	res, err := interp.Run(ctx, r, c)
	if res == nil {
		return nil, err
	}

	ev := runEvent{ID: res.ID.String(), State: "finished"}
	st := res.Stats()
	ev.Stats = &st
	if err != nil {
		ev.State = "failed"
		ev.Error = err.Error()
	}
	a.publish(ev)

	if a.store != nil {
		if serr := a.store.Save(context.WithoutCancel(ctx), res.ID.String(), res); serr != nil {
			log.Printf("ERROR: save run %s: %+v", res.ID, serr)
		}
	}
	return res, err
}

func (a *api) expand(w http.ResponseWriter, req *http.Request) {
	c, err := a.runConfig(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body io.Reader = req.Body
	if name := req.FormValue("file"); name != "" {
		ok, fullName := safePath(a.dataDir, name)
		if !ok {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		f, err := os.Open(fullName)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		defer f.Close()
		body = f
	}

	opts := outputOptions{format: req.FormValue("format"), points: req.FormValue("points") == "1"}
	res, err := a.run(req.Context(), gcode.NewReader(body), c)
	if res == nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if errors.Is(err, interp.ErrStrict) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		log.Printf("ERROR: run %s: %+v", res.ID, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if req.FormValue("level") == "1" {
		opts.format = formatGCode
		opts.leveler, err = a.loadGrid(res)
		if err != nil {
			http.Error(w, "load mesh: "+err.Error(), http.StatusConflict)
			return
		}
	}

	// buffered so a failed write can still become an error response
	var buf bytes.Buffer
	if err := writeResult(&buf, res, opts); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", contentType(opts.format))
	w.Header().Set("X-Run-ID", res.ID.String())
	_, err = buf.WriteTo(w)
	if err != nil {
		log.Println("ERROR: write:", err)
	}
}

// wsRequest is the first message sent on /api/expand/ws.
type wsRequest struct {
	Program string         `json:"program"`
	Config  *config.Config `json:"config,omitempty"`
	Points  bool           `json:"points"`
}

// wsDone is the last message of a websocket run.
type wsDone struct {
	Type  string       `json:"type"`
	ID    string       `json:"id"`
	Stats interp.Stats `json:"stats"`
	Error string       `json:"error,omitempty"`
}

func (a *api) expandWS(w http.ResponseWriter, req *http.Request) {
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Println("ERROR: upgrade:", err)
		return
	}
	defer ws.Close()

	var r wsRequest
	if err := ws.ReadJSON(&r); err != nil {
		log.Println("ERROR: read request:", err)
		return
	}
	c := a.cfg
	if r.Config != nil {
		c = *r.Config
	}

	res, err := a.run(req.Context(), gcode.SplitLines(r.Program), c)
	if res == nil {
		ws.WriteJSON(wsDone{Type: "done", Error: err.Error()})
		return
	}

	for m := range export.Messages(res, export.Options{Points: r.Points}) {
		if err := ws.WriteJSON(m); err != nil {
			log.Println("ERROR: write:", err)
			return
		}
	}
	done := wsDone{Type: "done", ID: res.ID.String(), Stats: res.Stats()}
	if err != nil {
		done.Error = err.Error()
	}
	ws.WriteJSON(done)
}

func (a *api) putMesh(w http.ResponseWriter, req *http.Request) {
	var probes []probeResult
	if err := json.NewDecoder(req.Body).Decode(&probes); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := meshlevel.NewMesh(validPoints(probes)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ok, name := safePath(a.dataDir, gridFile)
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	os.MkdirAll(filepath.Dir(name), 0755)
	data, err := json.Marshal(probes)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := ioutil.WriteFile(name, data, 0644); err != nil {
		log.Printf("ERROR: create '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validPoints(probes []probeResult) []coord.Point {
	var pts []coord.Point
	for _, p := range probes {
		if p.Valid {
			pts = append(pts, p.Point)
		}
	}
	return pts
}

func (a *api) loadGrid(res *interp.Result) (*meshlevel.Leveler, error) {
	ok, name := safePath(a.dataDir, gridFile)
	if !ok {
		return nil, errors.New("invalid grid path")
	}
	data, err := ioutil.ReadFile(name)
	if err != nil {
		return nil, err
	}
	var probes []probeResult
	if err := json.Unmarshal(data, &probes); err != nil {
		return nil, err
	}
	return newLeveler(validPoints(probes), 1, res.Sampler())
}

func (a *api) getRun(w http.ResponseWriter, req *http.Request) {
	if a.store == nil {
		http.Error(w, "runs are not stored", http.StatusNotFound)
		return
	}
	id := mux.Vars(req)["id"]
	recs, err := a.store.Segments(req.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	diags, err := a.store.Diagnostics(req.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(recs) == 0 && len(diags) == 0 {
		http.NotFound(w, req)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(struct {
		ID          string            `json:"id"`
		Segments    []export.Record   `json:"segments"`
		Diagnostics []diag.Diagnostic `json:"diagnostics"`
	}{id, recs, diags})
	if err != nil {
		log.Println("ERROR: encode:", err)
	}
}

func (a *api) putFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, req.URL.Path)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	os.MkdirAll(filepath.Dir(name), 0755)
	f, err := os.Create(name)
	if err != nil {
		log.Printf("ERROR: create '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}
	defer f.Close()
	_, err = io.Copy(f, req.Body)
	if err != nil {
		log.Printf("ERROR: write '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}
}

func (a *api) deleteFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, req.URL.Path)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	err := os.Remove(name)
	if err != nil {
		log.Printf("ERROR: delete '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}
}
