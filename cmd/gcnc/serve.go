package main

import (
	"log"
	"net/http"
	"os"

	"github.com/mastercactapus/gcpath/export"
	"github.com/spf13/cobra"
)

var serveOpts struct {
	runFlags
	addr string
	dir  string
	db   string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interpreter over HTTP",
	Long: `Serve the interpreter over HTTP.

  POST /api/expand      expand the request body (or ?file= from the data dir)
  GET  /api/expand/ws   stream a run over a websocket
  POST /api/mesh        store probe results for ?level=1
  GET  /api/runs/{id}   read a stored run (requires --db)
  /data/                GET, PUT and DELETE files in the data dir
  /events/runs          server-sent run events`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveOpts.addr, "addr", ":9091", "Listen address.")
	f.StringVar(&serveOpts.dir, "dir", "./data", "Data directory.")
	f.StringVar(&serveOpts.db, "db", "", "Store every run in this SQLite database.")
	serveOpts.register(serveCmd)

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	c, err := serveOpts.apply(cmd, cfg)
	if err != nil {
		return err
	}

	err = os.MkdirAll(serveOpts.dir, 0755)
	if err != nil {
		return err
	}

	var store *export.SQLite
	if serveOpts.db != "" {
		store, err = export.OpenSQLite(serveOpts.db)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	a := newAPI(c, serveOpts.dir, store)

	log.Println("Listening:", serveOpts.addr)
	return http.ListenAndServe(serveOpts.addr, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		log.Printf("%s %s - %s", req.Method, req.URL.Path, req.RemoteAddr)
		a.ServeHTTP(w, req)
	}))
}
