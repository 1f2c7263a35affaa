package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Route is an extra handler served next to /metrics, e.g. the worker's
// health probes which have no other HTTP surface.
type Route struct {
	Pattern string
	Handler http.Handler
}

// StartServer serves /metrics (and any extra routes) on port in the
// background and returns the server's shutdown function.
func StartServer(port int, routes ...Route) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	links := []string{`<a href="/metrics">/metrics</a>`}
	for _, r := range routes {
		mux.Handle(r.Pattern, r.Handler)
		path := r.Pattern
		if i := strings.IndexByte(path, ' '); i >= 0 {
			path = path[i+1:]
		}
		links = append(links, fmt.Sprintf(`<a href="%s">%s</a>`, path, path))
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><h1>Bigram Cryptanalysis Metrics</h1><p>%s</p></body></html>`, strings.Join(links, "<br>"))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr, "extra_routes", len(routes))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
