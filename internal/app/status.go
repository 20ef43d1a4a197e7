package app

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// startStatusServer binds the status listener and serves /health and
// /report for the duration of the process. Binding is synchronous, so the
// address is reachable as soon as this returns; port 0 picks a free one.
func (a *App) startStatusServer(port int) error {
	a.logger.Debug("Configuring status server.")

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		a.logger.Debug("Health endpoint hit.", "remote_addr", req.RemoteAddr)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	r.Get("/report", func(w http.ResponseWriter, req *http.Request) {
		rep := a.LatestReport()
		if rep == nil {
			http.Error(w, "no finalized run report yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rep); err != nil {
			a.logger.Error("Could not encode run report.", "error", err)
		}
	})

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("binding status server: %w", err)
	}
	a.statusAddr = ln.Addr().String()

	go func() {
		a.logger.Info("🩺 Status server starting", "address", a.statusAddr)
		if err := http.Serve(ln, r); err != nil {
			a.logger.Error("Status server failed", "error", err)
		}
	}()
	return nil
}

// StatusAddr returns the bound status server address, empty before start.
func (a *App) StatusAddr() string {
	return a.statusAddr
}
