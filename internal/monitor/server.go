package monitor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lightdimmer/internal/metrics"
)

// Mux routes the monitor endpoints.
func (s *State) Mux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleStatusWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/console", s.console.HandleWS)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.Handle("/metrics", metrics.Handler())
	return withCORS(mux)
}

// Serve listens on addr until ctx is done.
func (s *State) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Mux(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go s.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("monitor listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
