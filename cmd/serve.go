package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/fetcher"
	"github.com/sells-group/enrich-cli/internal/pipeline"
	"github.com/sells-group/enrich-cli/internal/store"
)

var (
	servePort    int
	serveOffline bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve enrichment requests over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := initPlatform(ctx, "", serveOffline)
		if err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		p := pipeline.New(cfg.Pipeline, st, client)
		fc := fetcher.NewClient(cfg.Fetch)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(ctx, p, fc, st),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// newRouter wires the HTTP surface: health, enrichment submission, and run
// inspection.
func newRouter(ctx context.Context, p *pipeline.Pipeline, fc *fetcher.Client, st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/enrich", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Source  string `json:"source"`
			Prompt  string `json:"prompt"`
			AgentID string `json:"agent_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if body.Source == "" {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "source is required"})
			return
		}

		// Enrichment outlives the request; progress lands in the store.
		go func() {
			name, data, err := fc.Fetch(ctx, body.Source)
			if err != nil {
				zap.L().Error("serve: fetch source failed",
					zap.String("source", body.Source), zap.Error(err))
				return
			}
			run, err := p.Run(ctx, pipeline.Input{
				Source:   body.Source,
				Filename: name,
				Data:     data,
				Prompt:   body.Prompt,
				AgentID:  defaultAgentID(body.AgentID),
			})
			if err != nil {
				zap.L().Error("serve: enrichment failed",
					zap.String("source", body.Source), zap.Error(err))
				return
			}
			zap.L().Info("serve: enrichment complete",
				zap.String("run_id", run.ID),
				zap.Int("records", len(run.Result.Records)))
		}()

		respondJSON(w, http.StatusAccepted, map[string]string{
			"status": "accepted",
			"source": body.Source,
		})
	})

	r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
		runs, err := st.ListRuns(req.Context(), 50)
		if err != nil {
			respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs failed"})
			return
		}
		for _, run := range runs {
			run.Result = nil
		}
		respondJSON(w, http.StatusOK, runs)
	})

	r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		run, err := st.GetRun(req.Context(), chi.URLParam(req, "id"))
		if eris.Is(err, store.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
			return
		}
		if err != nil {
			respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "get run failed"})
			return
		}
		respondJSON(w, http.StatusOK, run)
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveOffline, "offline", false, "use the stub platform (no API keys needed)")
	rootCmd.AddCommand(serveCmd)
}
