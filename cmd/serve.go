package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coral-atlas/poi-cli/internal/bounds"
	"github.com/coral-atlas/poi-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review API server",
	Long: `Serves the small read-only API behind the curator review UI:
health, the latest audit report, and one-shot coordinate validation.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reportPath, _ := cmd.Flags().GetString("report")

		validator, err := buildValidator()
		if err != nil {
			return err
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet},
		}))

		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/report", func(w http.ResponseWriter, _ *http.Request) {
			data, readErr := os.ReadFile(reportPath)
			if readErr != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report available"})
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
		})

		r.Get("/validate", func(w http.ResponseWriter, req *http.Request) {
			lat, latErr := strconv.ParseFloat(req.URL.Query().Get("lat"), 64)
			lng, lngErr := strconv.ParseFloat(req.URL.Query().Get("lng"), 64)
			if latErr != nil || lngErr != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lat and lng are required"})
				return
			}
			category := req.URL.Query().Get("category")

			verdict := validator.Validate(lat, lng, category)
			writeJSON(w, http.StatusOK, verdictResponse(validator, verdict, lat, lng))
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
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

type validateResponse struct {
	Valid        bool               `json:"valid"`
	Island       string             `json:"island,omitempty"`
	Reason       string             `json:"reason,omitempty"`
	SuggestedFix *model.Coordinates `json:"suggested_fix,omitempty"`
}

func verdictResponse(v *bounds.Validator, verdict bounds.Verdict, lat, lng float64) validateResponse {
	resp := validateResponse{
		Valid:        verdict.Valid,
		Reason:       verdict.Reason,
		SuggestedFix: verdict.SuggestedFix,
	}
	if verdict.Valid {
		resp.Island = v.IslandFor(lat, lng)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().String("report", "audit-report.json", "audit report served at /report")
	rootCmd.AddCommand(serveCmd)
}
