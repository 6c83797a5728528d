package main

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/derogation-cli/internal/config"
	"github.com/sells-group/derogation-cli/internal/derogation"
	"github.com/sells-group/derogation-cli/internal/layer"
	"github.com/sells-group/derogation-cli/internal/report"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP analysis API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := openLayers(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		session := derogation.NewSession(derogation.NewAnalysis(cfg.Settings(), env.Catalog))

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: buildRouter(session, env.Catalog, cfg.Server, cfg.Report.Locale),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// analysisRequest is the body of POST /v1/analyses.
type analysisRequest struct {
	X         *float64 `json:"x" validate:"required"`
	Y         *float64 `json:"y" validate:"required"`
	Radius    *float64 `json:"radius" validate:"required"`
	ImagePath string   `json:"image_path"`
}

type layerInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// buildRouter wires the HTTP API. Analyses run through session, so only one
// runs at a time and the last success is kept.
func buildRouter(session *derogation.Session, provider layer.Provider, sc config.ServerConfig, locale string) http.Handler {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: sc.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(rateLimit(sc.RateLimit))

		r.Post("/analyses", func(w http.ResponseWriter, r *http.Request) {
			var req analysisRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if err := validate.Struct(req); err != nil {
				writeError(w, http.StatusBadRequest, "x, y and radius are required")
				return
			}

			out := session.Run(r.Context(), derogation.Request{
				Point:     derogation.Point{X: *req.X, Y: *req.Y},
				Radius:    *req.Radius,
				ImagePath: req.ImagePath,
			})
			if !out.OK() {
				writeError(w, failureStatus(out.Failure.Kind), out.Failure.Error())
				return
			}
			writeJSON(w, http.StatusOK, out.Report)
		})

		r.Get("/analyses/last", func(w http.ResponseWriter, r *http.Request) {
			last, ok := session.Last()
			if !ok {
				writeError(w, http.StatusNotFound, "no analysis yet")
				return
			}

			switch r.URL.Query().Get("format") {
			case "", "json":
				writeJSON(w, http.StatusOK, last)
			case "xlsx":
				w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
				w.Header().Set("Content-Disposition", `attachment; filename="derogation.xlsx"`)
				if err := report.WriteXLSX(w, report.FromReport(last), locale); err != nil {
					zap.L().Error("write xlsx report", zap.Error(err))
				}
			case "geojson":
				w.Header().Set("Content-Type", "application/geo+json")
				if err := report.WriteBufferGeoJSON(w, last); err != nil {
					zap.L().Error("write buffer geojson", zap.Error(err))
				}
			default:
				writeError(w, http.StatusBadRequest, "format must be json, xlsx or geojson")
			}
		})

		r.Get("/layers", func(w http.ResponseWriter, r *http.Request) {
			layers, err := provider.Layers(r.Context())
			if err != nil {
				zap.L().Error("list layers", zap.Error(err))
				writeError(w, http.StatusBadGateway, "layer source unavailable")
				return
			}
			out := make([]layerInfo, 0, len(layers))
			for _, l := range layers {
				out = append(out, layerInfo{Name: l.Name(), Type: l.GeometryType()})
			}
			writeJSON(w, http.StatusOK, out)
		})
	})

	return r
}

// rateLimit rejects requests beyond perSecond with 429. Zero or less
// disables limiting.
func rateLimit(perSecond float64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if perSecond <= 0 {
			return next
		}
		limiter := rate.NewLimiter(rate.Limit(perSecond), int(math.Max(1, math.Ceil(perSecond))))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func failureStatus(kind derogation.FailureKind) int {
	switch kind {
	case derogation.FailureInvalidInput:
		return http.StatusUnprocessableEntity
	case derogation.FailureCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
