package agent

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fedwatch/fedwatch/pkg/fl"
)

const contentTypeJSON = "application/json"

// Handler serves the training endpoints the coordinator's HTTP participant
// adapter calls.
func (a *Agent) Handler() http.Handler {
	mux := chi.NewRouter()

	mux.Post("/fit", otelhttp.NewHandler(http.HandlerFunc(a.handleFit), "fit").ServeHTTP)
	mux.Post("/evaluate", otelhttp.NewHandler(http.HandlerFunc(a.handleEvaluate), "evaluate").ServeHTTP)
	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		if err := json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"id":      a.cfg.ID,
			"node_id": a.cfg.NodeID,
		}); err != nil {
			a.logger.Warn("failed to encode health response", slog.Any("error", err))
		}
	})

	return mux
}

func (a *Agent) handleFit(w http.ResponseWriter, r *http.Request) {
	var params fl.ParameterSet
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	result, err := a.participant().Fit(r.Context(), params)
	if err != nil {
		a.logger.Error("local training failed", slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	a.logger.Info("local training completed",
		slog.Int("examples", result.NumExamples))

	w.Header().Set("Content-Type", contentTypeJSON)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		a.logger.Warn("failed to encode fit response", slog.Any("error", err))
	}
}

func (a *Agent) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var params fl.ParameterSet
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	result, err := a.participant().Evaluate(r.Context(), params)
	if err != nil {
		a.logger.Error("local evaluation failed", slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		a.logger.Warn("failed to encode evaluate response", slog.Any("error", err))
	}
}
