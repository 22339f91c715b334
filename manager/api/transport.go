package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fedwatch/fedwatch/manager"
	"github.com/fedwatch/fedwatch/pkg/api"
)

func MakeHandler(svc manager.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/participants", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listParticipantsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-participants").ServeHTTP)
		r.Route("/{participantID}", func(r chi.Router) {
			r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
				getParticipantEndpoint(svc),
				decodeEntityReq("participantID"),
				api.EncodeResponse,
				opts...,
			), "get-participant").ServeHTTP)
			r.Delete("/", otelhttp.NewHandler(kithttp.NewServer(
				deleteParticipantEndpoint(svc),
				decodeEntityReq("participantID"),
				api.EncodeResponse,
				opts...,
			), "delete-participant").ServeHTTP)
		})
	})

	mux.Route("/models", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listModelsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-models").ServeHTTP)
		r.Get("/latest", otelhttp.NewHandler(kithttp.NewServer(
			latestModelEndpoint(svc),
			decodeNopReq,
			api.EncodeResponse,
			opts...,
		), "latest-model").ServeHTTP)
		r.Get("/{version}", otelhttp.NewHandler(kithttp.NewServer(
			getModelEndpoint(svc),
			decodeModelReq,
			api.EncodeResponse,
			opts...,
		), "get-model").ServeHTTP)
	})

	mux.Route("/sessions", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			runSessionEndpoint(svc),
			decodeSessionReq,
			api.EncodeResponse,
			opts...,
		), "run-session").ServeHTTP)
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listSessionsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-sessions").ServeHTTP)
		r.Get("/{sessionID}", otelhttp.NewHandler(kithttp.NewServer(
			getSessionEndpoint(svc),
			decodeEntityReq("sessionID"),
			api.EncodeResponse,
			opts...,
		), "get-session").ServeHTTP)
	})

	mux.Route("/drift", func(r chi.Router) {
		r.Post("/check", otelhttp.NewHandler(kithttp.NewServer(
			checkDriftEndpoint(svc),
			decodeDriftCheckReq,
			api.EncodeResponse,
			opts...,
		), "check-drift").ServeHTTP)
	})

	mux.Get("/decisions", otelhttp.NewHandler(kithttp.NewServer(
		listDecisionsEndpoint(svc),
		decodeListEntityReq,
		api.EncodeResponse,
		opts...,
	), "list-decisions").ServeHTTP)

	mux.Get("/health", supermq.Health("manager", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeEntityReq(key string) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (any, error) {
		return entityReq{
			id: chi.URLParam(r, key),
		}, nil
	}
}

func decodeNopReq(_ context.Context, _ *http.Request) (any, error) {
	return nil, nil
}

func decodeModelReq(_ context.Context, r *http.Request) (any, error) {
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return modelReq{
		version: version,
	}, nil
}

func decodeSessionReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req sessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeDriftCheckReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req driftCheckReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeListEntityReq(_ context.Context, r *http.Request) (any, error) {
	o, err := apiutil.ReadNumQuery[uint64](r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return listEntityReq{
		offset: o,
		limit:  l,
	}, nil
}
