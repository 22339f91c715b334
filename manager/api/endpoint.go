package api

import (
	"context"
	"errors"

	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"

	"github.com/fedwatch/fedwatch/manager"
	pkgerrors "github.com/fedwatch/fedwatch/pkg/errors"
)

func listParticipantsEndpoint(svc manager.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listParticipantResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listParticipantResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		participants, err := svc.ListParticipants(ctx, req.offset, req.limit)
		if err != nil {
			return listParticipantResponse{}, err
		}

		return listParticipantResponse{
			ParticipantPage: participants,
		}, nil
	}
}

func getParticipantEndpoint(svc manager.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return participantResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return participantResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		p, err := svc.GetParticipant(ctx, req.id)
		if err != nil {
			return participantResponse{}, err
		}

		return participantResponse{
			Participant: p,
		}, nil
	}
}

func deleteParticipantEndpoint(svc manager.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return participantResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return participantResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		if err := svc.DeleteParticipant(ctx, req.id); err != nil {
			return participantResponse{}, err
		}

		return participantResponse{
			deleted: true,
		}, nil
	}
}

func listModelsEndpoint(svc manager.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listModelResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listModelResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		models, err := svc.ListModels(ctx, req.offset, req.limit)
		if err != nil {
			return listModelResponse{}, err
		}

		return listModelResponse{
			ModelPage: models,
		}, nil
	}
}

func getModelEndpoint(svc manager.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(modelReq)
		if !ok {
			return modelResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return modelResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		model, err := svc.GetModel(ctx, req.version)
		if err != nil {
			return modelResponse{}, err
		}

		return modelResponse{
			ModelVersion: model,
		}, nil
	}
}

func latestModelEndpoint(svc manager.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		model, err := svc.LatestModel(ctx)
		if err != nil {
			return modelResponse{}, err
		}

		return modelResponse{
			ModelVersion: model,
		}, nil
	}
}

func runSessionEndpoint(svc manager.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(sessionReq)
		if !ok {
			return sessionResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return sessionResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		session, err := svc.RunTrainingSession(ctx, req.SessionSpec)
		if err != nil {
			return sessionResponse{}, err
		}

		return sessionResponse{
			Session: session,
			created: true,
		}, nil
	}
}

func listSessionsEndpoint(svc manager.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listSessionResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listSessionResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		sessions, err := svc.ListSessions(ctx, req.offset, req.limit)
		if err != nil {
			return listSessionResponse{}, err
		}

		return listSessionResponse{
			SessionPage: sessions,
		}, nil
	}
}

func getSessionEndpoint(svc manager.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return sessionResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return sessionResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		session, err := svc.GetSession(ctx, req.id)
		if err != nil {
			return sessionResponse{}, err
		}

		return sessionResponse{
			Session: session,
		}, nil
	}
}

func checkDriftEndpoint(svc manager.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(driftCheckReq)
		if !ok {
			return decisionResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return decisionResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		decision, err := svc.CheckDrift(ctx, req.DriftCheckSpec)
		if err != nil {
			return decisionResponse{}, err
		}

		return decisionResponse{
			Decision: decision,
		}, nil
	}
}

func listDecisionsEndpoint(svc manager.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listDecisionResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listDecisionResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		decisions, err := svc.ListDecisions(ctx, req.offset, req.limit)
		if err != nil {
			return listDecisionResponse{}, err
		}

		return listDecisionResponse{
			DecisionPage: decisions,
		}, nil
	}
}
