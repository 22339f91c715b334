package api

import (
	"net/http"

	"github.com/absmach/supermq"

	"github.com/fedwatch/fedwatch/coordinator"
	"github.com/fedwatch/fedwatch/manager"
	"github.com/fedwatch/fedwatch/participant"
	"github.com/fedwatch/fedwatch/trigger"
)

var (
	_ supermq.Response = (*participantResponse)(nil)
	_ supermq.Response = (*listParticipantResponse)(nil)
	_ supermq.Response = (*modelResponse)(nil)
	_ supermq.Response = (*listModelResponse)(nil)
	_ supermq.Response = (*sessionResponse)(nil)
	_ supermq.Response = (*listSessionResponse)(nil)
	_ supermq.Response = (*decisionResponse)(nil)
	_ supermq.Response = (*listDecisionResponse)(nil)
)

type participantResponse struct {
	participant.Participant
	deleted bool
}

func (p participantResponse) Code() int {
	if p.deleted {
		return http.StatusNoContent
	}

	return http.StatusOK
}

func (p participantResponse) Headers() map[string]string {
	return map[string]string{}
}

func (p participantResponse) Empty() bool {
	return p.deleted
}

type listParticipantResponse struct {
	participant.ParticipantPage
}

func (l listParticipantResponse) Code() int {
	return http.StatusOK
}

func (l listParticipantResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listParticipantResponse) Empty() bool {
	return false
}

type modelResponse struct {
	manager.ModelVersion
}

func (m modelResponse) Code() int {
	return http.StatusOK
}

func (m modelResponse) Headers() map[string]string {
	return map[string]string{}
}

func (m modelResponse) Empty() bool {
	return false
}

type listModelResponse struct {
	manager.ModelPage
}

func (l listModelResponse) Code() int {
	return http.StatusOK
}

func (l listModelResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listModelResponse) Empty() bool {
	return false
}

type sessionResponse struct {
	coordinator.Session
	created bool
}

func (s sessionResponse) Code() int {
	if s.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (s sessionResponse) Headers() map[string]string {
	if s.created {
		return map[string]string{
			"Location": "/sessions/" + s.ID,
		}
	}

	return map[string]string{}
}

func (s sessionResponse) Empty() bool {
	return false
}

type listSessionResponse struct {
	manager.SessionPage
}

func (l listSessionResponse) Code() int {
	return http.StatusOK
}

func (l listSessionResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listSessionResponse) Empty() bool {
	return false
}

type decisionResponse struct {
	trigger.Decision
}

func (d decisionResponse) Code() int {
	return http.StatusOK
}

func (d decisionResponse) Headers() map[string]string {
	return map[string]string{}
}

func (d decisionResponse) Empty() bool {
	return false
}

type listDecisionResponse struct {
	manager.DecisionPage
}

func (l listDecisionResponse) Code() int {
	return http.StatusOK
}

func (l listDecisionResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listDecisionResponse) Empty() bool {
	return false
}
