package api

import (
	apiutil "github.com/absmach/supermq/api/http/util"

	"github.com/fedwatch/fedwatch/manager"
)

type sessionReq struct {
	manager.SessionSpec `json:",inline"`
}

func (s *sessionReq) validate() error {
	if s.Rounds < 0 {
		return apiutil.ErrValidation
	}
	if s.MinParticipants < 0 {
		return apiutil.ErrValidation
	}
	if s.TimeoutSeconds < 0 {
		return apiutil.ErrValidation
	}

	return nil
}

type driftCheckReq struct {
	manager.DriftCheckSpec `json:",inline"`
}

func (d *driftCheckReq) validate() error {
	if d.Threshold < 0 {
		return apiutil.ErrValidation
	}

	return nil
}

type entityReq struct {
	id string
}

func (e *entityReq) validate() error {
	if e.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type modelReq struct {
	version int
}

func (m *modelReq) validate() error {
	if m.version < 0 {
		return apiutil.ErrValidation
	}

	return nil
}

type listEntityReq struct {
	offset, limit uint64
}

func (e *listEntityReq) validate() error {
	return nil
}
