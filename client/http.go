package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	pkgerrors "github.com/fedwatch/fedwatch/pkg/errors"
	"github.com/fedwatch/fedwatch/pkg/fl"
)

const contentTypeJSON = "application/json"

// HTTP is a participant reachable over a request/response channel. The
// remote side exposes POST /fit and POST /evaluate taking the global
// parameters and returning its result.
type HTTP struct {
	id      string
	baseURL string
	client  *http.Client
}

func NewHTTP(id, baseURL string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTP{
		id:      id,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTP) ID() string { return h.id }

func (h *HTTP) Fit(ctx context.Context, params fl.ParameterSet) (fl.FitResult, error) {
	var result fl.FitResult
	if err := h.post(ctx, "/fit", params, &result); err != nil {
		return fl.FitResult{}, err
	}
	if result.ParticipantID == "" {
		result.ParticipantID = h.id
	}

	return result, nil
}

func (h *HTTP) Evaluate(ctx context.Context, params fl.ParameterSet) (fl.EvalResult, error) {
	var result fl.EvalResult
	if err := h.post(ctx, "/evaluate", params, &result); err != nil {
		return fl.EvalResult{}, err
	}
	if result.ParticipantID == "" {
		result.ParticipantID = h.id
	}

	return result, nil
}

func (h *HTTP) post(ctx context.Context, path string, params fl.ParameterSet, out any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentTypeJSON)

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		return fmt.Errorf("%w: %s: %w", pkgerrors.ErrParticipantUnavailable, h.id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", pkgerrors.ErrParticipantUnavailable, h.id, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", h.id, err)
	}

	return nil
}
