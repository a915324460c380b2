// Package client talks to the LMS REST backend. It is the only place that
// knows the backend's envelope, paths and per-resource conventions.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"

	"lmsadmin/internal/errdefs"
	"lmsadmin/internal/logging"
	"lmsadmin/internal/session"
)

const (
	apiPrefix       = "/v1"
	fallbackMessage = "request failed"
)

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Backend struct {
	rc       *resty.Client
	validate *validator.Validate
}

func NewBackend(baseURL string, timeout time.Duration, logger *logging.Logger) *Backend {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	registerHooks(rc, logger)

	return &Backend{rc: rc, validate: validator.New()}
}

// request starts an authenticated call for the given session.
func (b *Backend) request(ctx context.Context, sess *session.Session) (*resty.Request, error) {
	if sess == nil || sess.Token == "" {
		return nil, errdefs.ErrUnauthenticated
	}
	return b.rc.R().SetContext(ctx).SetAuthToken(sess.Token), nil
}

// do sends req and returns the envelope's data on a 2xx, success:true answer.
func (b *Backend) do(ctx context.Context, req *resty.Request, method, path string) (json.RawMessage, error) {
	resp, err := req.Execute(method, apiPrefix+path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &errdefs.FetchError{Message: fmt.Sprintf("backend unreachable: %v", err)}
	}

	var env envelope
	decodeErr := json.Unmarshal(resp.Body(), &env)

	if !resp.IsSuccess() {
		msg := fallbackMessage
		if decodeErr == nil && env.Message != "" {
			msg = env.Message
		}
		return nil, &errdefs.FetchError{Status: resp.StatusCode(), Message: msg}
	}
	if decodeErr != nil {
		if len(bytes.TrimSpace(resp.Body())) == 0 {
			return nil, nil
		}
		return nil, &errdefs.DecodeError{Resource: path, Err: decodeErr}
	}
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = fallbackMessage
		}
		return nil, &errdefs.FetchError{Status: resp.StatusCode(), Message: msg}
	}
	return env.Data, nil
}

// decodeRecord unmarshals and schema-checks one record.
func decodeRecord[T any](v *validator.Validate, resource string, data json.RawMessage, out *T) error {
	if len(data) == 0 || string(data) == "null" {
		return &errdefs.DecodeError{Resource: resource, Err: errors.New("empty data")}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &errdefs.DecodeError{Resource: resource, Err: err}
	}
	if err := v.Struct(out); err != nil {
		return &errdefs.DecodeError{Resource: resource, Err: err}
	}
	return nil
}
