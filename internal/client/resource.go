package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"lmsadmin/internal/domain"
	"lmsadmin/internal/errdefs"
	"lmsadmin/internal/query"
	"lmsadmin/internal/session"
)

// RestoreStyle is how a backend resource undoes a soft delete.
type RestoreStyle int

const (
	RestoreEndpoint RestoreStyle = iota // PATCH /<path>/restore/<id>
	RestorePatch                        // PATCH /<path>/<id> {"isDeleted": false}
)

type Endpoint struct {
	Path    string
	Restore RestoreStyle
	Sort    query.SortStyle
}

type Page[T any] struct {
	Items []T         `json:"items"`
	Meta  domain.Meta `json:"meta"`
}

type File struct {
	Field  string
	Name   string
	Reader io.Reader
}

// Resource is the uniform contract every screen uses, whatever the backend's
// conventions for that resource are.
type Resource[T any] struct {
	b  *Backend
	ep Endpoint
}

func NewResource[T any](b *Backend, ep Endpoint) *Resource[T] {
	return &Resource[T]{b: b, ep: ep}
}

func (r *Resource[T]) Endpoint() Endpoint {
	return r.ep
}

func (r *Resource[T]) List(ctx context.Context, sess *session.Session, values url.Values) (Page[T], error) {
	var page Page[T]
	req, err := r.b.request(ctx, sess)
	if err != nil {
		return page, err
	}
	data, err := r.b.do(ctx, req.SetQueryParamsFromValues(values), http.MethodGet, "/"+r.ep.Path)
	if err != nil {
		return page, err
	}

	var payload struct {
		Data []json.RawMessage `json:"data"`
		Meta *domain.Meta      `json:"meta"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return page, &errdefs.DecodeError{Resource: r.ep.Path, Err: err}
	}
	if payload.Meta == nil {
		return page, &errdefs.DecodeError{Resource: r.ep.Path, Err: fmt.Errorf("missing meta")}
	}

	page.Meta = *payload.Meta
	page.Items = make([]T, len(payload.Data))
	for i, raw := range payload.Data {
		if err := decodeRecord(r.b.validate, r.ep.Path, raw, &page.Items[i]); err != nil {
			return Page[T]{}, err
		}
	}
	return page, nil
}

func (r *Resource[T]) Get(ctx context.Context, sess *session.Session, id string) (T, error) {
	var rec T
	req, err := r.b.request(ctx, sess)
	if err != nil {
		return rec, err
	}
	data, err := r.b.do(ctx, req, http.MethodGet, r.itemPath(id))
	if err != nil {
		return rec, err
	}
	err = decodeRecord(r.b.validate, r.ep.Path, data, &rec)
	return rec, err
}

// Update sends the changed fields. With files attached the body is multipart
// and non-string values travel JSON-encoded.
func (r *Resource[T]) Update(ctx context.Context, sess *session.Session, id string, changes map[string]any, files ...File) (T, error) {
	var rec T
	req, err := r.b.request(ctx, sess)
	if err != nil {
		return rec, err
	}

	if len(files) == 0 {
		req.SetBody(changes)
	} else {
		form, err := multipartFields(changes)
		if err != nil {
			return rec, err
		}
		req.SetMultipartFormData(form)
		for _, f := range files {
			req.SetFileReader(f.Field, f.Name, f.Reader)
		}
	}

	data, err := r.b.do(ctx, req, http.MethodPatch, r.itemPath(id))
	if err != nil {
		return rec, err
	}
	err = decodeRecord(r.b.validate, r.ep.Path, data, &rec)
	return rec, err
}

func (r *Resource[T]) SoftDelete(ctx context.Context, sess *session.Session, id string) error {
	return r.send(ctx, sess, http.MethodDelete, "/"+r.ep.Path+"/soft/"+url.PathEscape(id), nil)
}

func (r *Resource[T]) HardDelete(ctx context.Context, sess *session.Session, id string) error {
	return r.send(ctx, sess, http.MethodDelete, "/"+r.ep.Path+"/hard/"+url.PathEscape(id), nil)
}

func (r *Resource[T]) Restore(ctx context.Context, sess *session.Session, id string) error {
	if r.ep.Restore == RestorePatch {
		return r.send(ctx, sess, http.MethodPatch, r.itemPath(id), map[string]any{"isDeleted": false})
	}
	return r.send(ctx, sess, http.MethodPatch, "/"+r.ep.Path+"/restore/"+url.PathEscape(id), nil)
}

func (r *Resource[T]) send(ctx context.Context, sess *session.Session, method, path string, body any) error {
	req, err := r.b.request(ctx, sess)
	if err != nil {
		return err
	}
	if body != nil {
		req.SetBody(body)
	}
	_, err = r.b.do(ctx, req, method, path)
	return err
}

func (r *Resource[T]) itemPath(id string) string {
	return "/" + r.ep.Path + "/" + url.PathEscape(id)
}

func multipartFields(changes map[string]any) (map[string]string, error) {
	form := make(map[string]string, len(changes))
	for k, v := range changes {
		switch val := v.(type) {
		case string:
			form[k] = val
		case nil:
			form[k] = ""
		default:
			raw, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("encode field %s: %w", k, err)
			}
			form[k] = string(raw)
		}
	}
	return form, nil
}
