package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"lmsadmin/internal/client"
	"lmsadmin/internal/errdefs"
	"lmsadmin/internal/logging"
	"lmsadmin/internal/resource"
	"lmsadmin/internal/session"
)

const (
	ConfirmHeader  = "X-Confirm"
	maxUploadBytes = 10 << 20
	dataField      = "data"
)

// Controller is the view API of one resource; *resource.Controller implements it.
type Controller interface {
	Path() string
	List(ctx context.Context, sess *session.Session, values url.Values) (resource.ListView, error)
	Detail(ctx context.Context, sess *session.Session, id string) (resource.DetailView, error)
	Dialog(ctx context.Context, sess *session.Session, id string, a resource.Action) (resource.Dialog, error)
	Act(ctx context.Context, sess *session.Session, id string, a resource.Action, confirm string) (resource.ListView, error)
	Update(ctx context.Context, sess *session.Session, id string, patch map[string]any, files ...client.File) (resource.EditResult, error)
}

type ResourceHandler struct {
	c Controller
}

func NewResourceHandler(c Controller) *ResourceHandler {
	return &ResourceHandler{c: c}
}

func (h *ResourceHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Group(func(r chi.Router) {
		r.Route("/"+h.c.Path(), func(r chi.Router) {
			r.Get("/", h.List)
			r.Get("/{id}", h.Detail)
			r.Get("/{id}/dialog", h.Dialog)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}/soft", h.SoftDelete)
			r.Delete("/{id}/hard", h.HardDelete)
			r.Patch("/{id}/restore", h.Restore)
		})
	})
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	view, err := h.c.List(r.Context(), sess, r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ResourceHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess, _ := session.FromContext(r.Context())
	view, err := h.c.Detail(r.Context(), sess, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ResourceHandler) Dialog(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	action, err := resource.ParseAction(r.URL.Query().Get("action"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess, _ := session.FromContext(r.Context())
	dlg, err := h.c.Dialog(r.Context(), sess, id, action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dlg)
}

func (h *ResourceHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, resource.ActionSoftDelete)
}

func (h *ResourceHandler) HardDelete(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, resource.ActionHardDelete)
}

func (h *ResourceHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, resource.ActionRestore)
}

func (h *ResourceHandler) act(w http.ResponseWriter, r *http.Request, action resource.Action) {
	id, err := parsePathParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess, _ := session.FromContext(r.Context())
	view, err := h.c.Act(r.Context(), sess, id, action, r.Header.Get(ConfirmHeader))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Update accepts a JSON patch, or multipart with the patch as JSON in the
// "data" field next to the uploaded files.
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parsePathParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var (
		patch map[string]any
		files []client.File
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		patch, files, err = parseMultipart(r)
		if err != nil {
			logging.FromContext(ctx).Error(ctx, "Failed to parse multipart body", zap.Error(err))
			writeError(w, r, err)
			return
		}
		defer r.MultipartForm.RemoveAll()
		defer closeFiles(files)
	} else {
		patch, err = parsePatch(r.Body)
		if err != nil {
			logging.FromContext(ctx).Error(ctx, "Failed to parse request body", zap.Error(err))
			writeError(w, r, err)
			return
		}
	}

	sess, _ := session.FromContext(ctx)
	res, err := h.c.Update(ctx, sess, id, patch, files...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func parsePatch(body io.Reader) (map[string]any, error) {
	var patch map[string]any
	if err := json.NewDecoder(body).Decode(&patch); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("%w: invalid request body", ErrBadRequest)
	}
	return patch, nil
}

func parseMultipart(r *http.Request) (map[string]any, []client.File, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid multipart body", ErrBadRequest)
	}

	patch := map[string]any{}
	if raw := r.MultipartForm.Value[dataField]; len(raw) > 0 && raw[0] != "" {
		if err := json.Unmarshal([]byte(raw[0]), &patch); err != nil {
			return nil, nil, errdefs.NewValidationError(dataField, "data must be a JSON object")
		}
	}

	names := make([]string, 0, len(r.MultipartForm.File))
	for name := range r.MultipartForm.File {
		names = append(names, name)
	}
	sort.Strings(names)

	var files []client.File
	for _, name := range names {
		for _, fh := range r.MultipartForm.File[name] {
			f, err := fh.Open()
			if err != nil {
				closeFiles(files)
				return nil, nil, fmt.Errorf("open upload %s: %w", name, err)
			}
			files = append(files, client.File{Field: name, Name: fh.Filename, Reader: f})
		}
	}
	return patch, files, nil
}

func closeFiles(files []client.File) {
	for _, f := range files {
		if c, ok := f.Reader.(io.Closer); ok {
			c.Close()
		}
	}
}
