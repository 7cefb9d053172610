package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/reelforge/reelforge/internal/auth"
)

// (GET /api/v1/completions/{jobId})
func (h *ServiceHandler) GetCompletion(w http.ResponseWriter, r *http.Request) {
	record, err := h.completionSrv.Get(r.Context(), auth.MustHaveUser(r.Context()), chi.URLParam(r, "jobId"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, completionToReply(record))
}

// (POST /api/v1/completions/{jobId}/script)
func (h *ServiceHandler) GenerateScript(w http.ResponseWriter, r *http.Request) {
	record, err := h.completionSrv.GenerateScript(r.Context(), auth.MustHaveUser(r.Context()), chi.URLParam(r, "jobId"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, completionToReply(record))
}

// (POST /api/v1/completions/{jobId}/copy)
func (h *ServiceHandler) GenerateCopy(w http.ResponseWriter, r *http.Request) {
	// the body is optional
	var req GenerateCopyRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, r, "invalid request body: %v", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		renderError(w, r, err)
		return
	}

	record, err := h.completionSrv.GenerateCopy(r.Context(), auth.MustHaveUser(r.Context()), chi.URLParam(r, "jobId"), req.Platforms)
	if err != nil {
		renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, completionToReply(record))
}
