package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/reelforge/reelforge/internal/auth"
	"github.com/reelforge/reelforge/internal/service"
)

// (POST /api/v1/videos)
func (h *ServiceHandler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req CreateVideoRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "invalid request body: %v", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		renderError(w, r, err)
		return
	}

	job, err := h.videoSrv.CreateDraft(r.Context(), auth.MustHaveUser(r.Context()), req.toForm())
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	_ = render.Render(w, r, videoToReply(job))
}

// (GET /api/v1/videos)
func (h *ServiceHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	filter := service.ListFilter{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = strings.Split(status, ",")
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			badRequest(w, r, "limit must be a positive number")
			return
		}
		filter.Limit = n
	}

	jobs, err := h.videoSrv.ListJobs(r.Context(), auth.MustHaveUser(r.Context()), filter)
	if err != nil {
		renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, videoListToReply(jobs))
}

// (GET /api/v1/videos/{id})
func (h *ServiceHandler) GetVideo(w http.ResponseWriter, r *http.Request) {
	job, err := h.videoSrv.GetJob(r.Context(), auth.MustHaveUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, videoToReply(job))
}

// (POST /api/v1/videos/generate)
func (h *ServiceHandler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	var req GenerateVideoRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "invalid request body: %v", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		renderError(w, r, err)
		return
	}

	result, err := h.videoSrv.Submit(r.Context(), req.JobID, service.SubmitForm{
		Script:   req.Script,
		Title:    req.Title,
		VoiceID:  req.VoiceID,
		AvatarID: req.AvatarID,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	_ = render.Render(w, r, GenerateVideoReply{Accepted: true, VendorJobID: result.VendorJobID, Cost: result.Cost})
}

// (GET /api/v1/videos/status)
func (h *ServiceHandler) VideoStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jobId")
	if strings.TrimSpace(jobID) == "" {
		badRequest(w, r, "jobId query parameter is required")
		return
	}

	view, err := h.videoSrv.CheckStatus(r.Context(), jobID, r.URL.Query().Get("taskId"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, statusToReply(view))
}

// (POST /api/v1/videos/edit)
func (h *ServiceHandler) EditVideo(w http.ResponseWriter, r *http.Request) {
	var req EditVideoRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "invalid request body: %v", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		renderError(w, r, err)
		return
	}

	result, err := h.videoSrv.ReEdit(r.Context(), req.JobID, service.ReEditForm{TemplateID: strings.ToLower(req.TemplateID)})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	_ = render.Render(w, r, EditVideoReply{RenderID: result.RenderID, TemplateID: result.TemplateID})
}

// (POST /api/v1/videos/refresh)
func (h *ServiceHandler) RefreshVideo(w http.ResponseWriter, r *http.Request) {
	var req RefreshVideoRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "invalid request body: %v", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		renderError(w, r, err)
		return
	}

	view, err := h.videoSrv.RefreshURL(r.Context(), auth.MustHaveUser(r.Context()), req.JobID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, statusToReply(view))
}

// (GET /api/v1/videos/{id}/watch)
func (h *ServiceHandler) WatchVideo(w http.ResponseWriter, r *http.Request) {
	job, err := h.videoSrv.GetJob(r.Context(), auth.MustHaveUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	h.hub.ServeJob(w, r, job.ID, statusToReply(h.videoSrv.View(job)))
}
