package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/render"
	"github.com/reelforge/reelforge/internal/service"
	"github.com/reelforge/reelforge/internal/store/model"
	"github.com/reelforge/reelforge/pkg/requestid"
	"go.uber.org/zap"
)

// maxWebhookBody bounds what a vendor may post.
const maxWebhookBody = 1 << 20

type applyFn func(payload []byte) (*service.WebhookResult, error)

// (POST /api/v1/webhooks/compositor)
func (h *ServiceHandler) CompositorWebhook(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jobId")
	h.handleWebhook(w, r, func(payload []byte) (*service.WebhookResult, error) {
		return h.webhookSrv.ApplyCompositorCallback(r.Context(), payload, jobID)
	})
}

// (POST /api/v1/webhooks/avatar)
func (h *ServiceHandler) AvatarWebhook(w http.ResponseWriter, r *http.Request) {
	h.handleWebhook(w, r, func(payload []byte) (*service.WebhookResult, error) {
		return h.webhookSrv.ApplyAvatarCallback(r.Context(), payload)
	})
}

// handleWebhook acknowledges every delivery the pipeline could judge, even
// rejected ones, so vendors stop retrying. Unreadable payloads, a wrong token
// and transient failures are answered with an error.
func (h *ServiceHandler) handleWebhook(w http.ResponseWriter, r *http.Request, apply applyFn) {
	if err := h.webhookSrv.Authorize(r.URL.Query().Get(service.WebhookTokenParam)); err != nil {
		_ = render.Render(w, r, ErrorReply{status: http.StatusUnauthorized, Error: err.Error()})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		badRequest(w, r, "failed to read webhook payload: %v", err)
		return
	}

	result, err := apply(payload)
	if err != nil {
		var errNotFound *service.ErrResourceNotFound
		if !errors.As(err, &errNotFound) {
			renderError(w, r, err)
			return
		}
		zap.S().Named("handlers").Warnw("webhook for unknown job", "request_id", requestid.FromRequest(r), "path", r.URL.Path, "error", err)
		_ = render.Render(w, r, WebhookReply{Received: true, Outcome: string(model.WebhookRejected)})
		return
	}

	_ = render.Render(w, r, WebhookReply{Received: true, JobID: result.JobID, Outcome: string(result.Outcome)})
}
