package v1

import (
	"github.com/go-chi/chi/v5"
	"github.com/reelforge/reelforge/internal/handlers/validator"
	"github.com/reelforge/reelforge/internal/live"
	"github.com/reelforge/reelforge/internal/service"
)

const (
	VideosPath      = "/api/v1/videos"
	CompletionsPath = "/api/v1/completions"
	AccountPath     = "/api/v1/account"
	VoicesPath      = "/api/v1/voices"
	WebhooksPath    = "/api/v1/webhooks"
)

type ServiceHandler struct {
	videoSrv      *service.VideoService
	webhookSrv    *service.WebhookService
	completionSrv *service.CompletionService
	accountSrv    *service.AccountService
	hub           *live.Hub
	validator     *validator.Validator
}

func NewServiceHandler(
	videoService *service.VideoService,
	webhookService *service.WebhookService,
	completionService *service.CompletionService,
	accountService *service.AccountService,
	hub *live.Hub,
) *ServiceHandler {
	v := validator.NewValidator()
	v.Register(validator.NewVideoValidationRules()...)
	v.Register(validator.NewCompletionValidationRules()...)

	return &ServiceHandler{
		videoSrv:      videoService,
		webhookSrv:    webhookService,
		completionSrv: completionService,
		accountSrv:    accountService,
		hub:           hub,
		validator:     v,
	}
}

// RegisterAPI mounts the routes that require an authenticated user.
func (h *ServiceHandler) RegisterAPI(r chi.Router) {
	r.Route(VideosPath, func(r chi.Router) {
		r.Post("/", h.CreateVideo)
		r.Get("/", h.ListVideos)
		r.Post("/generate", h.GenerateVideo)
		r.Get("/status", h.VideoStatus)
		r.Post("/edit", h.EditVideo)
		r.Post("/refresh", h.RefreshVideo)
		r.Get("/{id}", h.GetVideo)
		r.Get("/{id}/watch", h.WatchVideo)
	})

	r.Route(CompletionsPath+"/{jobId}", func(r chi.Router) {
		r.Get("/", h.GetCompletion)
		r.Post("/script", h.GenerateScript)
		r.Post("/copy", h.GenerateCopy)
	})

	r.Get(AccountPath, h.GetAccount)
	r.Get(AccountPath+"/quote", h.QuoteAccount)
	r.Get(VoicesPath, h.ListVoices)
}

// RegisterWebhooks mounts the vendor callbacks. They authenticate with the
// shared token instead of a bearer token.
func (h *ServiceHandler) RegisterWebhooks(r chi.Router) {
	r.Post(WebhooksPath+"/compositor", h.CompositorWebhook)
	r.Post(WebhooksPath+"/avatar", h.AvatarWebhook)
}
