package v1

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/reelforge/reelforge/internal/auth"
)

// (GET /api/v1/account)
func (h *ServiceHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountSrv.Get(r.Context(), auth.MustHaveUser(r.Context()))
	if err != nil {
		renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, accountToReply(account))
}

// (GET /api/v1/account/quote)
func (h *ServiceHandler) QuoteAccount(w http.ResponseWriter, r *http.Request) {
	quote, err := h.accountSrv.Quote(r.Context(), auth.MustHaveUser(r.Context()), r.URL.Query().Get("duration"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, quoteToReply(quote))
}

// (GET /api/v1/voices)
func (h *ServiceHandler) ListVoices(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	account, err := h.accountSrv.Get(r.Context(), user)
	if err != nil {
		renderError(w, r, err)
		return
	}

	voices, err := h.accountSrv.Voices(r.Context(), user)
	if err != nil {
		renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, voicesToReply(account.Plan, voices))
}
