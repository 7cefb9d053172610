package v1_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	handlers "github.com/reelforge/reelforge/internal/handlers/v1"
	"github.com/reelforge/reelforge/internal/provider/avatar"
	"github.com/reelforge/reelforge/internal/store/model"
)

var _ = Describe("completion and account handlers", func() {
	var api *testAPI

	BeforeEach(func() {
		api = newTestAPI()
		_, err := api.store.Video().Create(context.TODO(), model.VideoJob{ID: "job-1", UserID: "alice", Status: model.StatusDraft, Topic: "Launch"})
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		api.store.Close()
	})

	It("generates and reads back the completions", func() {
		Expect(api.do(http.MethodGet, "/api/v1/completions/job-1", "alice", nil).Code).To(Equal(http.StatusNotFound))

		api.text.text = "Welcome to the launch."
		rec := api.do(http.MethodPost, "/api/v1/completions/job-1/script", "alice", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode[handlers.CompletionReply](rec).Script).To(Equal("Welcome to the launch."))

		api.text.text = `{"shortForm":"short","longForm":"long","social":{"x":"tweet"}}`
		rec = api.do(http.MethodPost, "/api/v1/completions/job-1/copy", "alice", map[string]any{"platforms": []string{"x"}})
		Expect(rec.Code).To(Equal(http.StatusOK))

		rec = api.do(http.MethodGet, "/api/v1/completions/job-1", "alice", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		reply := decode[handlers.CompletionReply](rec)
		Expect(reply.Script).To(Equal("Welcome to the launch."))
		Expect(reply.Social).To(Equal(map[string]string{"x": "tweet"}))
	})

	It("maps an unparsable model answer to a bad gateway", func() {
		api.text.text = "no json here"
		rec := api.do(http.MethodPost, "/api/v1/completions/job-1/copy", "alice", nil)
		Expect(rec.Code).To(Equal(http.StatusBadGateway))
	})

	It("rejects invalid platform names", func() {
		rec := api.do(http.MethodPost, "/api/v1/completions/job-1/copy", "alice", map[string]any{"platforms": []string{"linked in"}})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("keeps completions private", func() {
		Expect(api.do(http.MethodPost, "/api/v1/completions/job-1/script", "bob", nil).Code).To(Equal(http.StatusForbidden))
	})

	It("opens an account with starting credits", func() {
		rec := api.do(http.MethodGet, "/api/v1/account", "alice", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		reply := decode[handlers.AccountReply](rec)
		Expect(reply.Plan).To(Equal("free"))
		Expect(reply.Credits).To(Equal(3))
		Expect(reply.Affordable).To(Equal([]string{"30s", "1min"}))
		Expect(reply.VoiceLimit).To(Equal(20))
	})

	It("quotes a duration", func() {
		rec := api.do(http.MethodGet, "/api/v1/account/quote?duration=90s", "alice", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		reply := decode[handlers.QuoteReply](rec)
		Expect(reply.Requested).NotTo(BeNil())
		Expect(reply.Requested.Duration).To(Equal("1.5min"))
		Expect(reply.Requested.Affordable).To(BeFalse())

		Expect(api.do(http.MethodGet, "/api/v1/account/quote?duration=2h", "alice", nil).Code).To(Equal(http.StatusBadRequest))
	})

	It("lists the ranked voices of the plan", func() {
		api.avatar.voices = []avatar.Voice{
			{ID: "1", Name: "Zoe", Language: "French"},
			{ID: "2", Name: "Adam Lifelike", Language: "English"},
		}

		rec := api.do(http.MethodGet, "/api/v1/voices", "alice", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		reply := decode[handlers.VoiceListReply](rec)
		Expect(reply.Plan).To(Equal("free"))
		Expect(reply.Voices).To(HaveLen(2))
		Expect(reply.Voices[0].ID).To(Equal("2"))
	})
})
