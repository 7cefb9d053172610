package avatar_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/reelforge/reelforge/internal/provider"
	"github.com/reelforge/reelforge/internal/provider/avatar"
)

var _ = Describe("avatar client", func() {
	var (
		ctx    context.Context
		server *httptest.Server
	)

	BeforeEach(func() {
		ctx = context.Background()
	})

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	newClient := func(h http.HandlerFunc) *avatar.Client {
		server = httptest.NewServer(h)
		return avatar.NewClient(server.URL, "test-key", 5*time.Second)
	}

	Describe("SubmitJob", func() {
		It("sends the script, voice and avatar and returns the vendor job id", func() {
			c := newClient(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.URL.Path).To(Equal("/v2/video/generate"))
				Expect(r.Header.Get("X-Api-Key")).To(Equal("test-key"))

				var body map[string]any
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body["title"]).To(Equal("Launch"))
				Expect(body["callback_id"]).To(Equal("job-1"))
				inputs := body["video_inputs"].([]any)
				Expect(inputs).To(HaveLen(1))
				input := inputs[0].(map[string]any)
				Expect(input["character"].(map[string]any)["avatar_id"]).To(Equal("avatar-A"))
				Expect(input["voice"].(map[string]any)["voice_id"]).To(Equal("voice-V"))
				Expect(input["voice"].(map[string]any)["input_text"]).To(Equal("Hello there"))

				_, _ = w.Write([]byte(`{"error":null,"data":{"video_id":"vid-123"}}`))
			})

			sub, err := c.SubmitJob(ctx, avatar.SubmitRequest{
				Script:     "Hello there",
				VoiceID:    "voice-V",
				AvatarID:   "avatar-A",
				Title:      "Launch",
				CallbackID: "job-1",
			})
			Expect(err).To(BeNil())
			Expect(sub.VendorJobID).To(Equal("vid-123"))
		})

		It("returns a RequestError on a non-2xx status", func() {
			c := newClient(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusPaymentRequired)
				_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
			})

			_, err := c.SubmitJob(ctx, avatar.SubmitRequest{Script: "s", VoiceID: "v", AvatarID: "a", Title: "t"})
			var reqErr *provider.RequestError
			Expect(err).To(BeAssignableToTypeOf(reqErr))
			reqErr = err.(*provider.RequestError)
			Expect(reqErr.StatusCode).To(Equal(http.StatusPaymentRequired))
			Expect(reqErr.Body).To(ContainSubstring("quota exceeded"))
		})

		It("returns a ResponseShapeError when the video id is missing", func() {
			c := newClient(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":null,"data":{}}`))
			})

			_, err := c.SubmitJob(ctx, avatar.SubmitRequest{Script: "s", VoiceID: "v", AvatarID: "a", Title: "t"})
			Expect(err).To(BeAssignableToTypeOf(&provider.ResponseShapeError{}))
		})
	})

	Describe("PollStatus", func() {
		It("normalizes a completed status", func() {
			c := newClient(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/v1/video_status.get"))
				Expect(r.URL.Query().Get("video_id")).To(Equal("vid-123"))
				_, _ = w.Write([]byte(`{"code":100,"data":{"id":"vid-123","status":"completed","video_url":"https://cdn/v.mp4?Expires=1","thumbnail_url":"https://cdn/t.jpg","gif_url":"https://cdn/p.gif","duration":31.5}}`))
			})

			res, err := c.PollStatus(ctx, "vid-123")
			Expect(err).To(BeNil())
			Expect(res).To(Equal(provider.Completed{
				Status:       "completed",
				VideoURL:     "https://cdn/v.mp4?Expires=1",
				ThumbnailURL: "https://cdn/t.jpg",
				PreviewURL:   "https://cdn/p.gif",
				Duration:     31.5,
			}))
		})

		It("reports in-flight statuses as generating", func() {
			c := newClient(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"code":100,"data":{"status":"processing"}}`))
			})

			res, err := c.PollStatus(ctx, "vid-123")
			Expect(err).To(BeNil())
			Expect(res).To(Equal(provider.Generating{Status: "processing"}))
		})

		It("reports vendor failures with their message", func() {
			c := newClient(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"code":100,"data":{"status":"failed","error":{"code":40119,"message":"avatar not found"}}}`))
			})

			res, err := c.PollStatus(ctx, "vid-123")
			Expect(err).To(BeNil())
			Expect(res).To(Equal(provider.Errored{Status: "failed", Message: "avatar not found"}))
		})

		It("fails with a ResponseShapeError when data is missing", func() {
			c := newClient(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"code":100,"message":"ok"}`))
			})

			_, err := c.PollStatus(ctx, "vid-123")
			Expect(err).To(BeAssignableToTypeOf(&provider.ResponseShapeError{}))
		})

		It("fails with a ResponseShapeError when completed has no url", func() {
			c := newClient(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"code":100,"data":{"status":"completed"}}`))
			})

			_, err := c.PollStatus(ctx, "vid-123")
			Expect(err).To(BeAssignableToTypeOf(&provider.ResponseShapeError{}))
		})
	})

	Describe("ListVoices", func() {
		It("returns the voice catalog", func() {
			c := newClient(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/v2/voices"))
				_, _ = w.Write([]byte(`{"error":null,"data":{"voices":[{"voice_id":"v1","name":"Professional Ann","language":"English","gender":"female","preview_audio":"https://p/1.mp3"}]}}`))
			})

			voices, err := c.ListVoices(ctx)
			Expect(err).To(BeNil())
			Expect(voices).To(ConsistOf(avatar.Voice{ID: "v1", Name: "Professional Ann", Language: "English", Gender: "female", PreviewURL: "https://p/1.mp3"}))
		})
	})

	Describe("ParseCallback", func() {
		It("parses a success event", func() {
			cb, res, err := avatar.ParseCallback([]byte(`{"event_type":"avatar_video.success","event_data":{"video_id":"vid-1","url":"https://cdn/v.mp4","callback_id":"job-1"}}`))
			Expect(err).To(BeNil())
			Expect(cb.CallbackID).To(Equal("job-1"))
			Expect(cb.VendorJobID).To(Equal("vid-1"))
			Expect(res).To(Equal(provider.Completed{Status: "completed", VideoURL: "https://cdn/v.mp4"}))
		})

		It("parses a failure event", func() {
			_, res, err := avatar.ParseCallback([]byte(`{"event_type":"avatar_video.fail","event_data":{"video_id":"vid-1","msg":"bad script"}}`))
			Expect(err).To(BeNil())
			Expect(res).To(Equal(provider.Errored{Status: "failed", Message: "bad script"}))
		})

		It("rejects payloads without a video id", func() {
			_, _, err := avatar.ParseCallback([]byte(`{"event_type":"avatar_video.success"}`))
			Expect(err).To(BeAssignableToTypeOf(&provider.ResponseShapeError{}))
		})
	})
})
