package store_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/internal/store/model"
)

var _ = Describe("webhook ledger", Ordered, func() {
	var s store.Store

	BeforeAll(func() {
		s, _ = newTestStore()
	})

	AfterAll(func() {
		s.Close()
	})

	It("appends deliveries in arrival order", func() {
		jobID := uuid.NewString()
		for _, outcome := range []model.WebhookOutcome{model.WebhookApplied, model.WebhookDuplicate} {
			d, err := s.Webhook().Record(context.TODO(), model.WebhookDelivery{
				JobID:     jobID,
				Vendor:    "compositor",
				Signature: "abc",
				Outcome:   outcome,
				Payload:   `{"status":"done"}`,
			})
			Expect(err).To(BeNil())
			Expect(d.ID).NotTo(BeZero())
			Expect(d.ReceivedAt).NotTo(BeZero())
		}

		deliveries, err := s.Webhook().List(context.TODO(), jobID)
		Expect(err).To(BeNil())
		Expect(deliveries).To(HaveLen(2))
		Expect(deliveries[0].Outcome).To(Equal(model.WebhookApplied))
		Expect(deliveries[1].Outcome).To(Equal(model.WebhookDuplicate))
	})
})
