package events

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("buffer", func() {
	It("keeps messages in insertion order", func() {
		b := newBuffer(0)
		b.PushBack(&message{Kind: VideoMessageKind, Subject: "job-1", Data: []byte("msg1")})
		b.PushBack(&message{Kind: VideoMessageKind, Subject: "job-1", Data: []byte("msg2")})
		b.PushBack(&message{Kind: VideoMessageKind, Subject: "job-2", Data: []byte("msg3")})
		Expect(b.Size()).To(Equal(3))

		for _, want := range []string{"msg1", "msg2", "msg3"} {
			m := b.Pop()
			Expect(m).NotTo(BeNil())
			Expect(string(m.Data)).To(Equal(want))
		}
		Expect(b.Size()).To(Equal(0))
		Expect(b.Pop()).To(BeNil())
	})

	It("drops the oldest message when full", func() {
		b := newBuffer(2)
		Expect(b.PushBack(&message{Data: []byte("msg1")})).To(BeFalse())
		Expect(b.PushBack(&message{Data: []byte("msg2")})).To(BeFalse())
		Expect(b.PushBack(&message{Data: []byte("msg3")})).To(BeTrue())

		Expect(b.Size()).To(Equal(2))
		Expect(b.Dropped()).To(Equal(1))
		Expect(string(b.Pop().Data)).To(Equal("msg2"))

		b.PushBack(&message{Data: []byte("msg4")})
		Expect(string(b.Pop().Data)).To(Equal("msg3"))
		Expect(string(b.Pop().Data)).To(Equal("msg4"))
		Expect(b.Pop()).To(BeNil())
	})
})
