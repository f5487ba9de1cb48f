package hub_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memhub/pkg/hub"
)

var _ = Describe("DeriveCategories", func() {
	It("classifies meeting content", func() {
		Expect(hub.DeriveCategories("Weekly planning MEETING notes")).To(Equal([]string{"MEETING"}))
	})

	It("classifies meeting content in Korean", func() {
		Expect(hub.DeriveCategories("오늘 회의 요약")).To(Equal([]string{"MEETING"}))
	})

	It("classifies bug content", func() {
		Expect(hub.DeriveCategories("fixed a Bug in the parser")).To(Equal([]string{"BUG"}))
	})

	It("classifies bug content in Korean", func() {
		Expect(hub.DeriveCategories("로그인 오류 수정")).To(Equal([]string{"BUG"}))
	})

	It("prefers the first matching rule when several apply", func() {
		Expect(hub.DeriveCategories("meeting about the bug backlog")).To(Equal([]string{"MEETING"}))
	})

	It("falls back to GENERAL", func() {
		Expect(hub.DeriveCategories("shipped the release")).To(Equal([]string{"GENERAL"}))
	})
})
