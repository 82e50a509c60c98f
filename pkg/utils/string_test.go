package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Truncate", func() {
	It("returns the string unchanged when within the limit", func() {
		Expect(Truncate("short", 10)).To(Equal("short"))
	})

	It("truncates with ellipsis when over the limit", func() {
		Expect(Truncate("this is a long string", 10)).To(Equal("this is a ..."))
	})

	It("counts runes rather than bytes", func() {
		Expect(Truncate("💭 Chat 03/04", 6)).To(Equal("💭 Chat..."))
		Expect(Truncate("日本語", 3)).To(Equal("日本語"))
	})
})

var _ = Describe("UserAgent", func() {
	It("includes the build version", func() {
		Expect(UserAgent()).To(Equal("companion/" + Version))
	})
})
