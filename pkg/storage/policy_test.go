package storage_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/companion/pkg/storage"
)

var _ = Describe("Policy", func() {
	It("reinforces facts up to the cap", func() {
		p := storage.DefaultPolicy()
		Expect(p.ReinforceFact(0.9)).To(Equal(1.0))
		Expect(p.ReinforceFact(1.0)).To(Equal(1.0))
		Expect(p.ReinforceFact(0.7)).To(Equal(0.8))
	})

	It("reinforces themes", func() {
		p := storage.DefaultPolicy()
		Expect(p.ReinforceTheme(p.ThemeInitial)).To(Equal(0.9))
	})

	It("fills zero fields", func() {
		p := storage.Policy{MaxConfidence: 0.95}.WithDefaults()
		Expect(p.MaxConfidence).To(Equal(0.95))
		Expect(p.FactIncrement).To(Equal(0.1))
		Expect(p.ReinforceFact(0.9)).To(Equal(0.95))
	})
})

var _ = Describe("NotFoundError", func() {
	It("names the kind and id", func() {
		Expect(storage.NotFoundError{Kind: "user", ID: "7"}.Error()).To(Equal("user not found: 7"))
		Expect(storage.NotFoundError{}.Error()).To(Equal("record not found"))
	})
})
