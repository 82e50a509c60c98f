package companioncmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	companioncmder "github.com/papercomputeco/companion/cmd/companion"
)

var _ = Describe("NewCompanionCmd", func() {
	It("registers every subcommand", func() {
		cmd := companioncmder.NewCompanionCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("serve", "chat", "demo", "watch", "config", "version"))
	})

	It("carries the global flags", func() {
		cmd := companioncmder.NewCompanionCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})
