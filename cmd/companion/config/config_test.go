package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/companion/cmd/companion/config"
	"github.com/papercomputeco/companion/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var configDir string

	// run executes the config command under a root that carries the global
	// --config-dir flag, pointed at a temporary directory.
	var out bytes.Buffer
	run := func(args ...string) error {
		out.Reset()
		root := &cobra.Command{Use: "companion"}
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(configcmder.NewConfigCmd())
		root.SetOut(&out)
		root.SetArgs(append([]string{"config", "--config-dir", configDir}, args...))
		return root.Execute()
	}

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()
	})

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(run("set", "storage.driver", "postgres")).To(Succeed())

			_, err := os.Stat(filepath.Join(configDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())

			cfger, err := config.NewConfiger(configDir)
			Expect(err).NotTo(HaveOccurred())
			value, err := cfger.GetConfigValue("storage.driver")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("postgres"))
		})

		It("rejects unknown keys", func() {
			Expect(run("set", "invalid_key", "value")).To(HaveOccurred())
		})

		It("requires exactly two arguments", func() {
			Expect(run("set", "storage.driver")).To(HaveOccurred())
		})

		It("rejects zero arguments", func() {
			Expect(run("set")).To(HaveOccurred())
		})

		DescribeTable("rejects invalid values",
			func(key, value string) {
				Expect(run("set", key, value)).To(HaveOccurred())
			},
			Entry("non-numeric int", "memory.max_messages", "lots"),
			Entry("non-numeric uint", "worker.num_workers", "-1"),
			Entry("rate above one", "response.transition_rate", "1.5"),
			Entry("bad duration", "memory.idle_timeout", "soon"),
			Entry("unknown driver", "storage.driver", "mongodb"),
		)
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(run("set", "memory.max_messages", "30")).To(Succeed())
			Expect(run("get", "memory.max_messages")).To(Succeed())
		})

		It("marks an unset key", func() {
			Expect(run("get", "eventstream.redis_url")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})

		It("marks values that come from the defaults", func() {
			Expect(run("get", "memory.max_messages")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("50"))
			Expect(out.String()).To(ContainSubstring("(default)"))
		})

		It("prints several keys at once", func() {
			Expect(run("set", "memory.max_messages", "30")).To(Succeed())
			Expect(run("get", "memory.max_messages", "storage.driver")).To(Succeed())

			Expect(out.String()).To(ContainSubstring("memory.max_messages"))
			Expect(out.String()).To(ContainSubstring("30"))
			Expect(out.String()).To(ContainSubstring("storage.driver"))
		})

		It("rejects unknown keys", func() {
			Expect(run("get", "invalid_key")).To(HaveOccurred())
			Expect(run("get", "storage.driver", "invalid_key")).To(HaveOccurred())
		})

		It("requires at least one key", func() {
			Expect(run("get")).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("runs without error when no config exists", func() {
			Expect(run("list")).To(Succeed())
		})

		It("runs without error when config has values", func() {
			Expect(run("set", "api.listen", ":9000")).To(Succeed())
			Expect(run("list")).To(Succeed())
		})

		It("rejects any arguments", func() {
			Expect(run("list", "extra")).To(HaveOccurred())
		})
	})
})
