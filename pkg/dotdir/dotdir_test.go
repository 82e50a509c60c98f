package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/companion/pkg/dotdir"
)

var _ = Describe("dotdir", func() {
	var (
		tmpDir string
		m      *dotdir.Manager
	)

	BeforeEach(func() {
		var err error
		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	chdir := func(dir string) {
		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		DeferCleanup(func() { _ = os.Chdir(origDir) })
	}

	Describe("Target", func() {
		It("creates the override directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("prefers the override over a local .companion dir", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".companion"), 0o755)).To(Succeed())
			chdir(tmpDir)

			override := filepath.Join(tmpDir, "override")
			result, err := m.Target(override)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(override))
		})

		It("returns the local .companion dir when no override is provided", func() {
			local := filepath.Join(tmpDir, ".companion")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())
			chdir(tmpDir)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("falls back to the home directory", func() {
			empty := filepath.Join(tmpDir, "empty")
			Expect(os.Mkdir(empty, 0o755)).To(Succeed())
			chdir(empty)
			GinkgoT().Setenv("HOME", tmpDir)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, ".companion")))
		})
	})

	Describe("Path", func() {
		It("resolves relative names inside the directory", func() {
			result, err := m.Path(tmpDir, "companion.log")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, "companion.log")))
		})

		It("keeps absolute names", func() {
			abs := filepath.Join(tmpDir, "elsewhere", "serve.log")
			result, err := m.Path(filepath.Join(tmpDir, "unused"), abs)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(abs))

			_, err = os.Stat(filepath.Join(tmpDir, "unused"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})

	Describe("chat session", func() {
		It("returns nil when no session exists", func() {
			state, err := m.LoadChatSession(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("round-trips and clears", func() {
			in := &dotdir.ChatSession{UserID: "1", ConversationID: "c-1", Title: "💬 Hello There"}
			Expect(m.SaveChatSession(in, tmpDir)).To(Succeed())

			out, err := m.LoadChatSession(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(in))

			Expect(m.ClearChatSession(tmpDir)).To(Succeed())
			out, err = m.LoadChatSession(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(BeNil())

			Expect(m.ClearChatSession(tmpDir)).To(Succeed())
		})

		It("rejects nil sessions and invalid JSON", func() {
			Expect(m.SaveChatSession(nil, tmpDir)).To(HaveOccurred())

			Expect(os.WriteFile(filepath.Join(tmpDir, "session.json"), []byte("{"), 0o600)).To(Succeed())
			_, err := m.LoadChatSession(tmpDir)
			Expect(err).To(HaveOccurred())
		})
	})
})
