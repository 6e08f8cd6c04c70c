package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corelens-ai/corelens/pkg/dotdir"
)

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Target", func() {
		It("creates the directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("returns existing directory without error", func() {
			result, err := m.Target(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(tmpDir))
		})

		It("returns the override dir even when a local .corelens dir exists", func() {
			localDir := filepath.Join(tmpDir, ".corelens")
			Expect(os.Mkdir(localDir, 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			overrideDir := filepath.Join(tmpDir, "override")
			result, err := m.Target(overrideDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(overrideDir))
		})

		It("returns the local .corelens dir when it exists and no override is provided", func() {
			localDir := filepath.Join(tmpDir, ".corelens")
			Expect(os.Mkdir(localDir, 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(localDir))
		})
	})

	Describe("session state", func() {
		It("returns nil when no session file exists", func() {
			state, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("round-trips a session", func() {
			state := &dotdir.SessionState{
				Assistant: "data-qa",
				DatasetID: "ds-1",
				Messages: []dotdir.SessionMessage{
					{Role: "user", Content: "how many orders last week?"},
					{Role: "assistant", Content: "There were 412 orders."},
				},
			}

			Expect(m.SaveSession(state, tmpDir)).To(Succeed())

			loaded, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(state))
		})

		It("returns error for invalid JSON", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "session.json"), []byte("not json"), 0o600)).To(Succeed())

			state, err := m.LoadSessionState(tmpDir)
			Expect(err).To(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("rejects saving a nil session", func() {
			Expect(m.SaveSession(nil, tmpDir)).To(HaveOccurred())
		})

		It("overwrites an existing session", func() {
			first := &dotdir.SessionState{Assistant: "data-qa", Messages: []dotdir.SessionMessage{{Role: "user", Content: "one"}}}
			second := &dotdir.SessionState{Assistant: "ontology", Messages: []dotdir.SessionMessage{{Role: "user", Content: "two"}}}

			Expect(m.SaveSession(first, tmpDir)).To(Succeed())
			Expect(m.SaveSession(second, tmpDir)).To(Succeed())

			loaded, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Assistant).To(Equal("ontology"))
		})

		It("clears the session file", func() {
			state := &dotdir.SessionState{Assistant: "recipe", Messages: []dotdir.SessionMessage{}}
			Expect(m.SaveSession(state, tmpDir)).To(Succeed())

			Expect(m.ClearSession(tmpDir)).To(Succeed())

			loaded, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeNil())
		})

		It("clear succeeds when no session file exists", func() {
			Expect(m.ClearSession(tmpDir)).To(Succeed())
		})
	})
})
