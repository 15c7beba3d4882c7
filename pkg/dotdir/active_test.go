package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playground/pkg/dotdir"
)

var _ = Describe("dotdir.Manager active conversation", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns nil when nothing is active", func() {
		state, err := m.LoadActive(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).To(BeNil())
	})

	It("round trips the active conversation", func() {
		want := &dotdir.ActiveConversation{ID: "c1", Title: "Sales by region", UserID: "0"}
		Expect(m.SaveActive(want, tmpDir)).To(Succeed())

		got, err := m.LoadActive(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(want))
	})

	It("rejects a nil state", func() {
		Expect(m.SaveActive(nil, tmpDir)).NotTo(Succeed())
	})

	It("reports corrupt files", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "active.json"), []byte("{"), 0o600)).To(Succeed())
		_, err := m.LoadActive(tmpDir)
		Expect(err).To(MatchError(ContainSubstring("parsing active conversation")))
	})

	It("clears idempotently", func() {
		Expect(m.SaveActive(&dotdir.ActiveConversation{ID: "c1"}, tmpDir)).To(Succeed())
		Expect(m.ClearActive(tmpDir)).To(Succeed())
		Expect(m.ClearActive(tmpDir)).To(Succeed())

		state, err := m.LoadActive(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).To(BeNil())
	})
})
