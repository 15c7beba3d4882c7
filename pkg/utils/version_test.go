package utils_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playground/pkg/utils"
)

var _ = Describe("CurrentBuild", func() {
	It("keeps link-time values", func() {
		orig := utils.Version
		DeferCleanup(func() { utils.Version = orig })
		utils.Version = "v1.2.3"

		Expect(utils.CurrentBuild().Version).To(Equal("v1.2.3"))
	})

	It("never returns empty fields", func() {
		b := utils.CurrentBuild()
		Expect(b.Version).NotTo(BeEmpty())
		Expect(b.Sha).NotTo(BeEmpty())
		Expect(b.Time).NotTo(BeEmpty())
	})
})
