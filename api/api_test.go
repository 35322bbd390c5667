package api

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

var _ = Describe("OpenAPI", func() {
	It("embeds the contract document", func() {
		doc := string(OpenAPI)

		Expect(doc).To(HavePrefix("openapi: 3"))
		Expect(strings.Contains(doc, "/auth/login")).To(BeTrue())
	})
})
