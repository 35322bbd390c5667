package internal

import (
	"errors"
	"net/http"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestInternal(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Internal Suite")
}

var _ = Describe("AppError", func() {
	It("tags internal errors with the declared code", func() {
		err := NewInternalError("failed to upsert user grant", errors.New("connection reset"))

		Expect(err.Code).To(Equal(ErrCodeInternal))
		Expect(err.Type).To(Equal(ErrorTypeInternal))
		Expect(err.StatusCode).To(Equal(http.StatusInternalServerError))
	})

	It("unwraps to its cause", func() {
		cause := errors.New("connection reset")
		err := NewInternalError("failed to load module", cause)

		Expect(errors.Is(err, cause)).To(BeTrue())
	})

	It("maps the request timeout sentinel to 408", func() {
		status, _ := ErrRequestTimeout.ToHTTPResponse()

		Expect(status).To(Equal(http.StatusRequestTimeout))
		Expect(ErrRequestTimeout.Code).To(Equal(ErrCodeRequestTimeout))
	})
})
