package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bert0h-dev/busmanage-api/internal"
	"github.com/bert0h-dev/busmanage-api/internal/transport"
	"github.com/bert0h-dev/busmanage-api/internal/transport/middleware"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var _ = Describe("Timeout", func() {
	var base *transport.BaseHandler

	BeforeEach(func() {
		base = transport.NewBaseHandler(nil)
	})

	serve := func(d time.Duration, handler http.HandlerFunc) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		middleware.Timeout(d)(handler).ServeHTTP(rec, req)
		return rec
	}

	It("installs a deadline on the request context", func() {
		var deadline time.Time
		var ok bool

		serve(30*time.Second, func(w http.ResponseWriter, r *http.Request) {
			deadline, ok = r.Context().Deadline()
			w.WriteHeader(http.StatusOK)
		})

		Expect(ok).To(BeTrue())
		Expect(deadline).To(BeTemporally("<=", time.Now().Add(30*time.Second)))
	})

	It("aborts a stalled call and responds with the timeout error", func() {
		rec := serve(20*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
			// stand-in for a repository query that never returns
			<-r.Context().Done()
			base.WriteAppError(w, r.Context().Err())
		})

		Expect(rec.Code).To(Equal(http.StatusRequestTimeout))

		var resp internal.Response
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Error).NotTo(BeNil())
		Expect(resp.Error.Code).To(Equal(internal.ErrCodeRequestTimeout))
		Expect(resp.Error.Message).To(Equal("Tiempo de espera agotado"))
	})

	It("maps a deadline error wrapped by a service into the timeout response", func() {
		rec := serve(20*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			err := internal.NewInternalError("failed to load user", r.Context().Err())
			base.WriteAppError(w, err)
		})

		Expect(rec.Code).To(Equal(http.StatusRequestTimeout))
	})

	It("leaves a fast handler untouched", func() {
		rec := serve(time.Second, func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Context().Err()).NotTo(HaveOccurred())
			w.WriteHeader(http.StatusOK)
		})

		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("falls back to a 30 second ceiling when unconfigured", func() {
		var deadline time.Time
		var ok bool

		serve(0, func(w http.ResponseWriter, r *http.Request) {
			deadline, ok = r.Context().Deadline()
			w.WriteHeader(http.StatusOK)
		})

		Expect(ok).To(BeTrue())
		Expect(deadline).To(BeTemporally("~", time.Now().Add(30*time.Second), time.Second))
	})

	It("keeps the regular error mapping for non-timeout errors", func() {
		rec := httptest.NewRecorder()
		base.WriteAppError(rec, internal.ErrUserNotFound)
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})
})
