package user

import (
	"log/slog"
	"net/http"

	"github.com/bert0h-dev/busmanage-api/internal/auth"
	"github.com/bert0h-dev/busmanage-api/internal/transport"
	"github.com/bert0h-dev/busmanage-api/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetMe returns the caller's own profile with the resolved menu tree.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok || u == nil {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	profile, err := h.Service.GetProfile(r.Context(), u.ID)
	if err != nil {
		h.Logger.Error("failed to load profile", "user_id", u.ID, "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}
