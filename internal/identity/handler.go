package identity

import (
	"context"
	"net/http"

	"github.com/alicomputer/retail-pos/internal/transport"
)

type ServiceAPI interface {
	ListIdentities(ctx context.Context) ([]IdentityResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// ListIdentities handles GET /identities
func (h *Handler) ListIdentities(w http.ResponseWriter, r *http.Request) {
	identities, err := h.Service.ListIdentities(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, IdentitiesResponse{Identities: identities})
}
