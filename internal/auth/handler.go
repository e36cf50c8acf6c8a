package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/alicomputer/retail-pos/internal"
	"github.com/alicomputer/retail-pos/internal/core/common/validation"
	"github.com/alicomputer/retail-pos/internal/transport"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service SessionAuthority
}

func NewHandler(baseHandler *transport.BaseHandler, svc SessionAuthority) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, ToSessionResponse(h.Service.Snapshot()))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.ErrInvalidRequestBody.WithCause(err))
		return
	}
	if appErr := validation.Struct(dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	ok, err := h.Service.Login(r.Context(), dto.Email, dto.Password)
	if err != nil {
		h.WriteAppError(w, toAppError(err))
		return
	}
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidCredentials)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToSessionResponse(h.Service.Snapshot()))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Logout(r.Context()); err != nil {
		h.WriteAppError(w, toAppError(err))
		return
	}
	h.WriteJSON(w, http.StatusOK, ToSessionResponse(h.Service.Snapshot()))
}

func (h *Handler) GetCapabilities(w http.ResponseWriter, r *http.Request) {
	snap := h.Service.Snapshot()
	resp := CapabilitiesResponse{Capabilities: snap.Capabilities}
	if snap.Session.Identity != nil {
		resp.Role = snap.Session.Identity.Role.String()
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) CheckCapability(w http.ResponseWriter, r *http.Request) {
	capability := chi.URLParam(r, "capability")
	if strings.TrimSpace(capability) == "" {
		h.WriteAppError(w, internal.NewValidationError("capability is required", internal.ErrCodeUnknownCapability))
		return
	}
	h.WriteJSON(w, http.StatusOK, CapabilityCheckResponse{
		Capability: capability,
		Allowed:    h.Service.HasCapability(capability),
	})
}

// toAppError maps authority faults onto the HTTP error taxonomy.
func toAppError(err error) *internal.AppError {
	switch {
	case errors.Is(err, ErrStoreUnavailable):
		return internal.ErrStoreUnavailable.WithCause(err)
	case errors.Is(err, ErrInvalidCredentials):
		return internal.ErrInvalidCredentials
	case errors.Is(err, ErrNotAuthenticated):
		return internal.ErrNotAuthenticated
	case errors.Is(err, ErrCapabilityDenied):
		return internal.ErrCapabilityDenied
	}
	return internal.NewInternalError("internal server error", err)
}
