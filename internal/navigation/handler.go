package navigation

import (
	"net/http"

	"github.com/alicomputer/retail-pos/internal/auth"
	"github.com/alicomputer/retail-pos/internal/transport"
)

type TabsResponse struct {
	Active string `json:"active"`
	Tabs   []Item `json:"tabs"`
}

type SectionsResponse struct {
	Sections []Item `json:"sections"`
}

type Handler struct {
	*transport.BaseHandler
	sessions auth.SnapshotSource
}

func NewHandler(baseHandler *transport.BaseHandler, sessions auth.SnapshotSource) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		sessions:    sessions,
	}
}

// GetTabs handles GET /navigation/tabs?active=<id>
func (h *Handler) GetTabs(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, TabsResponse{
		Active: Resolve(r.URL.Query().Get("active")).ID,
		Tabs:   Visible(tabs, h.sessions.Snapshot().Capabilities),
	})
}

// GetSettingsSections handles GET /navigation/settings
func (h *Handler) GetSettingsSections(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, SectionsResponse{
		Sections: Visible(settingsSections, h.sessions.Snapshot().Capabilities),
	})
}
