package v1alpha1

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	api "github.com/ayurankh/claims-processor/api/v1alpha1"
)

// (POST /api/v1/overrides)
func (h *ServiceHandler) PostOverride(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("override_handler")

	var request api.OverrideRequest
	if err := render.DecodeJSON(r.Body, &request); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err))
		return
	}
	if err := h.overrideValidator.Struct(request); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid override request: %v", err))
		return
	}

	entry, err := h.overrideSrv.Override(r.Context(), request)
	if err != nil {
		logger.Errorw("failed to record override", "error", err)
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to record override: %v", err))
		return
	}

	render.JSON(w, r, entry)
}

// (GET /api/v1/overrides)
func (h *ServiceHandler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	entries, err := h.overrideSrv.List(r.Context())
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list overrides: %v", err))
		return
	}

	render.JSON(w, r, entries)
}
