package v1alpha1

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	api "github.com/ayurankh/claims-processor/api/v1alpha1"
)

// (POST /api/v1/registry/claims)
//
// Stand-in for the national claims registry, kept in-process so the
// pipeline can run end to end without external infrastructure.
func (h *ServiceHandler) AcceptRegistryClaim(w http.ResponseWriter, r *http.Request) {
	var submission api.RegistrySubmission
	if err := render.DecodeJSON(r.Body, &submission); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode bundle: %v", err))
		return
	}

	render.JSON(w, r, api.RegistryReceipt{
		Status:   "ACCEPTED",
		HceTxnID: fmt.Sprintf("HCE_%s", uuid.New()),
	})
}
