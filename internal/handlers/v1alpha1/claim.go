package v1alpha1

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/ayurankh/claims-processor/api/v1alpha1"
	"github.com/ayurankh/claims-processor/internal/service"
	"github.com/ayurankh/claims-processor/internal/store/model"
	"github.com/ayurankh/claims-processor/pkg/requestid"
)

// maxSubmissionBytes bounds an entire multipart submission.
const maxSubmissionBytes = 64 << 20

// filePartRoles maps multipart file part names to document roles.
var filePartRoles = map[string]model.DocumentRole{
	"dicom_file":              model.RoleDicom,
	"lab_report_pdf":          model.RoleLabPDF,
	"identity_document_image": model.RoleIdentityDoc,
	"consent_form_image":      model.RoleConsentImage,
	"geotagged_patient_photo": model.RolePatientPhoto,
}

// (POST /api/v1/claims)
func (h *ServiceHandler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("claim_handler")

	if err := r.ParseMultipartForm(maxSubmissionBytes); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse multipart form: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := api.ClaimForm{
		VerifiedPatientID: r.FormValue("verified_patient_id"),
		DoctorDiagnosis:   r.FormValue("doctor_diagnosis"),
		PatientGeotag:     r.FormValue("patient_geotag"),
		IdentityPayload:   r.FormValue("verified_identity_payload"),
		ConsentPayload:    r.FormValue("digital_consent_payload"),
		IdempotencyKey:    r.FormValue("idempotency_key"),
	}
	if err := h.claimValidator.Struct(form); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid submission: %v", err))
		return
	}

	documents, err := readDocuments(r.MultipartForm)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := documents[model.RoleDicom]; !ok {
		renderError(w, r, http.StatusBadRequest, "dicom_file is required")
		return
	}

	info, err := h.claimSrv.Submit(r.Context(), service.SubmissionForm{
		VerifiedPatientID: form.VerifiedPatientID,
		DoctorDiagnosis:   form.DoctorDiagnosis,
		PatientGeotag:     form.PatientGeotag,
		IdentityPayload:   form.IdentityPayload,
		ConsentPayload:    form.ConsentPayload,
		IdempotencyKey:    form.IdempotencyKey,
		Documents:         documents,
	})
	if err != nil {
		switch e := err.(type) {
		case *service.ErrDuplicateSubmission:
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, api.DuplicateSubmission{
				Error:          "Duplicate submission detected",
				OriginalTaskID: e.OriginalTaskID.String(),
			})
		case *service.ErrMissingDocument, *service.ErrInvalidPayload:
			renderError(w, r, http.StatusBadRequest, err.Error())
		default:
			logger.Errorw("failed to submit claim", "error", err)
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to submit claim: %v", err))
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.ClaimAccepted{
		Message:        "Claim submission accepted for processing",
		TaskID:         info.TaskID.String(),
		IdempotencyKey: info.IdempotencyKey,
	})
}

// (GET /api/v1/claims/{id})
func (h *ServiceHandler) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid task id: %v", err))
		return
	}

	status, err := h.claimSrv.GetStatus(r.Context(), taskID)
	if err != nil {
		switch err.(type) {
		case *service.ErrTaskNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get task: %v", err))
		}
		return
	}

	render.JSON(w, r, status)
}

func readDocuments(form *multipart.Form) (map[model.DocumentRole]service.FileUpload, error) {
	documents := make(map[model.DocumentRole]service.FileUpload)
	for part, role := range filePartRoles {
		headers := form.File[part]
		if len(headers) == 0 {
			continue
		}

		file, err := headers[0].Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %v", part, err)
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %v", part, err)
		}

		documents[role] = service.FileUpload{Name: headers[0].Filename, Data: data}
	}
	return documents, nil
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, api.Error{Message: message, RequestID: requestid.FromContextPtr(r.Context())})
}
