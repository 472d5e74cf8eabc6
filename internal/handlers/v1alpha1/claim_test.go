package v1alpha1_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/ayurankh/claims-processor/api/v1alpha1"
	handlers "github.com/ayurankh/claims-processor/internal/handlers/v1alpha1"
	"github.com/ayurankh/claims-processor/internal/pipeline"
	"github.com/ayurankh/claims-processor/internal/registry"
	"github.com/ayurankh/claims-processor/internal/service"
	"github.com/ayurankh/claims-processor/internal/store"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	s := store.NewStore()
	runner := pipeline.NewRunner(s, registry.NewStubClient())
	dispatcher := pipeline.NewDispatcher(runner, 1, 16)

	h := handlers.NewServiceHandler(
		service.NewClaimService(s, dispatcher, t.TempDir()),
		service.NewOverrideService(s),
	)

	router := chi.NewRouter()
	router.Get("/health", h.Health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/claims", h.SubmitClaim)
		r.Get("/claims/{id}", h.GetTaskStatus)
		r.Post("/overrides", h.PostOverride)
		r.Get("/overrides", h.ListOverrides)
		r.Get("/logs", h.ListOverrides)
		r.Post("/registry/claims", h.AcceptRegistryClaim)
	})
	return router
}

type claimPart struct {
	field, filename, content string
}

func claimRequest(t *testing.T, fields map[string]string, files []claimPart) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/claims", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func validFields() map[string]string {
	return map[string]string{
		"verified_patient_id":     "P123",
		"doctor_diagnosis":        "Critical",
		"digital_consent_payload": `{"signed": true}`,
	}
}

func dicomPart() claimPart {
	return claimPart{field: "dicom_file", filename: "scan.dcm", content: "dicom bytes"}
}

func TestSubmitClaimAccepted(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, claimRequest(t, validFields(), []claimPart{dicomPart()}))

	require.Equal(t, http.StatusCreated, rec.Code)

	var accepted api.ClaimAccepted
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.NotEmpty(t, accepted.TaskID)
	assert.Len(t, accepted.IdempotencyKey, 64)

	_, err := uuid.Parse(accepted.TaskID)
	assert.NoError(t, err)
}

func TestSubmitClaimDuplicateConflict(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, claimRequest(t, validFields(), []claimPart{dicomPart()}))
	require.Equal(t, http.StatusCreated, rec.Code)

	var accepted api.ClaimAccepted
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, claimRequest(t, validFields(), []claimPart{dicomPart()}))
	require.Equal(t, http.StatusConflict, rec.Code)

	var dup api.DuplicateSubmission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dup))
	assert.Equal(t, accepted.TaskID, dup.OriginalTaskID)
}

func TestSubmitClaimMissingDicom(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, claimRequest(t, validFields(), nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitClaimMissingPatientID(t *testing.T) {
	router := newTestRouter(t)

	fields := validFields()
	delete(fields, "verified_patient_id")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, claimRequest(t, fields, []claimPart{dicomPart()}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTaskStatusPending(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, claimRequest(t, validFields(), []claimPart{dicomPart()}))
	require.Equal(t, http.StatusCreated, rec.Code)

	var accepted api.ClaimAccepted
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/claims/"+accepted.TaskID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status api.TaskStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "PENDING", status.Status)
	assert.Nil(t, status.Result)
}

func TestGetTaskStatusNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/claims/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTaskStatusInvalidID(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/claims/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostOverrideAndList(t *testing.T) {
	router := newTestRouter(t)

	body := `{"task_id": "` + uuid.NewString() + `", "actor_id": "DR_ANITA", "reason": "Reviewed scan manually"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/overrides", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var entry api.OverrideLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "OVERRIDE", entry.Event)
	assert.Len(t, entry.Signature, 64)

	for _, path := range []string{"/api/v1/overrides", "/api/v1/logs"} {
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var entries []api.OverrideLog
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		assert.Len(t, entries, 1)
	}
}

func TestPostOverrideRejectsInvalidActor(t *testing.T) {
	router := newTestRouter(t)

	body := `{"task_id": "` + uuid.NewString() + `", "actor_id": "DR ANITA", "reason": "reviewed"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/overrides", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegistryEndpointAcknowledges(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/registry/claims", strings.NewReader(`{"resourceType": "Bundle"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var receipt api.RegistryReceipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, "ACCEPTED", receipt.Status)
	assert.True(t, strings.HasPrefix(receipt.HceTxnID, "HCE_"))
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
