package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	api "github.com/ayurankh/claims-processor/api/v1alpha1"
	"github.com/ayurankh/claims-processor/internal/events"
	"github.com/ayurankh/claims-processor/internal/pipeline"
	"github.com/ayurankh/claims-processor/internal/store"
	"github.com/ayurankh/claims-processor/internal/store/model"
	"github.com/ayurankh/claims-processor/pkg/metrics"
)

// FileUpload is one multipart document as received from the HTTP layer.
type FileUpload struct {
	Name string
	Data []byte
}

// SubmissionForm is the parsed claim intake.
type SubmissionForm struct {
	VerifiedPatientID string
	DoctorDiagnosis   string
	PatientGeotag     string
	IdentityPayload   string
	ConsentPayload    string
	IdempotencyKey    string
	Documents         map[model.DocumentRole]FileUpload
}

// SubmissionInfo acknowledges an admitted claim.
type SubmissionInfo struct {
	TaskID         uuid.UUID
	IdempotencyKey string
}

type ClaimService struct {
	store      store.Store
	dispatcher *pipeline.Dispatcher
	uploadDir  string
	producer   *events.EventProducer
}

type ClaimOption func(*ClaimService)

func WithClaimEventProducer(ep *events.EventProducer) ClaimOption {
	return func(s *ClaimService) {
		s.producer = ep
	}
}

func NewClaimService(s store.Store, d *pipeline.Dispatcher, uploadDir string, opts ...ClaimOption) *ClaimService {
	svc := &ClaimService{store: s, dispatcher: d, uploadDir: uploadDir}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// Submit admits a claim through the idempotency guard, materializes its
// documents and hands the task to the dispatcher. A key seen before is
// rejected with the originally bound task id and no side effects.
func (s *ClaimService) Submit(ctx context.Context, form SubmissionForm) (*SubmissionInfo, error) {
	logger := zap.S().Named("claim_service")

	dicom, ok := form.Documents[model.RoleDicom]
	if !ok {
		return nil, NewErrMissingDocument(string(model.RoleDicom))
	}

	claim, err := s.buildClaim(form)
	if err != nil {
		return nil, err
	}

	key := form.IdempotencyKey
	if key == "" {
		key = store.DeriveKey(form.VerifiedPatientID, dicom.Name, form.DoctorDiagnosis)
	}

	candidate := uuid.New()
	bound, admitted := s.store.Idempotency().Admit(key, candidate)
	if !admitted {
		metrics.IncreaseSubmissionsTotalMetric("duplicate")
		return nil, NewErrDuplicateSubmission(bound)
	}

	// The ledger entry is created before anything else can fail, so a
	// bound key always resolves to a task a poller can look up.
	task := s.store.Task().Create(candidate, claim)

	if err := s.materializeDocuments(candidate, form, claim); err != nil {
		logger.Errorw("failed to store claim documents", "task_id", task.ID, "error", err)
		_ = s.store.Task().RecordResult(task.ID, model.TaskError, &api.TaskResult{
			Status: string(model.TaskError),
			Error:  fmt.Sprintf("document storage failed: %v", err),
		})
		return nil, err
	}

	if err := s.dispatcher.Enqueue(task.ID); err != nil {
		// The key stays bound: the task exists and a resubmission must
		// not spawn a second one. Operators can redeliver it.
		logger.Errorw("failed to enqueue admitted task", "task_id", task.ID, "error", err)
		return nil, errors.Wrap(err, "enqueue task")
	}

	metrics.IncreaseSubmissionsTotalMetric("admitted")
	s.publishAccepted(ctx, task.ID)
	logger.Infow("claim admitted", "task_id", task.ID)
	return &SubmissionInfo{TaskID: task.ID, IdempotencyKey: key}, nil
}

func (s *ClaimService) publishAccepted(ctx context.Context, taskID uuid.UUID) {
	if s.producer == nil {
		return
	}
	data, err := json.Marshal(events.TaskEvent{TaskID: taskID.String(), State: string(model.TaskPending)})
	if err != nil {
		return
	}
	if err := s.producer.Write(ctx, events.TaskMessageKind, bytes.NewReader(data)); err != nil {
		zap.S().Named("claim_service").Warnw("failed to publish task event", "error", err)
	}
}

// GetStatus returns the latest committed snapshot of a task.
func (s *ClaimService) GetStatus(_ context.Context, taskID uuid.UUID) (*api.TaskStatus, error) {
	task, err := s.store.Task().Get(taskID)
	if err != nil {
		return nil, NewErrTaskNotFound(taskID)
	}

	snapshot := task.Snapshot()
	status := &api.TaskStatus{
		TaskID: taskID.String(),
		Status: string(snapshot.State),
	}
	if snapshot.State.Terminal() {
		status.Result = snapshot.Result
	} else if snapshot.Step != "" {
		status.Info = &api.TaskInfo{Step: snapshot.Step}
	}
	return status, nil
}

func (s *ClaimService) buildClaim(form SubmissionForm) (*model.ClaimSubmission, error) {
	claim := &model.ClaimSubmission{
		VerifiedPatientID: form.VerifiedPatientID,
		DoctorDiagnosis:   form.DoctorDiagnosis,
		PatientGeotag:     form.PatientGeotag,
		Documents:         make(map[model.DocumentRole]string, len(form.Documents)),
	}

	if form.IdentityPayload != "" {
		if err := json.Unmarshal([]byte(form.IdentityPayload), &claim.IdentityData); err != nil {
			return nil, NewErrInvalidPayload("identity", err)
		}
	}
	if form.ConsentPayload != "" {
		if err := json.Unmarshal([]byte(form.ConsentPayload), &claim.ConsentData); err != nil {
			return nil, NewErrInvalidPayload("consent", err)
		}
	}
	return claim, nil
}

// materializeDocuments stores the uploads under <uploadDir>/<taskID> and
// records their paths on the claim. Retention is an operator concern.
func (s *ClaimService) materializeDocuments(taskID uuid.UUID, form SubmissionForm, claim *model.ClaimSubmission) error {
	dir := filepath.Join(s.uploadDir, taskID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create upload directory")
	}

	for role, upload := range form.Documents {
		path := filepath.Join(dir, filepath.Base(upload.Name))
		if err := os.WriteFile(path, upload.Data, 0o644); err != nil {
			return errors.Wrapf(err, "store %s document", role)
		}
		claim.Documents[role] = path
	}
	return nil
}
