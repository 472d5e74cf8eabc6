package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/ayurankh/claims-processor/api/v1alpha1"
	"github.com/ayurankh/claims-processor/internal/events"
	"github.com/ayurankh/claims-processor/internal/extraction"
	"github.com/ayurankh/claims-processor/internal/fhir"
	"github.com/ayurankh/claims-processor/internal/registry"
	"github.com/ayurankh/claims-processor/internal/store"
	"github.com/ayurankh/claims-processor/internal/store/model"
	"github.com/ayurankh/claims-processor/internal/validation"
	"github.com/ayurankh/claims-processor/pkg/metrics"
)

// Step labels published to pollers at each phase boundary.
const (
	stepProcessingDicom = "Processing DICOM..."
	stepValidating      = "Running Zero-Trust Validation..."
)

// ocrSteps maps an optional document role to its completed-step label.
var ocrSteps = []struct {
	role  model.DocumentRole
	label string
}{
	{model.RoleLabPDF, "LAB_PDF"},
	{model.RoleIdentityDoc, "IDENTITY_OCR"},
	{model.RoleConsentImage, "CONSENT_OCR"},
}

// Runner executes one task end to end. Extraction and validation are free
// of external side effects, so re-execution after a crash is safe.
type Runner struct {
	store    store.Store
	registry registry.Client
	producer *events.EventProducer
	adapters map[model.DocumentRole]extraction.Adapter
}

type RunnerOption func(*Runner)

// WithAdapter overrides the adapter for a document role, used by tests.
func WithAdapter(role model.DocumentRole, a extraction.Adapter) RunnerOption {
	return func(r *Runner) {
		r.adapters[role] = a
	}
}

// WithEventProducer attaches a lifecycle event producer.
func WithEventProducer(ep *events.EventProducer) RunnerOption {
	return func(r *Runner) {
		r.producer = ep
	}
}

func NewRunner(s store.Store, reg registry.Client, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:    s,
		registry: reg,
		adapters: map[model.DocumentRole]extraction.Adapter{
			model.RoleDicom:        extraction.NewDicomAdapter(),
			model.RoleLabPDF:       extraction.NewPDFAdapter(),
			model.RoleIdentityDoc:  extraction.NewOCRAdapter(model.RoleIdentityDoc),
			model.RoleConsentImage: extraction.NewOCRAdapter(model.RoleConsentImage),
		},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Process runs the task to a terminal state. A task already terminal is
// left untouched, making redelivery a no-op after completion. Any fault not
// absorbed by an adapter resolves the task to ERROR; the task never remains
// stuck in a non-terminal state once its worker returns.
func (r *Runner) Process(ctx context.Context, taskID uuid.UUID) {
	logger := zap.S().Named("pipeline").With("task_id", taskID)
	start := time.Now()

	task, err := r.store.Task().Get(taskID)
	if err != nil {
		logger.Errorw("dropping delivery of unknown task", "error", err)
		return
	}
	if task.Snapshot().State.Terminal() {
		logger.Debug("task already terminal, skipping redelivery")
		return
	}

	defer func() {
		if fault := recover(); fault != nil {
			r.terminate(logger, task, model.TaskError, &api.TaskResult{
				Status: string(model.TaskError),
				Error:  fmt.Sprintf("pipeline fault: %v", fault),
			})
		}
		metrics.ObservePipelineDuration(time.Since(start).Seconds())
	}()

	result := &api.TaskResult{OcrResults: map[string]string{}}
	evidence := validation.Evidence{}
	claim := task.Claim

	// 1. Primary identity document.
	r.advance(logger, task, model.TaskProcessing, stepProcessingDicom)
	dicomRes := r.adapters[model.RoleDicom].Extract(ctx, claim.Documents[model.RoleDicom])
	evidence[model.RoleDicom] = dicomRes
	if !dicomRes.Failed() {
		result.DicomMetadata = dicomRes.Metadata
	}
	result.StepsCompleted = append(result.StepsCompleted, "DICOM")

	// 2. Optional text documents, sequential by design: validation needs
	// all of them before it starts.
	for _, step := range ocrSteps {
		path, ok := claim.Documents[step.role]
		if !ok {
			continue
		}
		r.advance(logger, task, model.TaskProcessing, fmt.Sprintf("Reading %s...", step.label))

		res := r.adapters[step.role].Extract(ctx, path)
		evidence[step.role] = res

		text := res.Text
		if res.Failed() {
			text = res.Err
		}
		if step.role == model.RoleLabPDF {
			result.LabReportText = text
		} else {
			result.OcrResults[string(step.role)] = text
		}
		result.StepsCompleted = append(result.StepsCompleted, step.label)
	}

	// 3. Zero-trust validation.
	r.advance(logger, task, model.TaskValidating, stepValidating)
	outcome := validation.Validate(claim, evidence)
	result.ValidationResult = outcomeToApi(outcome)
	for _, f := range outcome.Findings {
		metrics.IncreaseFindingsMetric(string(f.Severity))
	}

	// 4. Downstream record, best effort for non-failed outcomes only. Its
	// failure is data in the result, never a downgrade of the outcome.
	if outcome.Status != validation.StatusFailedCritical {
		r.submitDownstream(ctx, claim, result)
	}

	r.terminate(logger, task, terminalState(outcome.Status), result)
}

func (r *Runner) submitDownstream(ctx context.Context, claim *model.ClaimSubmission, result *api.TaskResult) {
	bundle, err := fhir.Generate(claim)
	if err != nil {
		result.RegistryError = fmt.Sprintf("FHIR Generation Failed: %v", err)
		return
	}
	result.FhirBundle = bundle

	txnID, err := r.registry.SubmitClaim(ctx, bundle)
	if err != nil {
		result.RegistryError = fmt.Sprintf("Registry Submission Failed: %v", err)
		return
	}
	result.RegistryTxnID = txnID
}

// advance publishes a state plus progress label. A ledger already past the
// requested phase (crash-recovery redelivery) is not an error.
func (r *Runner) advance(logger *zap.SugaredLogger, task *model.Task, state model.TaskState, step string) {
	if err := r.store.Task().Transition(task.ID, state, step); err != nil {
		logger.Warnw("skipping state transition", "state", state, "error", err)
		return
	}
	r.publishEvent(events.TaskEvent{TaskID: task.ID.String(), State: string(state), Step: step})
}

func (r *Runner) terminate(logger *zap.SugaredLogger, task *model.Task, state model.TaskState, result *api.TaskResult) {
	result.Status = string(state)
	if err := r.store.Task().RecordResult(task.ID, state, result); err != nil {
		logger.Errorw("failed to record terminal result", "state", state, "error", err)
		return
	}
	metrics.IncreaseTasksTerminalMetric(string(state))
	r.publishEvent(events.TaskEvent{TaskID: task.ID.String(), State: string(state), Status: result.Status})
	logger.Infow("task terminated", "state", state)
}

func (r *Runner) publishEvent(event events.TaskEvent) {
	if r.producer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := r.producer.Write(context.TODO(), events.TaskMessageKind, bytes.NewReader(data)); err != nil {
		zap.S().Named("pipeline").Warnw("failed to publish task event", "error", err)
	}
}

// terminalState maps a validation status to the task's terminal state.
// FLAGGED requires a human override to proceed.
func terminalState(status validation.Status) model.TaskState {
	switch status {
	case validation.StatusFailedCritical:
		return model.TaskFailed
	case validation.StatusFlaggedHigh:
		return model.TaskFlagged
	default:
		return model.TaskCompleted
	}
}

func outcomeToApi(outcome validation.Outcome) *api.ValidationResult {
	res := &api.ValidationResult{Status: string(outcome.Status)}
	for _, f := range outcome.Findings {
		res.Failures = append(res.Failures, api.Failure{
			Confidence: string(f.Severity),
			Reason:     f.Reason,
		})
	}
	return res
}
