// Package v1alpha1 contains the wire types exposed by the claims API.
package v1alpha1

import "time"

// ClaimAccepted is returned when a submission is admitted into the pipeline.
type ClaimAccepted struct {
	Message        string `json:"message"`
	TaskID         string `json:"task_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

// DuplicateSubmission is the 409 payload carrying the originally bound task.
type DuplicateSubmission struct {
	Error          string `json:"error"`
	OriginalTaskID string `json:"original_task_id"`
}

// TaskStatus is the polling reply. Info is populated while the task is
// non-terminal, Result once it reaches a terminal state.
type TaskStatus struct {
	TaskID string      `json:"task_id"`
	Status string      `json:"status"`
	Info   *TaskInfo   `json:"info,omitempty"`
	Result *TaskResult `json:"result,omitempty"`
}

// TaskInfo describes the step the worker is currently executing.
type TaskInfo struct {
	Step string `json:"step"`
}

// TaskResult is the terminal payload of a processed claim.
type TaskResult struct {
	Status           string            `json:"status"`
	StepsCompleted   []string          `json:"steps_completed"`
	DicomMetadata    map[string]string `json:"dicom_metadata,omitempty"`
	LabReportText    string            `json:"lab_report_text,omitempty"`
	OcrResults       map[string]string `json:"ocr_results,omitempty"`
	ValidationResult *ValidationResult `json:"validation_result,omitempty"`
	FhirBundle       map[string]any    `json:"fhir_bundle,omitempty"`
	RegistryTxnID    string            `json:"registry_txn_id,omitempty"`
	RegistryError    string            `json:"registry_error,omitempty"`
	Error            string            `json:"error,omitempty"`
}

// ValidationResult mirrors the engine outcome.
type ValidationResult struct {
	Status   string    `json:"status"`
	Failures []Failure `json:"failures,omitempty"`
}

// Failure is a single finding emitted by a validation rule.
type Failure struct {
	Confidence string `json:"confidence"`
	Reason     string `json:"reason"`
}

// ClaimForm carries the scalar fields of a multipart claim submission.
// Documents travel as file parts alongside it.
type ClaimForm struct {
	VerifiedPatientID string `json:"verified_patient_id" validate:"required,patient_id"`
	DoctorDiagnosis   string `json:"doctor_diagnosis" validate:"required"`
	PatientGeotag     string `json:"patient_geotag" validate:"omitempty,geotag"`
	IdentityPayload   string `json:"identity_payload" validate:"omitempty,json"`
	ConsentPayload    string `json:"consent_payload" validate:"omitempty,json"`
	IdempotencyKey    string `json:"idempotency_key" validate:"omitempty,hexadecimal,len=64"`
}

// OverrideRequest records a human decision to proceed past a flagged claim.
type OverrideRequest struct {
	TaskID  string `json:"task_id" validate:"required,uuid4"`
	ActorID string `json:"actor_id" validate:"required,actor_id"`
	Reason  string `json:"reason" validate:"required"`
}

// OverrideLog is a sealed audit entry.
type OverrideLog struct {
	Event     string    `json:"event"`
	TaskID    string    `json:"task_id"`
	ActorID   string    `json:"actor_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
	Signature string    `json:"signature"`
}

// RegistrySubmission is the payload accepted by the mock claims registry.
type RegistrySubmission map[string]any

// RegistryReceipt acknowledges a registry submission.
type RegistryReceipt struct {
	Status   string `json:"status"`
	HceTxnID string `json:"hce_txn_id"`
}

// Error is the generic error envelope.
type Error struct {
	Message   string  `json:"message"`
	RequestID *string `json:"request_id,omitempty"`
}
