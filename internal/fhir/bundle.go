// Package fhir renders the downstream claim record as a FHIR transaction
// bundle. Generation is best-effort: a failure here is reported to the
// caller but never changes a validation outcome.
package fhir

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/ayurankh/claims-processor/internal/store/model"
)

type CodeableConcept struct {
	Text string `json:"text,omitempty"`
}

type Reference struct {
	Reference string `json:"reference,omitempty"`
}

type Patient struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id"`
}

type Observation struct {
	ResourceType string          `json:"resourceType"`
	Status       string          `json:"status"`
	Code         CodeableConcept `json:"code"`
	ValueString  string          `json:"valueString,omitempty"`
	Subject      Reference       `json:"subject"`
}

type BundleRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

type BundleEntry struct {
	Resource any           `json:"resource"`
	Request  BundleRequest `json:"request"`
}

type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	Entry        []BundleEntry `json:"entry"`
}

// Generate builds a transaction bundle holding the patient and the
// diagnosis observation for an accepted claim.
func Generate(claim *model.ClaimSubmission) (map[string]any, error) {
	patient := Patient{
		ResourceType: "Patient",
		ID:           claim.VerifiedPatientID,
	}
	observation := Observation{
		ResourceType: "Observation",
		Status:       "final",
		Code:         CodeableConcept{Text: "Diagnosis"},
		ValueString:  claim.DoctorDiagnosis,
		Subject:      Reference{Reference: "Patient/" + patient.ID},
	}
	bundle := Bundle{
		ResourceType: "Bundle",
		Type:         "transaction",
		Entry: []BundleEntry{
			{Resource: patient, Request: BundleRequest{Method: "POST", URL: "Patient"}},
			{Resource: observation, Request: BundleRequest{Method: "POST", URL: "Observation"}},
		},
	}

	raw, err := json.Marshal(bundle)
	if err != nil {
		return nil, errors.Wrap(err, "encode fhir bundle")
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "decode fhir bundle")
	}
	return out, nil
}
