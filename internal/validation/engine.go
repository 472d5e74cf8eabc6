// Package validation implements the zero-trust rule engine that cross-checks
// extracted evidence against the claim form. Validate is a pure function:
// identical inputs always yield an identical outcome.
package validation

import (
	"fmt"
	"strings"

	"github.com/ayurankh/claims-processor/internal/extraction"
	"github.com/ayurankh/claims-processor/internal/store/model"
)

// Severity ranks a finding. The aggregate status is the maximum severity
// present, regardless of count or order of lower findings.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
)

// Status is the aggregate outcome of a validation run.
type Status string

const (
	StatusPassed         Status = "PASSED"
	StatusPassedMedium   Status = "PASSED_MEDIUM"
	StatusFlaggedHigh    Status = "FLAGGED_HIGH"
	StatusFailedCritical Status = "FAILED_CRITICAL"
)

// Finding is a single rule hit. Findings keep evaluation-rule order, not
// severity order.
type Finding struct {
	Severity Severity
	Reason   string
}

// Outcome is the deterministic product of a validation run.
type Outcome struct {
	Status   Status
	Findings []Finding
}

// Evidence is the extracted view of a claim's documents keyed by role.
type Evidence map[model.DocumentRole]extraction.Result

type rule func(claim *model.ClaimSubmission, ev Evidence) *Finding

// rules are evaluated in fixed order; each appends zero or one finding.
var rules = []rule{
	identityMatchRule,
	clinicalConsistencyRule,
	geotagFraudRule,
	consentCompletenessRule,
}

// Validate evaluates every rule and aggregates findings into the strict
// severity ladder.
func Validate(claim *model.ClaimSubmission, ev Evidence) Outcome {
	var findings []Finding
	for _, r := range rules {
		if f := r(claim, ev); f != nil {
			findings = append(findings, *f)
		}
	}
	return Outcome{Status: aggregate(findings), Findings: findings}
}

func aggregate(findings []Finding) Status {
	status := StatusPassed
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			return StatusFailedCritical
		case SeverityHigh:
			status = StatusFlaggedHigh
		case SeverityMedium:
			if status == StatusPassed {
				status = StatusPassedMedium
			}
		}
	}
	return status
}

// identityMatchRule compares the declared patient id to the one carried in
// the image metadata. A corrupt source is itself a critical finding.
func identityMatchRule(claim *model.ClaimSubmission, ev Evidence) *Finding {
	dicom := ev[model.RoleDicom]
	if dicom.Failed() {
		return &Finding{
			Severity: SeverityCritical,
			Reason:   fmt.Sprintf("DICOM Corrupt: %s", dicom.Err),
		}
	}

	declared := strings.TrimSpace(claim.VerifiedPatientID)
	extracted := strings.TrimSpace(dicom.Metadata[extraction.FieldPatientID])
	if declared != extracted {
		return &Finding{
			Severity: SeverityCritical,
			Reason:   fmt.Sprintf("Patient ID Mismatch: Form(%s) vs DICOM(%s)", declared, extracted),
		}
	}
	return nil
}

// clinicalConsistencyRule flags a critical diagnosis contradicted by a
// normal lab report.
func clinicalConsistencyRule(claim *model.ClaimSubmission, ev Evidence) *Finding {
	diagnosis := strings.ToLower(claim.DoctorDiagnosis)
	lab := strings.ToLower(ev[model.RoleLabPDF].Text)

	if (strings.Contains(diagnosis, "critical") || strings.Contains(diagnosis, "fracture")) &&
		strings.Contains(lab, "normal") {
		return &Finding{
			Severity: SeverityHigh,
			Reason:   "Lab report says 'Normal' but Diagnosis is Critical.",
		}
	}
	return nil
}

// geotagFraudRule flags a patient photo supplied without location evidence.
func geotagFraudRule(claim *model.ClaimSubmission, _ Evidence) *Finding {
	if claim.HasDocument(model.RolePatientPhoto) && claim.PatientGeotag == "" {
		return &Finding{
			Severity: SeverityMedium,
			Reason:   "Patient photo provided, but GPS geotag data is missing.",
		}
	}
	return nil
}

// consentCompletenessRule requires either a digital consent payload or an
// uploaded consent image.
func consentCompletenessRule(claim *model.ClaimSubmission, _ Evidence) *Finding {
	if len(claim.ConsentData) == 0 && !claim.HasDocument(model.RoleConsentImage) {
		return &Finding{
			Severity: SeverityCritical,
			Reason:   "Missing Patient Consent (Payload or Image required).",
		}
	}
	return nil
}
