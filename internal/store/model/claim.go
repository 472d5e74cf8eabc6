package model

// DocumentRole identifies the purpose of an attached file.
type DocumentRole string

const (
	RoleDicom        DocumentRole = "dicom"
	RoleLabPDF       DocumentRole = "lab_pdf"
	RoleIdentityDoc  DocumentRole = "identity_doc"
	RoleConsentImage DocumentRole = "consent_image"
	RolePatientPhoto DocumentRole = "patient_photo"
)

// ClaimSubmission is the accepted form data plus the materialized documents.
// It is immutable once admitted; the pipeline only reads it.
type ClaimSubmission struct {
	VerifiedPatientID string
	DoctorDiagnosis   string
	PatientGeotag     string
	IdentityData      map[string]any
	ConsentData       map[string]any
	Documents         map[DocumentRole]string
}

// HasDocument reports whether a file was supplied for the given role.
func (c *ClaimSubmission) HasDocument(role DocumentRole) bool {
	_, ok := c.Documents[role]
	return ok
}
