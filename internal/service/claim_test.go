package service_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"

	"github.com/ayurankh/claims-processor/internal/extraction"
	"github.com/ayurankh/claims-processor/internal/pipeline"
	"github.com/ayurankh/claims-processor/internal/registry"
	"github.com/ayurankh/claims-processor/internal/service"
	"github.com/ayurankh/claims-processor/internal/store"
	"github.com/ayurankh/claims-processor/internal/store/model"
)

type stubAdapter struct {
	result extraction.Result
}

func (a *stubAdapter) Extract(_ context.Context, _ string) extraction.Result {
	return a.result
}

func validForm() service.SubmissionForm {
	return service.SubmissionForm{
		VerifiedPatientID: "P123",
		DoctorDiagnosis:   "Critical",
		ConsentPayload:    `{"signed": true}`,
		Documents: map[model.DocumentRole]service.FileUpload{
			model.RoleDicom: {Name: "scan.dcm", Data: []byte("dicom bytes")},
		},
	}
}

var _ = Describe("claim service", func() {
	var (
		s         store.Store
		d         *pipeline.Dispatcher
		uploadDir string
		srv       *service.ClaimService
	)

	BeforeEach(func() {
		s = store.NewStore()
		runner := pipeline.NewRunner(s, registry.NewStubClient())
		d = pipeline.NewDispatcher(runner, 1, 16)
		uploadDir = GinkgoT().TempDir()
		srv = service.NewClaimService(s, d, uploadDir)
	})

	Context("submit", func() {
		It("admits a new claim and creates a pending task", func() {
			info, err := srv.Submit(context.TODO(), validForm())
			Expect(err).To(BeNil())
			Expect(info.TaskID).ToNot(Equal(uuid.Nil))
			Expect(info.IdempotencyKey).To(HaveLen(64))

			task, err := s.Task().Get(info.TaskID)
			Expect(err).To(BeNil())
			Expect(task.Snapshot().State).To(Equal(model.TaskPending))
		})

		It("materializes uploaded documents under the task directory", func() {
			info, err := srv.Submit(context.TODO(), validForm())
			Expect(err).To(BeNil())

			stored := filepath.Join(uploadDir, info.TaskID.String(), "scan.dcm")
			data, err := os.ReadFile(stored)
			Expect(err).To(BeNil())
			Expect(data).To(Equal([]byte("dicom bytes")))

			task, err := s.Task().Get(info.TaskID)
			Expect(err).To(BeNil())
			Expect(task.Claim.Documents[model.RoleDicom]).To(Equal(stored))
		})

		It("rejects a duplicate with the originally bound task id", func() {
			first, err := srv.Submit(context.TODO(), validForm())
			Expect(err).To(BeNil())

			_, err = srv.Submit(context.TODO(), validForm())
			Expect(err).To(BeAssignableToTypeOf(&service.ErrDuplicateSubmission{}))
			Expect(err.(*service.ErrDuplicateSubmission).OriginalTaskID).To(Equal(first.TaskID))
		})

		It("honors a caller-supplied idempotency key", func() {
			form := validForm()
			form.IdempotencyKey = "custom-key"

			first, err := srv.Submit(context.TODO(), form)
			Expect(err).To(BeNil())
			Expect(first.IdempotencyKey).To(Equal("custom-key"))

			retry := validForm()
			retry.IdempotencyKey = "custom-key"
			retry.DoctorDiagnosis = "Routine"

			_, err = srv.Submit(context.TODO(), retry)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrDuplicateSubmission{}))
		})

		It("treats a changed diagnosis as a fresh submission", func() {
			_, err := srv.Submit(context.TODO(), validForm())
			Expect(err).To(BeNil())

			changed := validForm()
			changed.DoctorDiagnosis = "Routine"

			info, err := srv.Submit(context.TODO(), changed)
			Expect(err).To(BeNil())
			Expect(info.TaskID).ToNot(Equal(uuid.Nil))
		})

		It("refuses a submission without the primary document", func() {
			form := validForm()
			delete(form.Documents, model.RoleDicom)

			_, err := srv.Submit(context.TODO(), form)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrMissingDocument{}))
		})

		It("refuses malformed identity payloads before binding the key", func() {
			form := validForm()
			form.IdentityPayload = "{not json"

			_, err := srv.Submit(context.TODO(), form)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidPayload{}))

			// The key must still be free for a corrected retry.
			_, err = srv.Submit(context.TODO(), validForm())
			Expect(err).To(BeNil())
		})

		It("resolves a bound key to an ERROR task when document storage fails", func() {
			// A regular file in place of the upload directory makes
			// MkdirAll fail after the key is bound.
			blocked := filepath.Join(uploadDir, "not-a-dir")
			Expect(os.WriteFile(blocked, []byte("x"), 0o644)).To(Succeed())
			srv = service.NewClaimService(s, d, blocked)

			_, err := srv.Submit(context.TODO(), validForm())
			Expect(err).ToNot(BeNil())

			_, err = srv.Submit(context.TODO(), validForm())
			Expect(err).To(BeAssignableToTypeOf(&service.ErrDuplicateSubmission{}))
			boundID := err.(*service.ErrDuplicateSubmission).OriginalTaskID

			task, err := s.Task().Get(boundID)
			Expect(err).To(BeNil())
			Expect(task.Snapshot().State).To(Equal(model.TaskError))
			Expect(task.Snapshot().Result.Error).To(ContainSubstring("document storage failed"))
		})
	})

	Context("get status", func() {
		It("returns the current snapshot of a pending task", func() {
			info, err := srv.Submit(context.TODO(), validForm())
			Expect(err).To(BeNil())

			status, err := srv.GetStatus(context.TODO(), info.TaskID)
			Expect(err).To(BeNil())
			Expect(status.TaskID).To(Equal(info.TaskID.String()))
			Expect(status.Status).To(Equal(string(model.TaskPending)))
			Expect(status.Result).To(BeNil())
		})

		It("returns the terminal result once processing finishes", func() {
			info, err := srv.Submit(context.TODO(), validForm())
			Expect(err).To(BeNil())

			runner := pipeline.NewRunner(s, registry.NewStubClient(),
				pipeline.WithAdapter(model.RoleDicom, &stubAdapter{result: extraction.Result{
					Role:     model.RoleDicom,
					Kind:     extraction.KindMetadata,
					Metadata: map[string]string{extraction.FieldPatientID: "P123"},
				}}),
			)
			runner.Process(context.TODO(), info.TaskID)

			status, err := srv.GetStatus(context.TODO(), info.TaskID)
			Expect(err).To(BeNil())
			Expect(status.Status).To(Equal(string(model.TaskCompleted)))
			Expect(status.Result).ToNot(BeNil())
			Expect(status.Result.RegistryTxnID).To(HavePrefix("HCE_"))
		})

		It("reports unknown tasks", func() {
			_, err := srv.GetStatus(context.TODO(), uuid.New())
			Expect(err).To(BeAssignableToTypeOf(&service.ErrTaskNotFound{}))
		})
	})
})
