package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"

	api "github.com/ayurankh/claims-processor/api/v1alpha1"
	"github.com/ayurankh/claims-processor/internal/service"
	"github.com/ayurankh/claims-processor/internal/store"
	"github.com/ayurankh/claims-processor/internal/store/model"
)

var _ = Describe("override service", func() {
	var (
		s   store.Store
		srv *service.OverrideService
	)

	BeforeEach(func() {
		s = store.NewStore()
		srv = service.NewOverrideService(s)
	})

	It("records a sealed audit entry", func() {
		entry, err := srv.Override(context.TODO(), api.OverrideRequest{
			TaskID:  uuid.NewString(),
			ActorID: "DR_ANITA",
			Reason:  "Reviewed scan manually",
		})
		Expect(err).To(BeNil())
		Expect(entry.Event).To(Equal("OVERRIDE"))
		Expect(entry.Signature).To(HaveLen(64))

		stored := s.Override().List()
		Expect(stored).To(HaveLen(1))
		Expect(stored[0].Verify()).To(BeTrue())
	})

	It("accepts overrides for unknown tasks", func() {
		// The audit log is advisory; it does not gate on ledger membership.
		_, err := srv.Override(context.TODO(), api.OverrideRequest{
			TaskID:  uuid.NewString(),
			ActorID: "DR_ANITA",
			Reason:  "Pre-registered decision",
		})
		Expect(err).To(BeNil())
	})

	It("never mutates task state", func() {
		task := s.Task().Create(uuid.New(), &model.ClaimSubmission{VerifiedPatientID: "P123"})

		_, err := srv.Override(context.TODO(), api.OverrideRequest{
			TaskID:  task.ID.String(),
			ActorID: "DR_ANITA",
			Reason:  "Approved despite flag",
		})
		Expect(err).To(BeNil())
		Expect(task.Snapshot().State).To(Equal(model.TaskPending))
	})

	It("lists entries in append order", func() {
		for _, actor := range []string{"DR_A", "DR_B", "DR_C"} {
			_, err := srv.Override(context.TODO(), api.OverrideRequest{
				TaskID:  uuid.NewString(),
				ActorID: actor,
				Reason:  "reviewed",
			})
			Expect(err).To(BeNil())
		}

		entries, err := srv.List(context.TODO())
		Expect(err).To(BeNil())
		Expect(entries).To(HaveLen(3))
		Expect(entries[0].ActorID).To(Equal("DR_A"))
		Expect(entries[2].ActorID).To(Equal("DR_C"))
	})
})
