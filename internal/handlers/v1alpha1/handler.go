// Package v1alpha1 implements the HTTP surface of the claims processor.
package v1alpha1

import (
	"github.com/ayurankh/claims-processor/internal/handlers/validator"
	"github.com/ayurankh/claims-processor/internal/service"
)

type ServiceHandler struct {
	claimSrv    *service.ClaimService
	overrideSrv *service.OverrideService

	claimValidator    *validator.Validator
	overrideValidator *validator.Validator
}

func NewServiceHandler(claimSrv *service.ClaimService, overrideSrv *service.OverrideService) *ServiceHandler {
	claimValidator := validator.NewValidator()
	claimValidator.Register(validator.NewClaimValidationRules()...)

	overrideValidator := validator.NewValidator()
	overrideValidator.Register(validator.NewOverrideValidationRules()...)

	return &ServiceHandler{
		claimSrv:          claimSrv,
		overrideSrv:       overrideSrv,
		claimValidator:    claimValidator,
		overrideValidator: overrideValidator,
	}
}
