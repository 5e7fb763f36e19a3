package handler

import (
	"fmt"
	"sync"

	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the lead_stage and service_stage tags to gin's
// validator. Safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err = v.RegisterValidation("lead_stage", func(fl validator.FieldLevel) bool {
			return entity.LeadStage(fl.Field().String()).Valid()
		}); err != nil {
			return
		}
		err = v.RegisterValidation("service_stage", func(fl validator.FieldLevel) bool {
			return entity.ServiceStage(fl.Field().String()).Valid()
		})
	})
	return err
}
