package controllers

import (
	"civictrack/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the issue_category and issue_status binding tags
// to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("issue_category", func(fl validator.FieldLevel) bool {
		return models.IssueCategory(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("issue_status", func(fl validator.FieldLevel) bool {
		return models.IssueStatus(fl.Field().String()).Valid()
	})
}
