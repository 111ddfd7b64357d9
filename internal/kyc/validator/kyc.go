package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"yxplore/pkg/logger"
	"yxplore/pkg/model"
	"yxplore/pkg/validation"

	"github.com/go-playground/validator/v10"
)

const MaxNotesLength = 2000

type KycValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewKycValidator(log *logger.Logger) *KycValidator {
	return &KycValidator{
		validate: validation.New(log),
		logger:   log,
	}
}

func (v *KycValidator) ValidateRef(ref model.ProfileRef) error {
	return validation.Struct(v.validate, ref)
}

func (v *KycValidator) ValidateLevel(level model.KycLevel) error {
	if !level.Valid() {
		return validation.Field("level", "level must be 1 or 2")
	}
	return nil
}

// ValidateSubject checks a profile after submitted data has been applied to it.
func (v *KycValidator) ValidateSubject(subject model.KycSubject) error {
	if err := validation.Struct(v.validate, subject); err != nil {
		return err
	}
	if c, ok := subject.(*model.ClientProfile); ok && c.BirthDate != nil && c.BirthDate.After(time.Now()) {
		return validation.Field(model.FieldBirthDate, "birth_date cannot be in the future")
	}
	return nil
}

func (v *KycValidator) ValidateDocuments(docs map[string]model.DocumentRef) error {
	var errs validation.ValidationErrors
	for slot, doc := range docs {
		err := validation.Struct(v.validate, doc)
		if err == nil {
			continue
		}
		var fieldErrs validation.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			fe.Field = fmt.Sprintf("documents.%s.%s", slot, fe.Field)
			errs = append(errs, fe)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateNotes trims notes in place. A rejection must explain itself.
func (v *KycValidator) ValidateNotes(notes *string, required bool) error {
	*notes = strings.TrimSpace(*notes)
	if required && *notes == "" {
		return validation.Field("notes", "notes are required to reject a validation")
	}
	if len(*notes) > MaxNotesLength {
		return validation.Field("notes", fmt.Sprintf("notes must be at most %d characters", MaxNotesLength))
	}
	return nil
}
