package reason

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNameRequired = errors.New("reason name is required")
	ErrNotFound     = errors.New("reason not found")
	ErrDialogClosed = errors.New("reason dialog is not open")
)

// Reason is a customer-facing justification for a return or exchange
type Reason struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Message       string `json:"message" yaml:"message"`
	RequireNote   bool   `json:"requireNote" yaml:"requireNote"`
	RequireMedia  bool   `json:"requireMedia" yaml:"requireMedia"`
	OptInRequired bool   `json:"optInRequired" yaml:"optInRequired"`
}

// Form holds every editable field of a Reason
type Form struct {
	Name          string `json:"name" validate:"required"`
	Message       string `json:"message"`
	RequireNote   bool   `json:"requireNote"`
	RequireMedia  bool   `json:"requireMedia"`
	OptInRequired bool   `json:"optInRequired"`
}

var validate = validator.New()

// Validate rejects forms whose name is empty or whitespace only
func (f Form) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	if err := validate.Struct(f); err != nil {
		return ErrNameRequired
	}
	return nil
}

// FormOf returns the form prefilled from r
func FormOf(r Reason) Form {
	return Form{
		Name:          r.Name,
		Message:       r.Message,
		RequireNote:   r.RequireNote,
		RequireMedia:  r.RequireMedia,
		OptInRequired: r.OptInRequired,
	}
}

// apply overwrites every field of r except the ID
func (f Form) apply(r Reason) Reason {
	r.Name = f.Name
	r.Message = f.Message
	r.RequireNote = f.RequireNote
	r.RequireMedia = f.RequireMedia
	r.OptInRequired = f.OptInRequired
	return r
}
