package feature

import (
	ierr "github.com/ntechservices/subscription/internal/errors"
	"github.com/ntechservices/subscription/internal/types"
)

// Feature is a gateable capability, independent of any plan. Plans grant it
// through entitlements.
type Feature struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	types.BaseModel
}

// Validate performs validation on the feature
func (f *Feature) Validate() error {
	if f.Name == "" {
		return ierr.NewError("name is required").
			WithHint("Please provide a unique feature name").
			Mark(ierr.ErrValidation)
	}
	return nil
}
