package types

import (
	"fmt"

	ierr "github.com/ntechservices/subscription/internal/errors"
)

// Subscriber is the polymorphic owner of a subscription: an opaque identity
// plus a type tag supplied by the host application (user, team, org, ...).
// The core never resolves it; it is only used as a composite key.
type Subscriber struct {
	Type string `db:"subscriber_type" json:"subscriber_type"`
	ID   string `db:"subscriber_id" json:"subscriber_id"`
}

func (s Subscriber) Validate() error {
	if s.Type == "" || s.ID == "" {
		return ierr.NewError("subscriber type and id are required").
			WithHint("Please provide a valid subscriber reference").
			WithReportableDetails(map[string]any{
				"subscriber_type": s.Type,
				"subscriber_id":   s.ID,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Key returns a stable composite key for maps and locks
func (s Subscriber) Key() string {
	return fmt.Sprintf("%s:%s", s.Type, s.ID)
}
