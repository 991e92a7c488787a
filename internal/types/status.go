package types

// Status is a type for the lifecycle status of a stored record.
// This tracks soft deletion and archival, not the business state of a
// subscription (see SubscriptionStatus for that).
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)
