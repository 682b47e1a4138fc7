package domain

import "time"

type ProvisionStatus string

const (
	// ProvisionInProgress is written before the first provisioning step
	// runs. Finding it on a later attempt means an earlier run failed
	// part-way and the sequence must be re-run, not skipped.
	ProvisionInProgress ProvisionStatus = "in_progress"
	ProvisionComplete   ProvisionStatus = "complete"
)

// ProvisionState is the durable record of a tenant's provisioning run.
// It replaces "database file exists" as the idempotency guard, so partial
// failures stay detectable and retriable.
type ProvisionState struct {
	Slug        string          `json:"slug"`
	Status      ProvisionStatus `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at,omitempty"`
}
