// ABOUTME: Planning session models for iterative what-if simulation
// ABOUTME: Server-side selection, config, and override state plus request/response contracts

package models

import "time"

// PlanningSession holds one operator's in-progress migration plan
type PlanningSession struct {
	ID                string             `json:"id"`
	Environment       string             `json:"environment,omitempty"`
	Databases         []SourceDatabase   `json:"databases"`
	Config            CapacityConfig     `json:"config"`
	ExistingInstances []ExistingInstance `json:"existing_instances,omitempty"`
	Naming            NamingSource       `json:"naming"`
	Overrides         ManualAssignments  `json:"overrides"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// Input assembles the engine input for the session's current state
func (s PlanningSession) Input() DistributionInput {
	return DistributionInput{
		Databases:         s.Databases,
		Config:            s.Config,
		ExistingInstances: s.ExistingInstances,
		Overrides:         s.Overrides,
		Naming:            s.Naming,
	}
}

// CreateSessionRequest starts a planning session.
// Existing instances and naming are resolved from the inventory when omitted.
type CreateSessionRequest struct {
	Environment       string             `json:"environment,omitempty"`
	Databases         []SourceDatabase   `json:"databases" validate:"max=10000,dive"`
	Config            *CapacityConfig    `json:"config,omitempty"`
	ExistingInstances []ExistingInstance `json:"existing_instances,omitempty" validate:"max=1000,dive"`
	Naming            *NamingSource      `json:"naming,omitempty"`
	Overrides         ManualAssignments  `json:"overrides,omitempty"`
}

// UpdateSelectionRequest replaces the session's selected databases
type UpdateSelectionRequest struct {
	Databases []SourceDatabase `json:"databases" validate:"max=10000,dive"`
}

// SetOverrideRequest assigns one database to a target instance, AssignNew, or AssignAuto
type SetOverrideRequest struct {
	DatabaseKey string `json:"database_key" validate:"required"`
	Target      string `json:"target"`
}

// SessionResponse returns a session together with its current plan
type SessionResponse struct {
	Session              PlanningSession    `json:"session"`
	Result               DistributionResult `json:"result"`
	OverridesInvalidated bool               `json:"overrides_invalidated"`
}
