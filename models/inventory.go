// ABOUTME: Inventory models for source servers and destination instances
// ABOUTME: Shape of the YAML inventory file and the inventory API responses

package models

// SourceServer is a SQL Server instance whose databases may be migrated
type SourceServer struct {
	Name        string `json:"name" yaml:"name" validate:"required,instancename"`
	Environment string `json:"environment" yaml:"environment" validate:"required"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Databases is an optional static snapshot, used when live scanning is not configured
	Databases []SourceDatabase `json:"-" yaml:"databases,omitempty" validate:"dive"`
}

// Inventory lists the known source servers and destination instances
type Inventory struct {
	Servers      []SourceServer     `json:"servers" yaml:"servers" validate:"dive"`
	Destinations []ExistingInstance `json:"destinations" yaml:"destinations" validate:"dive"`
}

// ServersResponse is the API response for the source server listing
type ServersResponse struct {
	Servers []SourceServer `json:"servers"`
}

// DatabasesResponse is the API response for one server's databases
type DatabasesResponse struct {
	Server    string           `json:"server"`
	Databases []SourceDatabase `json:"databases"`
}

// DestinationsResponse is the API response for the destination instance probe
type DestinationsResponse struct {
	Environment  string             `json:"environment,omitempty"`
	Destinations []ExistingInstance `json:"destinations"`
	Naming       NamingSource       `json:"naming"`
}
