// ABOUTME: Data models for the database migration distribution engine
// ABOUTME: Source databases, destination bins, disk layouts, and capacity settings

package models

import (
	"math"
	"time"
)

// Fixed disk geometry for destination SQL Server instances
const (
	DefaultDiskTotalGB    = 500.0
	DefaultDiskReservedGB = 50.0
	MaxDataDisks          = 18
	LogDiskLetter         = "H"

	// WarningThreshold is the fraction of usable disk capacity that flags a warning
	WarningThreshold = 0.85
)

// DataDiskLetters is the ordered alphabet of data disk drive letters (I..Z).
var DataDiskLetters = []string{
	"I", "J", "K", "L", "M", "N", "O", "P", "Q",
	"R", "S", "T", "U", "V", "W", "X", "Y", "Z",
}

// Manual assignment sentinels
const (
	AssignNew  = "__new__"
	AssignAuto = "__auto__"
)

// DestinationStrategy governs whether pre-existing destination instances receive databases
type DestinationStrategy string

const (
	StrategyNewOnly      DestinationStrategy = "new_only"
	StrategyExistingOnly DestinationStrategy = "existing_only"
	StrategyBoth         DestinationStrategy = "both"
)

// UsesExisting reports whether existing instances participate as bins
func (s DestinationStrategy) UsesExisting() bool {
	return s != StrategyNewOnly
}

// ExistingCapacityPolicy sets how much data an existing instance may absorb
type ExistingCapacityPolicy string

const (
	// PolicyExpandable lets existing instances grow up to the full data disk alphabet
	PolicyExpandable ExistingCapacityPolicy = "expandable"
	// PolicyProvisioned limits existing instances to the disks they already have
	PolicyProvisioned ExistingCapacityPolicy = "provisioned"
)

// Instance status values
const (
	StatusOK       = "ok"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// SourceDatabase is one database found on a source instance
type SourceDatabase struct {
	InstanceName  string  `json:"instance_name" yaml:"instance_name" validate:"required"`
	Name          string  `json:"name" yaml:"name" validate:"required"`
	DataSizeMB    float64 `json:"data_size_mb" yaml:"data_size_mb" validate:"gte=0"`
	LogSizeMB     float64 `json:"log_size_mb" yaml:"log_size_mb" validate:"gte=0"`
	TotalSizeMB   float64 `json:"total_size_mb" yaml:"total_size_mb"`
	State         string  `json:"state,omitempty" yaml:"state,omitempty"`
	RecoveryModel string  `json:"recovery_model,omitempty" yaml:"recovery_model,omitempty"`
	Collation     string  `json:"collation,omitempty" yaml:"collation,omitempty"`
}

// DatabaseKey builds the "instance||db" identity used for overrides and lookups
func DatabaseKey(instanceName, name string) string {
	return instanceName + "||" + name
}

// Key returns the unique "instance||db" identity of the database
func (d SourceDatabase) Key() string {
	return DatabaseKey(d.InstanceName, d.Name)
}

// Total returns TotalSizeMB, deriving it from data and log when unset
func (d SourceDatabase) Total() float64 {
	if d.TotalSizeMB > 0 {
		return d.TotalSizeMB
	}
	return d.DataSizeMB + d.LogSizeMB
}

// DataGB returns the data file size in GB
func (d SourceDatabase) DataGB() float64 {
	return d.DataSizeMB / 1024
}

// LogGB returns the log file size in GB
func (d SourceDatabase) LogGB() float64 {
	return d.LogSizeMB / 1024
}

// CapacityConfig holds simulation parameters chosen by the operator
type CapacityConfig struct {
	DiskTotalGB                float64                `json:"disk_total_gb" yaml:"disk_total_gb" validate:"gte=0"`
	DiskReservedGB             float64                `json:"disk_reserved_gb" yaml:"disk_reserved_gb" validate:"gte=0"`
	MaxDataDisksPerNewInstance int                    `json:"max_data_disks_per_new_instance" yaml:"max_data_disks_per_new_instance" validate:"gte=1,lte=18"`
	DestinationStrategy        DestinationStrategy    `json:"destination_strategy" yaml:"destination_strategy" validate:"omitempty,oneof=new_only existing_only both"`
	CustomInstanceNames        []string               `json:"custom_instance_names,omitempty" yaml:"custom_instance_names,omitempty" validate:"dive,required,instancename"`
	ExistingCapacityPolicy     ExistingCapacityPolicy `json:"existing_capacity_policy,omitempty" yaml:"existing_capacity_policy,omitempty" validate:"omitempty,oneof=expandable provisioned"`
}

// DefaultCapacityConfig returns the standard 500 GB / 50 GB reserved disk model
func DefaultCapacityConfig() CapacityConfig {
	return CapacityConfig{
		DiskTotalGB:                DefaultDiskTotalGB,
		DiskReservedGB:             DefaultDiskReservedGB,
		MaxDataDisksPerNewInstance: 4,
		DestinationStrategy:        StrategyNewOnly,
		ExistingCapacityPolicy:     PolicyExpandable,
	}
}

// WithDefaults fills zero-valued disk geometry and policy fields
func (c CapacityConfig) WithDefaults() CapacityConfig {
	if c.DiskTotalGB == 0 {
		c.DiskTotalGB = DefaultDiskTotalGB
	}
	if c.DiskReservedGB == 0 && c.DiskTotalGB == DefaultDiskTotalGB {
		c.DiskReservedGB = DefaultDiskReservedGB
	}
	if c.DestinationStrategy == "" {
		c.DestinationStrategy = StrategyNewOnly
	}
	if c.ExistingCapacityPolicy == "" {
		c.ExistingCapacityPolicy = PolicyExpandable
	}
	return c
}

// DiskUsableGB is the capacity of one data disk that may hold data
func (c CapacityConfig) DiskUsableGB() float64 {
	return c.DiskTotalGB - c.DiskReservedGB
}

// MaxDataCapacityNew is the data ceiling of a newly created instance
func (c CapacityConfig) MaxDataCapacityNew() float64 {
	return float64(c.MaxDataDisksPerNewInstance) * c.DiskUsableGB()
}

// MaxDataCapacityExisting is the data ceiling of an existing instance with full disk expansion
func (c CapacityConfig) MaxDataCapacityExisting() float64 {
	return float64(MaxDataDisks) * c.DiskUsableGB()
}

// ExistingInstance is a destination instance already present in the inventory
type ExistingInstance struct {
	Name                 string   `json:"name" yaml:"name" validate:"required,instancename"`
	Environment          string   `json:"environment,omitempty" yaml:"environment,omitempty"`
	ConnectionSuccess    bool     `json:"connection_success" yaml:"connection_success"`
	ConnectionError      string   `json:"connection_error,omitempty" yaml:"-"`
	CurrentDataSizeMB    float64  `json:"current_data_size_mb" yaml:"current_data_size_mb" validate:"gte=0"`
	CurrentLogSizeMB     float64  `json:"current_log_size_mb" yaml:"current_log_size_mb" validate:"gte=0"`
	CurrentDatabaseCount int      `json:"current_database_count" yaml:"current_database_count" validate:"gte=0"`
	CurrentDatabaseNames []string `json:"current_database_names,omitempty" yaml:"current_database_names,omitempty"`
	CurrentDataDiskCount int      `json:"current_data_disk_count" yaml:"current_data_disk_count" validate:"gte=0"`
}

// ManualAssignments maps a database key to a target bin name, AssignNew, or AssignAuto
type ManualAssignments map[string]string

// Target returns the explicit override for a key, or "" when the engine decides
func (m ManualAssignments) Target(key string) string {
	target, ok := m[key]
	if !ok || target == "" || target == AssignAuto {
		return ""
	}
	return target
}

// NamingSource seeds instance names for newly created bins
type NamingSource struct {
	BaseName            string `json:"base_name" yaml:"base_name"`
	NextAvailableNumber int    `json:"next_available_number" yaml:"next_available_number" validate:"gte=0"`
	Environment         string `json:"environment,omitempty" yaml:"environment,omitempty"`
}

// DistributionInput is the full, explicit input of one engine run
type DistributionInput struct {
	Databases         []SourceDatabase   `json:"databases" yaml:"databases" validate:"max=10000,dive"`
	Config            CapacityConfig     `json:"config" yaml:"config"`
	ExistingInstances []ExistingInstance `json:"existing_instances,omitempty" yaml:"existing_instances,omitempty" validate:"max=1000,dive"`
	Overrides         ManualAssignments  `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	Naming            NamingSource       `json:"naming" yaml:"naming"`
}

// DiskInfo is one data disk slot within a destination instance
type DiskInfo struct {
	Letter         string  `json:"letter"`
	UsedGB         float64 `json:"used_gb"`
	IsExistingDisk bool    `json:"is_existing_disk"`
	PreExistingGB  float64 `json:"pre_existing_gb"`
	NewGB          float64 `json:"new_gb"`
}

// UsagePct returns used capacity as a percentage of usable capacity
func (d DiskInfo) UsagePct(usableGB float64) float64 {
	if usableGB <= 0 {
		return 0
	}
	return d.UsedGB / usableGB * 100
}

// BinAlert describes one disk that crossed a capacity threshold
type BinAlert struct {
	Severity string `json:"severity"` // "warning", "critical"
	Disk     string `json:"disk"`
	Message  string `json:"message"`
}

// DatabasePlacement reports which disk a database lands on within its instance
type DatabasePlacement struct {
	DatabaseKey    string  `json:"database_key"`
	SourceInstance string  `json:"source_instance"`
	DatabaseName   string  `json:"database_name"`
	DataGB         float64 `json:"data_gb"`
	LogGB          float64 `json:"log_gb"`
	TargetDisk     string  `json:"target_disk"`
	LogDisk        string  `json:"log_disk"`
}

// SuggestedInstance is one destination bin, new or existing
type SuggestedInstance struct {
	Name               string              `json:"name"`
	IsExisting         bool                `json:"is_existing"`
	Databases          []SourceDatabase    `json:"databases"`
	TotalDataGB        float64             `json:"total_data_gb"`
	TotalLogGB         float64             `json:"total_log_gb"`
	PreExistingDataGB  float64             `json:"pre_existing_data_gb"`
	PreExistingLogGB   float64             `json:"pre_existing_log_gb"`
	PreExistingDBCount int                 `json:"pre_existing_db_count"`
	PreExistingDBNames []string            `json:"pre_existing_db_names,omitempty"`
	DataDisks          []DiskInfo          `json:"data_disks"`
	LogDisk            DiskInfo            `json:"log_disk"`
	Status             string              `json:"status"`
	Alerts             []BinAlert          `json:"alerts,omitempty"`
	Placements         []DatabasePlacement `json:"placements"`
}

// NewDataGB returns the data volume added by this simulation
func (s SuggestedInstance) NewDataGB() float64 {
	return math.Max(0, s.TotalDataGB-s.PreExistingDataGB)
}

// NewDiskCount returns how many data disks must be provisioned for this instance
func (s SuggestedInstance) NewDiskCount() int {
	if s.IsExisting && len(s.Databases) == 0 {
		return 0
	}
	count := 0
	for _, d := range s.DataDisks {
		if !d.IsExistingDisk {
			count++
		}
	}
	return count
}

// DistributionSummary aggregates a distribution across all instances
type DistributionSummary struct {
	InstanceCount         int     `json:"instance_count"`
	NewInstanceCount      int     `json:"new_instance_count"`
	ExistingInstanceCount int     `json:"existing_instance_count"`
	DatabaseCount         int     `json:"database_count"`
	TotalDataGB           float64 `json:"total_data_gb"`
	TotalLogGB            float64 `json:"total_log_gb"`
	NewDataDiskCount      int     `json:"new_data_disk_count"`
	OKCount               int     `json:"ok_count"`
	WarningCount          int     `json:"warning_count"`
	CriticalCount         int     `json:"critical_count"`
}

// DistributionResult is the API response for one simulation run.
// ID is derived from the input, so identical inputs share an ID.
type DistributionResult struct {
	ID           string              `json:"id"`
	Instances    []SuggestedInstance `json:"instances"`
	Summary      DistributionSummary `json:"summary"`
	DiskUsableGB float64             `json:"disk_usable_gb"`
	GeneratedAt  time.Time           `json:"generated_at"`
}
