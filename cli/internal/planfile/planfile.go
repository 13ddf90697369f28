// ABOUTME: Plan file loading for the CLI simulate and check commands
// ABOUTME: Reads a distribution input from YAML or JSON and fills config defaults

package planfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sqlnova/migration-planner/models"
	"gopkg.in/yaml.v3"
)

// Load reads a plan file. Files ending in .json are decoded as JSON, anything
// else as YAML. Unknown fields are rejected so typos do not silently change a plan.
func Load(path string) (models.DistributionInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.DistributionInput{}, fmt.Errorf("reading plan %s: %w", path, err)
	}

	input, err := Parse(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return input, fmt.Errorf("plan %s: %w", path, err)
	}
	return input, nil
}

// Parse decodes and validates plan bytes
func Parse(data []byte, isJSON bool) (models.DistributionInput, error) {
	var input models.DistributionInput

	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&input); err != nil {
			return input, fmt.Errorf("parsing JSON: %w", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&input); err != nil {
			return input, fmt.Errorf("parsing YAML: %w", err)
		}
	}

	ApplyDefaults(&input)

	if err := input.Validate(); err != nil {
		return input, fmt.Errorf("invalid plan: %w", err)
	}
	return input, nil
}

// ApplyDefaults fills the settings a hand-written plan usually leaves out
func ApplyDefaults(input *models.DistributionInput) {
	if input.Config.MaxDataDisksPerNewInstance == 0 {
		input.Config.MaxDataDisksPerNewInstance = models.DefaultCapacityConfig().MaxDataDisksPerNewInstance
	}
	for i := range input.Databases {
		db := &input.Databases[i]
		if db.TotalSizeMB == 0 {
			db.TotalSizeMB = db.DataSizeMB + db.LogSizeMB
		}
	}
	if input.Naming.NextAvailableNumber == 0 {
		input.Naming.NextAvailableNumber = 1
	}
}
