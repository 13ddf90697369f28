// ABOUTME: Tests for the check command
// ABOUTME: Verifies per-instance capacity checks and exit codes

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sqlnova/migration-planner/models"
)

const warningPlan = `databases:
  - instance_name: SQLSRC-01
    name: ledger
    data_size_mb: 409600
    log_size_mb: 1024
config:
  max_data_disks_per_new_instance: 1
`

func TestCheckResult_AllPassed(t *testing.T) {
	results := []checkResult{
		{name: "SQLNOVA-PRD-01", status: "ok", value: 72.0, threshold: 100, unit: "%", passed: true},
		{name: "SQLNOVA-PRD-02", status: "ok", value: 40.0, threshold: 100, unit: "%", passed: true},
	}

	passed, failed := countResults(results)
	if passed != 2 {
		t.Errorf("expected 2 passed, got %d", passed)
	}
	if failed != 0 {
		t.Errorf("expected 0 failed, got %d", failed)
	}
}

func TestPerformChecks(t *testing.T) {
	result := &models.DistributionResult{
		DiskUsableGB: 450,
		Instances: []models.SuggestedInstance{
			{
				Name:      "SQLNOVA-PRD-01",
				Status:    models.StatusOK,
				DataDisks: []models.DiskInfo{{Letter: "F:", UsedGB: 225}},
				LogDisk:   models.DiskInfo{Letter: "H:", UsedGB: 10},
			},
			{
				Name:      "SQLNOVA-PRD-02",
				Status:    models.StatusWarning,
				DataDisks: []models.DiskInfo{{Letter: "F:", UsedGB: 400}},
				LogDisk:   models.DiskInfo{Letter: "H:", UsedGB: 10},
			},
			{
				Name:      "SQLNOVA-PRD-03",
				Status:    models.StatusCritical,
				DataDisks: []models.DiskInfo{{Letter: "F:", UsedGB: 500}},
				LogDisk:   models.DiskInfo{Letter: "H:", UsedGB: 10},
			},
		},
	}

	tests := []struct {
		name     string
		maxUsage float64
		strict   bool
		want     []bool
	}{
		{"defaults", 100, false, []bool{true, true, false}},
		{"strict", 100, true, []bool{true, false, false}},
		{"low usage threshold", 60, false, []bool{true, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := performChecks(result, tt.maxUsage, tt.strict)
			if len(results) != len(tt.want) {
				t.Fatalf("expected %d results, got %d", len(tt.want), len(results))
			}
			for i, want := range tt.want {
				if results[i].passed != want {
					t.Errorf("%s: expected passed=%v, got %v", results[i].name, want, results[i].passed)
				}
			}
		})
	}

	if got := performChecks(result, 100, false)[0].value; got != 50 {
		t.Errorf("expected busiest disk at 50%%, got %v", got)
	}
}

func TestFormatCheckHuman(t *testing.T) {
	results := []checkResult{
		{name: "SQLNOVA-PRD-01", status: "ok", value: 72.0, threshold: 100, unit: "%", passed: true},
		{name: "SQLNOVA-PRD-02", status: "critical", value: 112.0, threshold: 100, unit: "%", passed: false},
	}

	output := formatCheckHuman(results)

	if !bytes.Contains([]byte(output), []byte("✓")) {
		t.Error("expected checkmark for passed instance")
	}
	if !bytes.Contains([]byte(output), []byte("✗")) {
		t.Error("expected X for failed instance")
	}
	if !bytes.Contains([]byte(output), []byte("FAILED")) {
		t.Error("expected FAILED summary")
	}
}

func TestFormatCheckJSON(t *testing.T) {
	results := []checkResult{
		{name: "SQLNOVA-PRD-01", status: "ok", value: 72.0, threshold: 100, unit: "%", passed: true},
	}

	output := formatCheckJSON(results)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed["status"] != "passed" {
		t.Errorf("expected status passed, got %v", parsed["status"])
	}
}

func TestCheckCommand_AllPassed(t *testing.T) {
	resetFlags(t)
	withBackend(t)

	var buf bytes.Buffer
	exitCode := runCheck(context.Background(), &buf, planOptions{path: writePlan(t, fitsPlan)})

	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("PASSED")) {
		t.Error("expected PASSED in output")
	}
}

func TestCheckCommand_CriticalInstance(t *testing.T) {
	resetFlags(t)

	var buf bytes.Buffer
	exitCode := runCheck(context.Background(), &buf, planOptions{path: writePlan(t, oversizedPlan), offline: true})

	if exitCode != 1 {
		t.Errorf("expected exit code 1 for critical instance, got %d", exitCode)
	}
	if !bytes.Contains(buf.Bytes(), []byte("FAILED")) {
		t.Error("expected FAILED in output")
	}
}

func TestCheckCommand_FailOnWarning(t *testing.T) {
	resetFlags(t)
	path := writePlan(t, warningPlan)

	var buf bytes.Buffer
	if code := runCheck(context.Background(), &buf, planOptions{path: path, offline: true}); code != 0 {
		t.Errorf("expected warning to pass by default, got %d: %s", code, buf.String())
	}

	failOnWarning = true
	buf.Reset()
	if code := runCheck(context.Background(), &buf, planOptions{path: path, offline: true}); code != 1 {
		t.Errorf("expected warning to fail with --fail-on-warning, got %d", code)
	}
}

func TestCheckCommand_ConnectionError(t *testing.T) {
	resetFlags(t)
	apiURL = "http://localhost:99999"
	defer func() { apiURL = "" }()

	var buf bytes.Buffer
	exitCode := runCheck(context.Background(), &buf, planOptions{path: writePlan(t, fitsPlan)})

	if exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
}

func TestValidateMaxUsage(t *testing.T) {
	tests := []struct {
		maxUsage int
		valid    bool
	}{
		{100, true},
		{0, true},
		{85, true},
		{-1, false},
		{101, false},
	}

	for _, tt := range tests {
		err := validateMaxUsage(tt.maxUsage)
		if tt.valid && err != nil {
			t.Errorf("validateMaxUsage(%d) expected valid, got error: %v", tt.maxUsage, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("validateMaxUsage(%d) expected error, got nil", tt.maxUsage)
		}
	}
}
