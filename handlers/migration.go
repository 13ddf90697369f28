// ABOUTME: HTTP handlers for stateless distribution runs
// ABOUTME: Simulates a migration plan and exports it as a spreadsheet

package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sqlnova/migration-planner/models"
	"github.com/sqlnova/migration-planner/services"
)

// Simulate runs the distribution engine on an explicit input.
// Identical inputs are answered from the result cache, flagged by X-Cache.
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	result, ok := h.simulate(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// ExportSimulation runs the engine on an explicit input and returns the plan as xlsx.
func (h *Handler) ExportSimulation(w http.ResponseWriter, r *http.Request) {
	result, ok := h.simulate(w, r)
	if !ok {
		return
	}
	h.writeWorkbook(w, result)
}

func (h *Handler) simulate(w http.ResponseWriter, r *http.Request) (models.DistributionResult, bool) {
	var input models.DistributionInput
	if !h.decodeJSON(w, r, &input) {
		return models.DistributionResult{}, false
	}

	input.Config = h.withServerDefaults(input.Config)
	if err := input.Validate(); err != nil {
		h.writeErrorDetails(w, "Invalid simulation input", err, http.StatusBadRequest)
		return models.DistributionResult{}, false
	}

	return h.run(w, input)
}

// run executes a validated input and sets the X-Cache header
func (h *Handler) run(w http.ResponseWriter, input models.DistributionInput) (models.DistributionResult, bool) {
	result, cached, err := h.simulator.Run(input)
	if err != nil {
		slog.Error("Simulation failed", "error", err)
		h.writeError(w, "Simulation failed", http.StatusInternalServerError)
		return models.DistributionResult{}, false
	}

	if cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	return result, true
}

// writeWorkbook renders the result to memory first so a failure can still produce a JSON error
func (h *Handler) writeWorkbook(w http.ResponseWriter, result models.DistributionResult) {
	var buf bytes.Buffer
	if err := services.ExportXLSX(result, &buf); err != nil {
		slog.Error("Export failed", "result", result.ID, "error", err)
		h.writeError(w, "Failed to build spreadsheet", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", services.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ExportFileName(result)))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("Export write interrupted", "result", result.ID, "error", err)
	}
}
