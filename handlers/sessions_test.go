// ABOUTME: Tests for planning session endpoints
// ABOUTME: Walks a session through create, override, config change, and export

package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/sqlnova/migration-planner/models"
)

func createSession(t *testing.T, h *Handler) models.SessionResponse {
	t.Helper()
	cfg := simulateBody().Config
	cfg.DestinationStrategy = models.StrategyBoth

	rec := serve(h, http.MethodPost, "/api/v1/migration/sessions", models.CreateSessionRequest{
		Environment: "PRD",
		Databases:   simulateBody().Databases,
		Config:      &cfg,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decode[models.SessionResponse](t, rec)
}

func TestCreateSession_ResolvesInventory(t *testing.T) {
	h := newTestHandler(t)
	resp := createSession(t, h)

	if resp.Session.ID == "" {
		t.Fatal("Expected session ID")
	}
	if len(resp.Session.ExistingInstances) != 1 {
		t.Fatalf("Expected destinations from inventory, got %d", len(resp.Session.ExistingInstances))
	}
	if resp.Session.Naming.NextAvailableNumber != 4 {
		t.Errorf("Expected next number 4, got %d", resp.Session.Naming.NextAvailableNumber)
	}

	// Both databases fit on the existing instance under the expandable policy
	if len(resp.Result.Instances) != 1 || resp.Result.Instances[0].Name != "SQLNOVA-PRD-03" {
		t.Fatalf("Expected everything on SQLNOVA-PRD-03, got %+v", resp.Result.Instances)
	}
	if !resp.Result.Instances[0].IsExisting {
		t.Error("Expected existing instance")
	}
}

func TestSessionFlow_OverrideThenConfigChange(t *testing.T) {
	h := newTestHandler(t)
	created := createSession(t, h)
	base := "/api/v1/migration/sessions/" + created.Session.ID

	rec := serve(h, http.MethodPut, base+"/overrides", models.SetOverrideRequest{
		DatabaseKey: "SQLSRC-02||billing",
		Target:      models.AssignNew,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	withOverride := decode[models.SessionResponse](t, rec)

	if len(withOverride.Result.Instances) != 2 {
		t.Fatalf("Expected 2 instances after __new__ override, got %d", len(withOverride.Result.Instances))
	}
	if withOverride.Result.Instances[1].Name != "SQLNOVA-PRD-04" {
		t.Errorf("Expected new instance SQLNOVA-PRD-04, got %s", withOverride.Result.Instances[1].Name)
	}

	cfg := created.Session.Config
	cfg.MaxDataDisksPerNewInstance = 2
	rec = serve(h, http.MethodPut, base+"/config", cfg)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode[models.SessionResponse](t, rec)

	if !updated.OverridesInvalidated {
		t.Error("Expected overrides to be invalidated by the disk limit change")
	}
	if len(updated.Session.Overrides) != 0 {
		t.Errorf("Expected no overrides, got %v", updated.Session.Overrides)
	}
	if len(updated.Result.Instances) != 1 {
		t.Errorf("Expected 1 instance after invalidation, got %d", len(updated.Result.Instances))
	}
}

func TestSessionOverride_UnknownDatabase(t *testing.T) {
	h := newTestHandler(t)
	created := createSession(t, h)

	rec := serve(h, http.MethodPut, "/api/v1/migration/sessions/"+created.Session.ID+"/overrides", models.SetOverrideRequest{
		DatabaseKey: "OTHER||db",
		Target:      models.AssignNew,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestSessionSelection_ClearsOverridesOnCountChange(t *testing.T) {
	h := newTestHandler(t)
	created := createSession(t, h)
	base := "/api/v1/migration/sessions/" + created.Session.ID

	serve(h, http.MethodPut, base+"/overrides", models.SetOverrideRequest{
		DatabaseKey: "SQLSRC-01||sales",
		Target:      "SQLNOVA-PRD-09",
	})

	rec := serve(h, http.MethodPut, base+"/selection", models.UpdateSelectionRequest{
		Databases: simulateBody().Databases[:1],
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[models.SessionResponse](t, rec)
	if !resp.OverridesInvalidated {
		t.Error("Expected overrides invalidated by selection change")
	}
	if resp.Result.Summary.DatabaseCount != 1 {
		t.Errorf("Expected 1 database, got %d", resp.Result.Summary.DatabaseCount)
	}
}

func TestClearSessionOverrides(t *testing.T) {
	h := newTestHandler(t)
	created := createSession(t, h)
	base := "/api/v1/migration/sessions/" + created.Session.ID

	serve(h, http.MethodPut, base+"/overrides", models.SetOverrideRequest{
		DatabaseKey: "SQLSRC-01||sales",
		Target:      models.AssignNew,
	})

	rec := serve(h, http.MethodDelete, base+"/overrides", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	resp := decode[models.SessionResponse](t, rec)
	if len(resp.Session.Overrides) != 0 {
		t.Errorf("Expected overrides cleared, got %v", resp.Session.Overrides)
	}
}

func TestGetSession_Errors(t *testing.T) {
	h := newTestHandler(t)

	rec := serve(h, http.MethodGet, "/api/v1/migration/sessions/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for malformed ID, got %d", rec.Code)
	}

	rec = serve(h, http.MethodGet, "/api/v1/migration/sessions/6f1c2a34-5b6d-4e7f-8a9b-0c1d2e3f4a5b", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown session, got %d", rec.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	h := newTestHandler(t)
	created := createSession(t, h)
	base := "/api/v1/migration/sessions/" + created.Session.ID

	rec := serve(h, http.MethodDelete, base, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rec.Code)
	}

	rec = serve(h, http.MethodGet, base, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", rec.Code)
	}
}

func TestExportSession(t *testing.T) {
	h := newTestHandler(t)
	created := createSession(t, h)

	rec := serve(h, http.MethodGet, "/api/v1/migration/sessions/"+created.Session.ID+"/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, ".xlsx") {
		t.Errorf("Expected xlsx attachment, got %q", cd)
	}
}
