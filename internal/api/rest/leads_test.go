package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/leadflow/leadflow-backend/internal/auth"
	"github.com/leadflow/leadflow-backend/internal/models"
)

func leadsRouter(e *testEnv) *mux.Router {
	r := mux.NewRouter()
	e.leads.RegisterRoutes(r)
	return r
}

func seedLead(t *testing.T, e *testEnv, ownerID *string, name string) *models.Lead {
	t.Helper()
	l := &models.Lead{AgentID: ownerID, Name: name, Source: "facebook"}
	if err := e.store.CreateLead(context.Background(), l); err != nil {
		t.Fatalf("Failed to create lead: %v", err)
	}
	return l
}

func TestCreateLead_DefaultsToCallerOwnership(t *testing.T) {
	e := newTestEnv(t)
	agent := e.seedAgent(t, "AG-1001", testPassword, auth.RoleAgent, true)
	router := leadsRouter(e)

	body, _ := json.Marshal(LeadInput{Name: "Jane Prospect", Source: "facebook"})
	req := withClaims(httptest.NewRequest("POST", "/leads", bytes.NewReader(body)), agent)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var lead models.Lead
	_ = json.Unmarshal(w.Body.Bytes(), &lead)
	if lead.AgentID == nil || *lead.AgentID != agent.ID {
		t.Error("Lead should be owned by the creating agent")
	}
	if lead.Status != models.LeadStatusNew {
		t.Errorf("status = %q, want new", lead.Status)
	}
}

func TestCreateLead_AgentCannotAssignOthers(t *testing.T) {
	e := newTestEnv(t)
	agent := e.seedAgent(t, "AG-1001", testPassword, auth.RoleAgent, true)
	other := e.seedAgent(t, "AG-2002", testPassword, auth.RoleAgent, true)
	router := leadsRouter(e)

	body, _ := json.Marshal(LeadInput{Name: "Jane Prospect", AgentID: &other.ID})
	req := withClaims(httptest.NewRequest("POST", "/leads", bytes.NewReader(body)), agent)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 assigning to another agent, got %d", w.Code)
	}
}

func TestListLeads_ScopedByRole(t *testing.T) {
	e := newTestEnv(t)
	agent := e.seedAgent(t, "AG-1001", testPassword, auth.RoleAgent, true)
	other := e.seedAgent(t, "AG-2002", testPassword, auth.RoleAgent, true)
	super := e.seedAgent(t, "SUP-1", testPassword, auth.RoleSuperAgent, true)
	router := leadsRouter(e)

	seedLead(t, e, &agent.ID, "Mine 1")
	seedLead(t, e, &agent.ID, "Mine 2")
	seedLead(t, e, &other.ID, "Theirs")

	var resp struct {
		Leads []*models.Lead `json:"leads"`
	}

	// Agent sees only its own leads.
	req := withClaims(httptest.NewRequest("GET", "/leads", nil), agent)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Leads) != 2 {
		t.Errorf("Agent sees %d leads, want 2", len(resp.Leads))
	}

	// Super agent sees everything.
	req = withClaims(httptest.NewRequest("GET", "/leads", nil), super)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Leads) != 3 {
		t.Errorf("Super agent sees %d leads, want 3", len(resp.Leads))
	}

	// And can filter by owner.
	req = withClaims(httptest.NewRequest("GET", "/leads?agent_id="+other.ID, nil), super)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Leads) != 1 {
		t.Errorf("Filtered list has %d leads, want 1", len(resp.Leads))
	}
}

func TestGetLead_ForeignLeadHidden(t *testing.T) {
	e := newTestEnv(t)
	agent := e.seedAgent(t, "AG-1001", testPassword, auth.RoleAgent, true)
	other := e.seedAgent(t, "AG-2002", testPassword, auth.RoleAgent, true)
	router := leadsRouter(e)

	lead := seedLead(t, e, &other.ID, "Theirs")

	req := withClaims(httptest.NewRequest("GET", "/leads/"+lead.ID, nil), agent)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	// Existence of another agent's lead is not revealed.
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for foreign lead, got %d", w.Code)
	}
}

func TestUpdateLead_OwnerCanUpdateStatus(t *testing.T) {
	e := newTestEnv(t)
	agent := e.seedAgent(t, "AG-1001", testPassword, auth.RoleAgent, true)
	router := leadsRouter(e)

	lead := seedLead(t, e, &agent.ID, "Mine")

	body, _ := json.Marshal(LeadInput{Status: models.LeadStatusContacted})
	req := withClaims(httptest.NewRequest("PATCH", "/leads/"+lead.ID, bytes.NewReader(body)), agent)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	stored, _ := e.store.GetLead(context.Background(), lead.ID)
	if stored.Status != models.LeadStatusContacted {
		t.Errorf("status = %q, want contacted", stored.Status)
	}
}

func TestUpdateLead_RejectsUnknownStatus(t *testing.T) {
	e := newTestEnv(t)
	agent := e.seedAgent(t, "AG-1001", testPassword, auth.RoleAgent, true)
	router := leadsRouter(e)

	lead := seedLead(t, e, &agent.ID, "Mine")
	body, _ := json.Marshal(LeadInput{Status: "paused"})
	req := withClaims(httptest.NewRequest("PATCH", "/leads/"+lead.ID, bytes.NewReader(body)), agent)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown status, got %d", w.Code)
	}
}

func TestUpdateLead_OnlyManagerReassigns(t *testing.T) {
	e := newTestEnv(t)
	agent := e.seedAgent(t, "AG-1001", testPassword, auth.RoleAgent, true)
	other := e.seedAgent(t, "AG-2002", testPassword, auth.RoleAgent, true)
	admin := e.seedAgent(t, "ADM-1", testPassword, auth.RoleAdmin, true)
	router := leadsRouter(e)

	lead := seedLead(t, e, &agent.ID, "Mine")

	body, _ := json.Marshal(LeadInput{AgentID: &other.ID})
	req := withClaims(httptest.NewRequest("PATCH", "/leads/"+lead.ID, bytes.NewReader(body)), agent)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for owner reassignment, got %d", w.Code)
	}

	body, _ = json.Marshal(LeadInput{AgentID: &other.ID})
	req = withClaims(httptest.NewRequest("PATCH", "/leads/"+lead.ID, bytes.NewReader(body)), admin)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for admin reassignment, got %d: %s", w.Code, w.Body.String())
	}
	stored, _ := e.store.GetLead(context.Background(), lead.ID)
	if stored.AgentID == nil || *stored.AgentID != other.ID {
		t.Error("Lead should be reassigned to the other agent")
	}
}

func TestDeleteLead_ManagerOnly(t *testing.T) {
	e := newTestEnv(t)
	agent := e.seedAgent(t, "AG-1001", testPassword, auth.RoleAgent, true)
	admin := e.seedAgent(t, "ADM-1", testPassword, auth.RoleAdmin, true)
	router := leadsRouter(e)

	lead := seedLead(t, e, &agent.ID, "Mine")

	req := withClaims(httptest.NewRequest("DELETE", "/leads/"+lead.ID, nil), agent)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for agent delete, got %d", w.Code)
	}

	req = withClaims(httptest.NewRequest("DELETE", "/leads/"+lead.ID, nil), admin)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for admin delete, got %d", w.Code)
	}
	stored, _ := e.store.GetLead(context.Background(), lead.ID)
	if stored != nil {
		t.Error("Lead should be deleted")
	}

	events, _ := e.store.ListAuditEvents(context.Background(), models.ActionLeadDeleted, 10)
	if len(events) != 1 {
		t.Errorf("Expected 1 lead_deleted audit event, got %d", len(events))
	}
}
