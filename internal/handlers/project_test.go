package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/taskflow-dev/taskflow/internal/models"
)

func TestCreateProjectMakesCreatorOwner(t *testing.T) {
	r, _ := newTestServer(t)

	token, userID := registerAndLogin(t, r, "owner@example.com")
	projectID := createProject(t, r, token, "Launch")

	rec := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d", projectID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET project returned %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Members []struct {
			ID   uint   `json:"id"`
			Role string `json:"role"`
		} `json:"members"`
	}
	decodeBody(t, rec, &body)

	if len(body.Members) != 1 {
		t.Fatalf("Expected 1 member, got %d", len(body.Members))
	}
	if body.Members[0].ID != userID || body.Members[0].Role != "owner" {
		t.Errorf("Expected creator %d as owner, got %+v", userID, body.Members[0])
	}
}

func TestProjectNotFoundBeforeForbidden(t *testing.T) {
	r, _ := newTestServer(t)

	ownerToken, _ := registerAndLogin(t, r, "owner@example.com")
	strangerToken, _ := registerAndLogin(t, r, "stranger@example.com")
	projectID := createProject(t, r, ownerToken, "Private")

	// A non-member gets 403 on a project that exists.
	rec := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d", projectID), strangerToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Non-member GET returned %d, want 403", rec.Code)
	}

	// A missing project is 404, even for a non-member.
	rec = doJSON(t, r, http.MethodGet, "/api/projects/99999", strangerToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Missing project GET returned %d, want 404", rec.Code)
	}

	rec = doJSON(t, r, http.MethodDelete, "/api/projects/99999", strangerToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Missing project DELETE returned %d, want 404", rec.Code)
	}
}

func TestListProjectsOnlyMemberships(t *testing.T) {
	r, _ := newTestServer(t)

	aliceToken, _ := registerAndLogin(t, r, "alice@example.com")
	bobToken, _ := registerAndLogin(t, r, "bob@example.com")

	createProject(t, r, aliceToken, "Alpha")
	createProject(t, r, aliceToken, "Beta")
	shared := createProject(t, r, aliceToken, "Shared")
	addMember(t, r, aliceToken, shared, "bob@example.com")

	rec := doJSON(t, r, http.MethodGet, "/api/projects", bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("List projects returned %d: %s", rec.Code, rec.Body.String())
	}

	var projects []struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
	decodeBody(t, rec, &projects)

	if len(projects) != 1 || projects[0].ID != shared {
		t.Errorf("Expected only the shared project, got %+v", projects)
	}
}

func TestUpdateProjectRequiresOwner(t *testing.T) {
	r, _ := newTestServer(t)

	ownerToken, _ := registerAndLogin(t, r, "owner@example.com")
	memberToken, _ := registerAndLogin(t, r, "member@example.com")
	projectID := createProject(t, r, ownerToken, "Rebrand")
	addMember(t, r, ownerToken, projectID, "member@example.com")

	path := fmt.Sprintf("/api/projects/%d", projectID)
	payload := map[string]string{"name": "Renamed"}

	rec := doJSON(t, r, http.MethodPut, path, memberToken, payload)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Member PUT project returned %d, want 403", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPut, path, ownerToken, payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("Owner PUT project returned %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Name string `json:"name"`
	}
	decodeBody(t, rec, &body)
	if body.Name != "Renamed" {
		t.Errorf("Expected renamed project, got %q", body.Name)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	r, conn := newTestServer(t)

	ownerToken, _ := registerAndLogin(t, r, "owner@example.com")
	_, helperID := registerAndLogin(t, r, "helper@example.com")
	projectID := createProject(t, r, ownerToken, "Doomed")
	addMember(t, r, ownerToken, projectID, "helper@example.com")

	taskID, _ := createTask(t, r, ownerToken, projectID, "Task one", "")
	createTask(t, r, ownerToken, projectID, "Task two", "")

	rec := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/tasks/%d/assign", taskID), ownerToken, map[string]uint{
		"user_id": helperID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Assign returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/projects/%d", projectID), ownerToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Delete project returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d", projectID), ownerToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted project returned %d, want 404", rec.Code)
	}

	var taskCount, membershipCount, assignmentCount int64

	conn.Model(&models.Task{}).Where("project_id = ?", projectID).Count(&taskCount)
	conn.Model(&models.ProjectMembership{}).Where("project_id = ?", projectID).Count(&membershipCount)
	conn.Table("task_assignments").Count(&assignmentCount)

	if taskCount != 0 {
		t.Errorf("Expected 0 tasks after cascade, got %d", taskCount)
	}
	if membershipCount != 0 {
		t.Errorf("Expected 0 memberships after cascade, got %d", membershipCount)
	}
	if assignmentCount != 0 {
		t.Errorf("Expected 0 assignments after cascade, got %d", assignmentCount)
	}
}
