package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
)

type taskBody struct {
	ID         uint    `json:"id"`
	Title      string  `json:"title"`
	Status     string  `json:"status"`
	Order      int     `json:"order"`
	ExpiryDate *string `json:"expiry_date"`
	Creator    *struct {
		Email string `json:"email"`
	} `json:"creator"`
	Assignees []struct {
		ID uint `json:"id"`
	} `json:"assignees"`
}

func TestCreateTasksAppendToColumnEnd(t *testing.T) {
	r, _ := newTestServer(t)

	token, _ := registerAndLogin(t, r, "owner@example.com")
	projectID := createProject(t, r, token, "Board")

	for i, want := range []int{1, 2, 3} {
		_, order := createTask(t, r, token, projectID, fmt.Sprintf("Task %d", i+1), "TODO")
		if order != want {
			t.Errorf("Task %d got order %d, want %d", i+1, order, want)
		}
	}

	// A different column starts its own sequence.
	_, order := createTask(t, r, token, projectID, "Done already", "DONE")
	if order != 1 {
		t.Errorf("First DONE task got order %d, want 1", order)
	}
}

func TestCreateTaskDefaultsAndCreator(t *testing.T) {
	r, _ := newTestServer(t)

	token, _ := registerAndLogin(t, r, "creator@example.com")
	projectID := createProject(t, r, token, "Board")

	rec := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", projectID), token, map[string]string{
		"title": "Untriaged",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Create task returned %d: %s", rec.Code, rec.Body.String())
	}

	var body taskBody
	decodeBody(t, rec, &body)

	if body.Status != "TODO" {
		t.Errorf("Expected default status TODO, got %q", body.Status)
	}
	if body.Creator == nil || body.Creator.Email != "creator@example.com" {
		t.Errorf("Expected creator to be recorded, got %+v", body.Creator)
	}
}

func TestCreateTaskRequiresTitle(t *testing.T) {
	r, _ := newTestServer(t)

	token, _ := registerAndLogin(t, r, "owner@example.com")
	projectID := createProject(t, r, token, "Board")

	rec := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", projectID), token, map[string]string{
		"description": "no title",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Create task without title returned %d, want 400", rec.Code)
	}
}

func TestMoveTaskStatusOnlyKeepsOrder(t *testing.T) {
	r, _ := newTestServer(t)

	token, _ := registerAndLogin(t, r, "owner@example.com")
	projectID := createProject(t, r, token, "Board")

	createTask(t, r, token, projectID, "First", "TODO")
	taskID, order := createTask(t, r, token, projectID, "Second", "TODO")

	rec := doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/tasks/%d/move", taskID), token, map[string]string{
		"status": "IN_PROGRESS",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Move task returned %d: %s", rec.Code, rec.Body.String())
	}

	var moved taskBody
	decodeBody(t, rec, &moved)

	if moved.Status != "IN_PROGRESS" {
		t.Errorf("Expected status IN_PROGRESS, got %q", moved.Status)
	}
	if moved.Order != order {
		t.Errorf("Status-only move changed order from %d to %d", order, moved.Order)
	}
}

func TestProjectReadSortsTasksByStatusThenOrder(t *testing.T) {
	r, _ := newTestServer(t)

	token, _ := registerAndLogin(t, r, "owner@example.com")
	projectID := createProject(t, r, token, "Board")

	createTask(t, r, token, projectID, "t1", "TODO")
	createTask(t, r, token, projectID, "d1", "DONE")
	createTask(t, r, token, projectID, "t2", "TODO")
	createTask(t, r, token, projectID, "a1", "IN_PROGRESS")

	rec := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d", projectID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET project returned %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Tasks []taskBody `json:"tasks"`
	}
	decodeBody(t, rec, &body)

	// Lexicographic on status, then order ascending.
	want := []string{"d1", "a1", "t1", "t2"}

	if len(body.Tasks) != len(want) {
		t.Fatalf("Expected %d tasks, got %d", len(want), len(body.Tasks))
	}
	for i, title := range want {
		if body.Tasks[i].Title != title {
			t.Errorf("Task %d is %q, want %q", i, body.Tasks[i].Title, title)
		}
	}
}

func TestAssignIsIdempotent(t *testing.T) {
	r, _ := newTestServer(t)

	ownerToken, _ := registerAndLogin(t, r, "owner@example.com")
	_, helperID := registerAndLogin(t, r, "helper@example.com")
	projectID := createProject(t, r, ownerToken, "Board")
	addMember(t, r, ownerToken, projectID, "helper@example.com")

	taskID, _ := createTask(t, r, ownerToken, projectID, "Shared work", "")

	path := fmt.Sprintf("/api/tasks/%d/assign", taskID)
	payload := map[string]uint{"user_id": helperID}

	for i := 0; i < 2; i++ {
		rec := doJSON(t, r, http.MethodPost, path, ownerToken, payload)
		if rec.Code != http.StatusOK {
			t.Fatalf("Assign attempt %d returned %d: %s", i+1, rec.Code, rec.Body.String())
		}

		var body taskBody
		decodeBody(t, rec, &body)

		if len(body.Assignees) != 1 || body.Assignees[0].ID != helperID {
			t.Errorf("Attempt %d: expected exactly one assignee %d, got %+v", i+1, helperID, body.Assignees)
		}
	}

	// Unassigning twice is also a no-op the second time.
	for i := 0; i < 2; i++ {
		rec := doJSON(t, r, http.MethodDelete, path, ownerToken, payload)
		if rec.Code != http.StatusOK {
			t.Fatalf("Unassign attempt %d returned %d: %s", i+1, rec.Code, rec.Body.String())
		}

		var body taskBody
		decodeBody(t, rec, &body)

		if len(body.Assignees) != 0 {
			t.Errorf("Attempt %d: expected no assignees, got %+v", i+1, body.Assignees)
		}
	}
}

func TestAssignRequiresProjectMembership(t *testing.T) {
	r, _ := newTestServer(t)

	ownerToken, _ := registerAndLogin(t, r, "owner@example.com")
	_, outsiderID := registerAndLogin(t, r, "outsider@example.com")
	projectID := createProject(t, r, ownerToken, "Board")

	taskID, _ := createTask(t, r, ownerToken, projectID, "Internal", "")

	rec := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/tasks/%d/assign", taskID), ownerToken, map[string]uint{
		"user_id": outsiderID,
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("Assigning a non-member returned %d, want 403", rec.Code)
	}
}

func TestTaskExpiryDateHandling(t *testing.T) {
	r, _ := newTestServer(t)

	token, _ := registerAndLogin(t, r, "owner@example.com")
	projectID := createProject(t, r, token, "Board")

	rec := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", projectID), token, map[string]string{
		"title":       "Dated",
		"expiry_date": "2026-03-15",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Create task returned %d: %s", rec.Code, rec.Body.String())
	}

	var body taskBody
	decodeBody(t, rec, &body)

	if body.ExpiryDate == nil || *body.ExpiryDate != "2026-03-15T00:00:00Z" {
		t.Errorf("Bare date expiry = %v, want 2026-03-15T00:00:00Z", body.ExpiryDate)
	}

	// An unparsable expiry on update clears the field instead of
	// erroring.
	rec = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/tasks/%d", body.ID), token, map[string]string{
		"expiry_date": "not-a-date",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Update task returned %d: %s", rec.Code, rec.Body.String())
	}

	var updated taskBody
	decodeBody(t, rec, &updated)

	if updated.ExpiryDate != nil {
		t.Errorf("Unparsable expiry should clear the field, got %v", *updated.ExpiryDate)
	}
	if updated.Title != "Dated" {
		t.Errorf("Partial update touched title: %q", updated.Title)
	}
}

func TestUpdateTaskPartialFields(t *testing.T) {
	r, _ := newTestServer(t)

	token, _ := registerAndLogin(t, r, "owner@example.com")
	projectID := createProject(t, r, token, "Board")
	taskID, _ := createTask(t, r, token, projectID, "Original", "")

	rec := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/tasks/%d", taskID), token, map[string]string{
		"description": "Now with details",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Update task returned %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	decodeBody(t, rec, &body)

	if body.Title != "Original" {
		t.Errorf("Title changed by partial update: %q", body.Title)
	}
	if body.Description != "Now with details" {
		t.Errorf("Description not updated: %q", body.Description)
	}
}

func TestDeleteTask(t *testing.T) {
	r, _ := newTestServer(t)

	token, _ := registerAndLogin(t, r, "owner@example.com")
	projectID := createProject(t, r, token, "Board")
	taskID, _ := createTask(t, r, token, projectID, "Short-lived", "")

	rec := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", taskID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Delete task returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/tasks/%d", taskID), token, map[string]string{
		"title": "Back from the dead",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Update of deleted task returned %d, want 404", rec.Code)
	}
}

func TestTaskEndpointsForbiddenForNonMembers(t *testing.T) {
	r, _ := newTestServer(t)

	ownerToken, _ := registerAndLogin(t, r, "owner@example.com")
	strangerToken, _ := registerAndLogin(t, r, "stranger@example.com")
	projectID := createProject(t, r, ownerToken, "Board")
	taskID, _ := createTask(t, r, ownerToken, projectID, "Private work", "")

	rec := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", projectID), strangerToken, map[string]string{
		"title": "Intrusion",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("Non-member create task returned %d, want 403", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/tasks/%d/move", taskID), strangerToken, map[string]string{
		"status": "DONE",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("Non-member move task returned %d, want 403", rec.Code)
	}

	rec = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", taskID), strangerToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Non-member delete task returned %d, want 403", rec.Code)
	}
}
