package handlers

import (
	"github.com/taskflow-dev/taskflow/internal/models"
	"github.com/taskflow-dev/taskflow/internal/types"
	"github.com/taskflow-dev/taskflow/internal/utils"
)

func taskResponse(task models.Task) types.TaskResponse {
	resp := types.TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Order:       task.SortOrder,
		ProjectID:   task.ProjectID,
		ExpiryDate:  utils.FormatTimePtr(task.ExpiryDate),
		Assignees:   []types.UserResponse{},
	}

	if task.Creator != nil {
		resp.Creator = &types.UserResponse{
			ID:    task.Creator.ID,
			Email: task.Creator.Email,
		}
	}

	for _, assignee := range task.Assignees {
		resp.Assignees = append(resp.Assignees, types.UserResponse{
			ID:    assignee.ID,
			Email: assignee.Email,
		})
	}

	return resp
}

func taskResponses(tasks []models.Task) []types.TaskResponse {
	responses := make([]types.TaskResponse, 0, len(tasks))

	for _, task := range tasks {
		responses = append(responses, taskResponse(task))
	}

	return responses
}

func projectResponse(project models.Project) types.ProjectResponse {
	return types.ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
	}
}

// memberResponses expects memberships with their User preloaded,
// ordered by insertion.
func memberResponses(memberships []models.ProjectMembership) []types.MemberResponse {
	responses := make([]types.MemberResponse, 0, len(memberships))

	for _, membership := range memberships {
		responses = append(responses, types.MemberResponse{
			ID:    membership.User.ID,
			Email: membership.User.Email,
			Role:  membership.Role,
		})
	}

	return responses
}
