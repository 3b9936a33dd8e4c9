package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/taskflow-dev/taskflow/internal/authz"
	"github.com/taskflow-dev/taskflow/internal/models"
	"github.com/taskflow-dev/taskflow/internal/types"
	"github.com/taskflow-dev/taskflow/internal/utils"
	"github.com/taskflow-dev/taskflow/internal/ws"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	DB  *gorm.DB
	Hub *ws.Hub
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *ProjectHandler) Create(ctx *gin.Context) {
	var req CreateProjectRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Project name is required"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
	}

	// The creator becomes the first membership row, as owner, in the
	// same transaction as the project itself.
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		membership := models.ProjectMembership{
			UserID:    userID,
			ProjectID: project.ID,
			Role:      authz.RoleOwner,
		}

		return tx.Create(&membership).Error
	})

	if err != nil {
		logrus.Errorf("Failed to create project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create project"})
		return
	}

	ctx.JSON(http.StatusCreated, projectResponse(project))
}

func (h *ProjectHandler) List(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	var projects []models.Project

	err = h.DB.
		Joins("JOIN project_memberships ON project_memberships.project_id = projects.id").
		Where("project_memberships.user_id = ?", userID).
		Order("projects.id ASC").
		Find(&projects).Error

	if err != nil {
		logrus.Errorf("Failed to list projects: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve projects"})
		return
	}

	response := make([]types.ProjectResponse, 0, len(projects))

	for _, project := range projects {
		response = append(response, projectResponse(project))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *ProjectHandler) Get(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	// One intention-revealing fetch: the project with its board sorted
	// by (status, order) and everything needed to serialize it.
	var project models.Project

	err = h.DB.
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("status ASC, sort_order ASC")
		}).
		Preload("Tasks.Creator").
		Preload("Tasks.Assignees").
		First(&project, projectID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		} else {
			logrus.Errorf("Failed to fetch project %d: %v", projectID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve project"})
		}
		return
	}

	role, err := authz.Membership(h.DB, userID, project.ID)

	if err != nil || !authz.Can(role, authz.ActionViewProject) {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized"})
		return
	}

	var memberships []models.ProjectMembership

	err = h.DB.Preload("User").
		Where("project_id = ?", project.ID).
		Order("id ASC").
		Find(&memberships).Error

	if err != nil {
		logrus.Errorf("Failed to fetch members for project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve project"})
		return
	}

	response := projectResponse(project)
	response.Tasks = taskResponses(project.Tasks)
	response.Members = memberResponses(memberships)

	ctx.JSON(http.StatusOK, response)
}

func (h *ProjectHandler) Update(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var req UpdateProjectRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	var project models.Project

	if err := h.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		} else {
			logrus.Errorf("Failed to fetch project %d: %v", projectID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve project"})
		}
		return
	}

	role, err := authz.Membership(h.DB, userID, project.ID)

	if err != nil || !authz.Can(role, authz.ActionEditProject) {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized"})
		return
	}

	if req.Name != nil {
		project.Name = *req.Name
	}

	if req.Description != nil {
		project.Description = *req.Description
	}

	if err := h.DB.Save(&project).Error; err != nil {
		logrus.Errorf("Failed to update project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update project"})
		return
	}

	h.Hub.BroadcastRefresh(project.ID, "project-updated")

	ctx.JSON(http.StatusOK, projectResponse(project))
}

func (h *ProjectHandler) Delete(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var project models.Project

	if err := h.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		} else {
			logrus.Errorf("Failed to fetch project %d: %v", projectID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve project"})
		}
		return
	}

	role, err := authz.Membership(h.DB, userID, project.ID)

	if err != nil || !authz.Can(role, authz.ActionDeleteProject) {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized"})
		return
	}

	// Hard cascade: assignments, tasks, memberships, then the project,
	// atomically.
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint

		if err := tx.Model(&models.Task{}).
			Where("project_id = ?", project.ID).
			Pluck("id", &taskIDs).Error; err != nil {
			return err
		}

		if len(taskIDs) > 0 {
			if err := tx.Exec("DELETE FROM task_assignments WHERE task_id IN ?", taskIDs).Error; err != nil {
				return err
			}
		}

		if err := tx.Unscoped().Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("project_id = ?", project.ID).Delete(&models.ProjectMembership{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&project).Error
	})

	if err != nil {
		logrus.Errorf("Failed to delete project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete project"})
		return
	}

	h.Hub.BroadcastRefresh(project.ID, "project-deleted")

	ctx.Status(http.StatusNoContent)
}
