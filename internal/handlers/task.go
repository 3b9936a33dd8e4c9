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

type TaskHandler struct {
	DB  *gorm.DB
	Hub *ws.Hub
}

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Status      string `json:"status"`
	ExpiryDate  string `json:"expiry_date"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ExpiryDate  *string `json:"expiry_date"`
}

type MoveTaskRequest struct {
	Status *string `json:"status"`
	Order  *int    `json:"order"`
}

type AssignTaskRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// requireTaskMember loads the task and checks the acting user is a
// member of its project. Task existence is checked before
// authorization.
func (h *TaskHandler) requireTaskMember(ctx *gin.Context, action authz.Action) (*models.Task, uint, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return nil, 0, false
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return nil, 0, false
	}

	var task models.Task

	if err := h.DB.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
		} else {
			logrus.Errorf("Failed to fetch task %d: %v", taskID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve task"})
		}
		return nil, 0, false
	}

	role, err := authz.Membership(h.DB, userID, task.ProjectID)

	if err != nil || !authz.Can(role, action) {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized"})
		return nil, 0, false
	}

	return &task, userID, true
}

func (h *TaskHandler) respondWithTask(ctx *gin.Context, status int, taskID uint) {
	var task models.Task

	err := h.DB.Preload("Creator").Preload("Assignees").First(&task, taskID).Error

	if err != nil {
		logrus.Errorf("Failed to reload task %d: %v", taskID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve task"})
		return
	}

	ctx.JSON(status, taskResponse(task))
}

func (h *TaskHandler) Create(ctx *gin.Context) {
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

	if err != nil || !authz.Can(role, authz.ActionCreateTask) {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized"})
		return
	}

	var req CreateTaskRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Task title is required"})
		return
	}

	status := req.Status

	if status == "" {
		status = types.DefaultTaskStatus
	}

	creatorID := userID
	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		ProjectID:   project.ID,
		CreatorID:   &creatorID,
		ExpiryDate:  utils.ParseFlexibleTime(req.ExpiryDate),
	}

	// Append to the end of the status column. Concurrent creators can
	// read the same max and collide on sort_order; the board tolerates
	// duplicates since ordering is only applied at read time.
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var maxOrder int

		err := tx.Model(&models.Task{}).
			Where("project_id = ? AND status = ?", project.ID, status).
			Select("COALESCE(MAX(sort_order), 0)").
			Scan(&maxOrder).Error

		if err != nil {
			return err
		}

		task.SortOrder = maxOrder + 1

		return tx.Create(&task).Error
	})

	if err != nil {
		logrus.Errorf("Failed to create task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create task"})
		return
	}

	h.Hub.BroadcastRefresh(project.ID, "task-created")

	h.respondWithTask(ctx, http.StatusCreated, task.ID)
}

func (h *TaskHandler) Update(ctx *gin.Context) {
	task, _, ok := h.requireTaskMember(ctx, authz.ActionEditTask)

	if !ok {
		return
	}

	var req UpdateTaskRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	if req.Title != nil {
		task.Title = *req.Title
	}

	if req.Description != nil {
		task.Description = *req.Description
	}

	// A supplied but unparsable expiry clears the field instead of
	// erroring.
	if req.ExpiryDate != nil {
		task.ExpiryDate = utils.ParseFlexibleTime(*req.ExpiryDate)
	}

	if err := h.DB.Save(task).Error; err != nil {
		logrus.Errorf("Failed to update task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update task"})
		return
	}

	h.Hub.BroadcastRefresh(task.ProjectID, "task-updated")

	h.respondWithTask(ctx, http.StatusOK, task.ID)
}

func (h *TaskHandler) Delete(ctx *gin.Context) {
	task, _, ok := h.requireTaskMember(ctx, authz.ActionDeleteTask)

	if !ok {
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_assignments WHERE task_id = ?", task.ID).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(task).Error
	})

	if err != nil {
		logrus.Errorf("Failed to delete task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete task"})
		return
	}

	h.Hub.BroadcastRefresh(task.ProjectID, "task-deleted")

	ctx.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

func (h *TaskHandler) Move(ctx *gin.Context) {
	task, _, ok := h.requireTaskMember(ctx, authz.ActionMoveTask)

	if !ok {
		return
	}

	var req MoveTaskRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	// Set the fields directly. Sibling tasks are not renumbered;
	// callers send recomputed orders for anything they shifted, and
	// reads sort by (status, sort_order).
	if req.Status != nil {
		task.Status = *req.Status
	}

	if req.Order != nil {
		task.SortOrder = *req.Order
	}

	if err := h.DB.Save(task).Error; err != nil {
		logrus.Errorf("Failed to move task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to move task"})
		return
	}

	h.Hub.BroadcastRefresh(task.ProjectID, "task-moved")

	h.respondWithTask(ctx, http.StatusOK, task.ID)
}

func (h *TaskHandler) Assign(ctx *gin.Context) {
	task, _, ok := h.requireTaskMember(ctx, authz.ActionAssignTask)

	if !ok {
		return
	}

	var req AssignTaskRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "user_id is required"})
		return
	}

	var user models.User

	if err := h.DB.First(&user, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "User to assign not found"})
		} else {
			logrus.Errorf("Failed to fetch user %d: %v", req.UserID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	// The assignee has to be on the project too.
	if _, err := authz.Membership(h.DB, user.ID, task.ProjectID); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "User to assign is not a member of this project"})
		return
	}

	// Idempotent: re-assigning an assigned user is a no-op.
	assigned, err := h.isAssigned(task.ID, user.ID)

	if err != nil {
		logrus.Errorf("Failed to check assignment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if !assigned {
		if err := h.DB.Model(task).Association("Assignees").Append(&user); err != nil {
			logrus.Errorf("Failed to assign user %d to task %d: %v", user.ID, task.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to assign user"})
			return
		}
	}

	h.Hub.BroadcastRefresh(task.ProjectID, "task-assigned")

	h.respondWithTask(ctx, http.StatusOK, task.ID)
}

func (h *TaskHandler) Unassign(ctx *gin.Context) {
	task, _, ok := h.requireTaskMember(ctx, authz.ActionAssignTask)

	if !ok {
		return
	}

	var req AssignTaskRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "user_id is required"})
		return
	}

	var user models.User

	if err := h.DB.First(&user, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "User to unassign not found"})
		} else {
			logrus.Errorf("Failed to fetch user %d: %v", req.UserID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	// Idempotent: unassigning a non-assigned user is a no-op.
	if err := h.DB.Model(task).Association("Assignees").Delete(&user); err != nil {
		logrus.Errorf("Failed to unassign user %d from task %d: %v", user.ID, task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to unassign user"})
		return
	}

	h.Hub.BroadcastRefresh(task.ProjectID, "task-unassigned")

	h.respondWithTask(ctx, http.StatusOK, task.ID)
}

func (h *TaskHandler) isAssigned(taskID, userID uint) (bool, error) {
	var count int64

	err := h.DB.Table("task_assignments").
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&count).Error

	return count > 0, err
}
