package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/taskflow-dev/taskflow/internal/authz"
	"github.com/taskflow-dev/taskflow/internal/models"
	"github.com/taskflow-dev/taskflow/internal/types"
	"github.com/taskflow-dev/taskflow/internal/utils"
	"github.com/taskflow-dev/taskflow/internal/ws"
	"gorm.io/gorm"
)

type MemberHandler struct {
	DB  *gorm.DB
	Hub *ws.Hub
}

type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}

type UpdateMemberRequest struct {
	Role string `json:"role" binding:"required"`
}

// requireProjectOwner loads the project and checks the acting user
// holds the owner role on it. Existence is checked before
// authorization, so an absent project is 404, not 403.
func (h *MemberHandler) requireProjectOwner(ctx *gin.Context, action authz.Action) (*models.Project, uint, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return nil, 0, false
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return nil, 0, false
	}

	var project models.Project

	if err := h.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		} else {
			logrus.Errorf("Failed to fetch project %d: %v", projectID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve project"})
		}
		return nil, 0, false
	}

	role, err := authz.Membership(h.DB, userID, project.ID)

	if err != nil || !authz.Can(role, action) {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized"})
		return nil, 0, false
	}

	return &project, userID, true
}

func (h *MemberHandler) Add(ctx *gin.Context) {
	project, _, ok := h.requireProjectOwner(ctx, authz.ActionAddMember)

	if !ok {
		return
	}

	var req AddMemberRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Member email is required"})
		return
	}

	role := req.Role

	if role == "" {
		role = authz.RoleMember
	}

	if !authz.ValidRole(role) {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Role must be owner or member"})
		return
	}

	var user models.User

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		} else {
			logrus.Errorf("Failed to fetch user by email: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	var existing models.ProjectMembership

	err := h.DB.Where("user_id = ? AND project_id = ?", user.ID, project.ID).First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusConflict, gin.H{"message": "User is already a member of this project"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logrus.Errorf("Failed to check existing membership: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	membership := models.ProjectMembership{
		UserID:    user.ID,
		ProjectID: project.ID,
		Role:      role,
	}

	if err := h.DB.Create(&membership).Error; err != nil {
		logrus.Errorf("Failed to add member: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to add member"})
		return
	}

	h.Hub.BroadcastRefresh(project.ID, "member-added")

	ctx.JSON(http.StatusCreated, types.MemberResponse{
		ID:    user.ID,
		Email: user.Email,
		Role:  membership.Role,
	})
}

func (h *MemberHandler) UpdateRole(ctx *gin.Context) {
	project, actingUserID, ok := h.requireProjectOwner(ctx, authz.ActionChangeRole)

	if !ok {
		return
	}

	targetUserID, err := utils.GetUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	// An owner may not change their own membership, regardless of the
	// requested role.
	if targetUserID == actingUserID {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Owners cannot change their own membership"})
		return
	}

	var req UpdateMemberRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Role is required"})
		return
	}

	if !authz.ValidRole(req.Role) {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Role must be owner or member"})
		return
	}

	var membership models.ProjectMembership

	err = h.DB.Preload("User").
		Where("user_id = ? AND project_id = ?", targetUserID, project.ID).
		First(&membership).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Membership not found"})
		} else {
			logrus.Errorf("Failed to fetch membership: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	membership.Role = req.Role

	if err := h.DB.Save(&membership).Error; err != nil {
		logrus.Errorf("Failed to update membership: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update member"})
		return
	}

	h.Hub.BroadcastRefresh(project.ID, "member-updated")

	ctx.JSON(http.StatusOK, types.MemberResponse{
		ID:    membership.User.ID,
		Email: membership.User.Email,
		Role:  membership.Role,
	})
}

func (h *MemberHandler) Remove(ctx *gin.Context) {
	project, actingUserID, ok := h.requireProjectOwner(ctx, authz.ActionRemoveMember)

	if !ok {
		return
	}

	targetUserID, err := utils.GetUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if targetUserID == actingUserID {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Owners cannot remove their own membership"})
		return
	}

	var membership models.ProjectMembership

	err = h.DB.Where("user_id = ? AND project_id = ?", targetUserID, project.ID).
		First(&membership).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Membership not found"})
		} else {
			logrus.Errorf("Failed to fetch membership: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	if err := h.DB.Unscoped().Delete(&membership).Error; err != nil {
		logrus.Errorf("Failed to remove member: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to remove member"})
		return
	}

	h.Hub.BroadcastRefresh(project.ID, "member-removed")

	ctx.Status(http.StatusNoContent)
}
