package authz

import (
	"github.com/taskflow-dev/taskflow/internal/models"
	"gorm.io/gorm"
)

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

type Action string

const (
	ActionViewProject   Action = "view-project"
	ActionCreateTask    Action = "create-task"
	ActionEditTask      Action = "edit-task"
	ActionMoveTask      Action = "move-task"
	ActionDeleteTask    Action = "delete-task"
	ActionAssignTask    Action = "assign-task"
	ActionEditProject   Action = "edit-project"
	ActionDeleteProject Action = "delete-project"
	ActionAddMember     Action = "add-member"
	ActionChangeRole    Action = "change-role"
	ActionRemoveMember  Action = "remove-member"
)

var ownerOnly = map[Action]bool{
	ActionEditProject:   true,
	ActionDeleteProject: true,
	ActionAddMember:     true,
	ActionChangeRole:    true,
	ActionRemoveMember:  true,
}

// ValidRole reports whether role is in the closed {owner, member} set.
func ValidRole(role string) bool {
	return role == RoleOwner || role == RoleMember
}

// Can is the per-request authorization decision: any membership role
// grants the member-level actions, owner-only actions require the
// owner role exactly. It never touches storage.
func Can(role string, action Action) bool {
	if !ValidRole(role) {
		return false
	}

	if ownerOnly[action] {
		return role == RoleOwner
	}

	return true
}

// Membership returns the acting user's role on the project, or
// gorm.ErrRecordNotFound when no membership row exists.
func Membership(conn *gorm.DB, userID, projectID uint) (string, error) {
	var membership models.ProjectMembership

	err := conn.Where("user_id = ? AND project_id = ?", userID, projectID).
		First(&membership).Error

	if err != nil {
		return "", err
	}

	return membership.Role, nil
}
