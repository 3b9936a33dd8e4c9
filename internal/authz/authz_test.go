package authz

import "testing"

func TestCanDecisionTable(t *testing.T) {
	memberActions := []Action{
		ActionViewProject,
		ActionCreateTask,
		ActionEditTask,
		ActionMoveTask,
		ActionDeleteTask,
		ActionAssignTask,
	}

	ownerActions := []Action{
		ActionEditProject,
		ActionDeleteProject,
		ActionAddMember,
		ActionChangeRole,
		ActionRemoveMember,
	}

	for _, action := range memberActions {
		if !Can(RoleMember, action) {
			t.Errorf("member should be allowed %s", action)
		}
		if !Can(RoleOwner, action) {
			t.Errorf("owner should be allowed %s", action)
		}
	}

	for _, action := range ownerActions {
		if Can(RoleMember, action) {
			t.Errorf("member should not be allowed %s", action)
		}
		if !Can(RoleOwner, action) {
			t.Errorf("owner should be allowed %s", action)
		}
	}
}

func TestCanRejectsUnknownRoles(t *testing.T) {
	for _, role := range []string{"", "admin", "viewer"} {
		if Can(role, ActionViewProject) {
			t.Errorf("role %q should not be allowed anything", role)
		}
	}
}

func TestValidRole(t *testing.T) {
	if !ValidRole(RoleOwner) || !ValidRole(RoleMember) {
		t.Error("owner and member are the valid roles")
	}
	if ValidRole("admin") || ValidRole("") {
		t.Error("roles outside {owner, member} are invalid")
	}
}
