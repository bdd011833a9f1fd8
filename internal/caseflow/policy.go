package caseflow

import "caseflow.org/internal/auth"

// Action is the closed set of case actions the access policy rules on.
type Action string

const (
	ActionView    Action = "view"
	ActionInspect Action = "inspect"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionReturn  Action = "return"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
)

// CanPerform is the sole authorization boundary for case actions: a pure
// function of role, action and the case snapshot. There is no server-side
// second check, so every rule lives here and nowhere else.
//
//	view     any role except inspector; inspector only on own cases
//	inspect  owning inspector while the case is new or pending_revision
//	approve/reject/return  admin or super_admin on reviewable statuses
//	edit     admin or super_admin
//	delete   super_admin
func CanPerform(role auth.Role, action Action, userID string, snap Snapshot) bool {
	switch action {
	case ActionView:
		switch role {
		case auth.RoleInspector:
			return snap.InspectorID == userID
		case auth.RoleAdmin, auth.RoleSuperAdmin:
			return true
		}
		return false
	case ActionInspect:
		if role != auth.RoleInspector || snap.InspectorID != userID {
			return false
		}
		return snap.Status == StatusNew || snap.Status == StatusPendingRevision
	case ActionApprove, ActionReject, ActionReturn:
		return role.IsAdministrative() && reviewable(snap.Status)
	case ActionEdit:
		return role.IsAdministrative()
	case ActionDelete:
		return role == auth.RoleSuperAdmin
	}
	return false
}
