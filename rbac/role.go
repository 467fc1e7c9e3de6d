// Package rbac holds the authorization core of the application: role
// resolution, the role/permission table, the agenda-scoped
// authorization check, membership management, and the ticket-history
// visibility rule. Every mutating request handler calls into this
// package before touching agenda, team, or ticket data.
package rbac

// Role is a user's effective role within one agenda. Ownership is
// derived from Agenda.OwnerID and is never stored in a membership row,
// so AgendaMember.Role only ever holds admin, team_leader or
// collaborator.
type Role string

const (
	RoleOwner        Role = "owner"
	RoleAdmin        Role = "admin"
	RoleTeamLeader   Role = "team_leader"
	RoleCollaborator Role = "collaborator"

	// RoleNone marks the absence of any relationship between a user
	// and an agenda.
	RoleNone Role = ""
)

// Action is a permission tag checked against the role table.
type Action string

const (
	ActionCreateTicket Action = "create_ticket"
	ActionEditTicket   Action = "edit_ticket"
	ActionDeleteTicket Action = "delete_ticket"
	ActionMoveTicket   Action = "move_ticket"
	ActionCreateTeam   Action = "create_team"
	ActionEditTeam     Action = "edit_team"
	ActionDeleteTeam   Action = "delete_team"
	ActionInviteMember Action = "invite_member"

	// ActionManageRoles is defined but granted to no role; role changes
	// go through the owner-only membership operations instead.
	ActionManageRoles Action = "manage_roles"
)

// rolePermissions maps each storable role to the actions it may
// perform. The owner is not listed: ownership bypasses the table
// entirely. Collaborators are read-only.
var rolePermissions = map[Role][]Action{
	RoleAdmin: {
		ActionCreateTicket, ActionEditTicket, ActionDeleteTicket,
		ActionMoveTicket, ActionCreateTeam, ActionEditTeam,
		ActionDeleteTeam, ActionInviteMember,
	},
	RoleTeamLeader: {
		ActionCreateTicket, ActionEditTicket, ActionMoveTicket,
	},
	RoleCollaborator: {},
}

// Can reports whether the role's permission set contains the action.
// Unknown roles have an empty set.
func (r Role) Can(action Action) bool {
	if r == RoleOwner {
		return true
	}
	for _, a := range rolePermissions[r] {
		if a == action {
			return true
		}
	}
	return false
}

// ValidMemberRole reports whether s names a role that may be stored on
// an agenda membership. "owner" is deliberately excluded.
func ValidMemberRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleTeamLeader, RoleCollaborator:
		return true
	}
	return false
}
