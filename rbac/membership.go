package rbac

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"agendly/models"
)

// Membership management. Every operation here is gated on the caller
// being the agenda owner; admins may invite through the generic
// invite_member action but may not remove members or change roles.

// ownedAgenda loads the agenda and checks the actor owns it.
func ownedAgenda(db *gorm.DB, actorID, agendaID uint) (*models.Agenda, error) {
	var agenda models.Agenda
	if err := db.First(&agenda, agendaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: agenda %d", ErrNotFound, agendaID)
		}
		return nil, err
	}
	if agenda.OwnerID != actorID {
		return nil, ErrPermissionDenied
	}
	return &agenda, nil
}

// InviteMember adds the user registered under email to the agenda with
// the given role (collaborator when empty). Inviting an existing
// member is a conflict, not an update.
func InviteMember(db *gorm.DB, actorID, agendaID uint, email, role string) (*models.AgendaMember, error) {
	if _, err := ownedAgenda(db, actorID, agendaID); err != nil {
		return nil, err
	}

	if role == "" {
		role = string(RoleCollaborator)
	}
	if !ValidMemberRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no account with email %s", ErrNotFound, email)
		}
		return nil, err
	}

	var existing models.AgendaMember
	err := db.Where("user_id = ? AND agenda_id = ?", user.ID, agendaID).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: user is already a member", ErrConflict)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	member := models.AgendaMember{
		UserID:    user.ID,
		AgendaID:  agendaID,
		Role:      role,
		InvitedBy: &actorID,
	}
	if err := db.Create(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// RemoveMember deletes the membership for (userID, agendaID). Removing
// a user who is not a member is a no-op.
func RemoveMember(db *gorm.DB, actorID, agendaID, userID uint) error {
	if _, err := ownedAgenda(db, actorID, agendaID); err != nil {
		return err
	}
	return db.Where("user_id = ? AND agenda_id = ?", userID, agendaID).
		Delete(&models.AgendaMember{}).Error
}

// UpdateRole changes a member's role in place. Updating a user who is
// not a member is a no-op; an unknown role is rejected before any
// lookup.
func UpdateRole(db *gorm.DB, actorID, agendaID, userID uint, newRole string) error {
	if _, err := ownedAgenda(db, actorID, agendaID); err != nil {
		return err
	}
	if !ValidMemberRole(newRole) {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, newRole)
	}

	var member models.AgendaMember
	err := db.Where("user_id = ? AND agenda_id = ?", userID, agendaID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	member.Role = newRole
	return db.Save(&member).Error
}

// AssignTeamLeader promotes a member to team_leader of the given team,
// overwriting any prior role. The team must belong to the agenda.
func AssignTeamLeader(db *gorm.DB, actorID, agendaID, userID, teamID uint) error {
	if _, err := ownedAgenda(db, actorID, agendaID); err != nil {
		return err
	}

	var team models.Team
	if err := db.Where("id = ? AND agenda_id = ?", teamID, agendaID).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: team does not belong to this agenda", ErrValidation)
		}
		return err
	}

	var member models.AgendaMember
	if err := db.Where("user_id = ? AND agenda_id = ?", userID, agendaID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user is not a member of this agenda", ErrNotFound)
		}
		return err
	}

	member.Role = string(RoleTeamLeader)
	member.TeamID = &teamID
	return db.Save(&member).Error
}
