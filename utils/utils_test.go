package utils_test

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendly/rbac"
	"agendly/utils"
)

func TestStatusForError(t *testing.T) {
	assert.Equal(t, fiber.StatusNotFound, utils.StatusForError(rbac.ErrNotFound))
	assert.Equal(t, fiber.StatusForbidden, utils.StatusForError(rbac.ErrPermissionDenied))
	assert.Equal(t, fiber.StatusUnprocessableEntity, utils.StatusForError(rbac.ErrValidation))
	assert.Equal(t, fiber.StatusConflict, utils.StatusForError(rbac.ErrConflict))
	assert.Equal(t, fiber.StatusInternalServerError, utils.StatusForError(assert.AnError))
}

func TestParseISOTime(t *testing.T) {
	got, err := utils.ParseISOTime("2024-03-01T09:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), got)

	got, err = utils.ParseISOTime("2024-03-01T09:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC), got.UTC())

	_, err = utils.ParseISOTime("01/03/2024 09:00")
	assert.Error(t, err)
}

func TestValidateStruct(t *testing.T) {
	type invite struct {
		Email string `validate:"required,email"`
		Role  string `validate:"omitempty,oneof=admin team_leader collaborator"`
	}

	assert.NoError(t, utils.ValidateStruct(invite{Email: "a@b.com", Role: "admin"}))
	assert.Error(t, utils.ValidateStruct(invite{Email: "not-an-email"}))
	assert.Error(t, utils.ValidateStruct(invite{}))
	assert.Error(t, utils.ValidateStruct(invite{Email: "a@b.com", Role: "owner"}))
}
