package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
	"gitlab.com/yelinaung/expense-approval/internal/models"
)

func TestUserRepository_GetByID(t *testing.T) {
	f := newFixture(t)

	t.Run("returns user with manager", func(t *testing.T) {
		got, err := f.users.GetByID(f.ctx, f.employee.ID)
		require.NoError(t, err)
		require.Equal(t, models.RoleEmployee, got.Role)
		require.True(t, got.HasManager())
		require.Equal(t, f.manager.ID, *got.ManagerID)
	})

	t.Run("missing user is not found", func(t *testing.T) {
		_, err := f.users.GetByID(f.ctx, uuid.New())
		require.ErrorIs(t, err, apperror.NotFound)
	})
}

func TestUserRepository_FindCompanyAdmin(t *testing.T) {
	f := newFixture(t)

	t.Run("returns the earliest admin", func(t *testing.T) {
		f.addUser(t, "Later", models.RoleAdmin, nil)

		got, err := f.users.FindCompanyAdmin(f.ctx, f.company.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, f.admin.ID, got.ID)
	})

	t.Run("company without admin returns nil", func(t *testing.T) {
		got, err := f.users.FindCompanyAdmin(f.ctx, uuid.New())
		require.NoError(t, err)
		require.Nil(t, got)
	})
}

func TestUserRepository_GetByIDs(t *testing.T) {
	f := newFixture(t)

	got, err := f.users.GetByIDs(f.ctx, []uuid.UUID{f.admin.ID, f.manager.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Ada", got[f.admin.ID].Name)

	empty, err := f.users.GetByIDs(f.ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
