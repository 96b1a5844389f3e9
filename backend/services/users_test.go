package services_test

import (
	"testing"

	"learnhub/backend/models"
	"learnhub/backend/services"
	"learnhub/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegister(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewUserService(db, bcrypt.MinCost)

	user, err := svc.Register(services.RegisterInput{Email: " Grace@Example.com ", Password: "hopper123"})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", user.Email)
	assert.Equal(t, "grace", user.Username)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NotEqual(t, "hopper123", user.PasswordHash)

	_, err = svc.Register(services.RegisterInput{Email: "grace@example.com", Password: "other"})
	assert.ErrorIs(t, err, services.ErrConflict)

	_, err = svc.Register(services.RegisterInput{Email: "", Password: "x"})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRegisterRejectsSoftDeletedEmail(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewUserService(db, bcrypt.MinCost)

	user, err := svc.Register(services.RegisterInput{Email: "gone@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, db.Delete(user).Error)

	_, err = svc.Register(services.RegisterInput{Email: "gone@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestAuthenticate(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewUserService(db, bcrypt.MinCost)
	_, err := svc.Register(services.RegisterInput{Email: "alan@example.com", Password: "turing42"})
	require.NoError(t, err)

	user, err := svc.Authenticate("ALAN@example.com", "turing42")
	require.NoError(t, err)
	assert.Equal(t, "alan@example.com", user.Email)

	_, err = svc.Authenticate("alan@example.com", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = svc.Authenticate("nobody@example.com", "turing42")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.User(t, db, models.RoleStudent)
	svc := services.NewUserService(db, bcrypt.MinCost)

	bio := "Likes compilers"
	name := "Grace Hopper"
	updated, err := svc.UpdateProfile(user.ID, services.ProfileUpdate{Bio: &bio, FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)
	assert.Equal(t, name, updated.FullName)
	assert.Equal(t, user.Username, updated.Username)

	empty := ""
	_, err = svc.UpdateProfile(user.ID, services.ProfileUpdate{Bio: &empty})
	require.NoError(t, err)
	reloaded, err := svc.Get(user.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Bio)

	_, err = svc.UpdateProfile(user.ID, services.ProfileUpdate{Username: &empty})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = svc.UpdateProfile("missing", services.ProfileUpdate{Bio: &bio})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestListUsers(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.User(t, db, models.RoleStudent)
	testutil.User(t, db, models.RoleAdmin)

	users, err := services.NewUserService(db, bcrypt.MinCost).List()
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
