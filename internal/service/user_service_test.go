package service

import (
	"context"
	"strings"
	"testing"

	"refugio/internal/cache"
	"refugio/internal/mailer"
	"refugio/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T, e *env) (*UserService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewUserService(e.users, e.store, e.notifier, rdb), mr
}

func TestRegisterSendsWelcome(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	svc, _ := newUserService(t, e)

	user, err := svc.Register(context.Background(), RegisterInput{
		Username:         "maria_g",
		Email:            "Maria@Example.com",
		Password:         "Password1",
		FirstName:        "María",
		RecibirNovedades: true,
	}, false)
	require.NoError(t, err)

	assert.Equal(t, "maria@example.com", user.Email, "email is normalized")
	assert.NotEqual(t, "Password1", user.Password, "password must be hashed")

	sent := e.sender.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, mailer.TemplateWelcome, sent[0].Template)
	assert.Equal(t, []string{"maria@example.com"}, sent[0].To)
}

func TestRegisterValidations(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	svc, _ := newUserService(t, e)
	ctx := context.Background()

	var appErr *models.AppError

	_, err := svc.Register(ctx, RegisterInput{
		Username: "ok_user", Email: "bad-email", Password: "Password1",
	}, true)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)

	_, err = svc.Register(ctx, RegisterInput{
		Username: "ok_user", Email: "a@b.com", Password: "weak",
	}, true)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)

	_, err = svc.Register(ctx, RegisterInput{
		Username: "x", Email: "a@b.com", Password: "Password1",
	}, true)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	svc, _ := newUserService(t, e)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Username: "pedro", Email: "pedro@example.com", Password: "Password1",
	}, true)
	require.NoError(t, err)

	var appErr *models.AppError
	_, err = svc.Register(ctx, RegisterInput{
		Username: "pedro", Email: "otro@example.com", Password: "Password1",
	}, true)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	svc, _ := newUserService(t, e)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Username: "ana", Email: "ana@example.com", Password: "Password1",
	}, true)
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "ana", "Password1")
	require.NoError(t, err)
	assert.Equal(t, "ana", user.Username)

	var appErr *models.AppError
	_, err = svc.Authenticate(ctx, "ana", "WrongPass1")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeUnauthorized, appErr.Code)

	// Unknown user yields the same error as a wrong password.
	_, unknownErr := svc.Authenticate(ctx, "nadie", "Password1")
	require.ErrorAs(t, unknownErr, &appErr)
	assert.Equal(t, models.CodeUnauthorized, appErr.Code)
	assert.Equal(t, err.Error(), unknownErr.Error())
}

func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	svc, mr := newUserService(t, e)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Username: "carla", Email: "carla@example.com", Password: "Password1",
	}, true)
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "carla@example.com"))

	sent := e.sender.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, mailer.TemplatePasswordReset, sent[0].Template)

	// Pull the token back out of the store.
	keys := mr.Keys()
	require.Len(t, keys, 1)
	token := strings.TrimPrefix(keys[0], cache.ResetTokenKey(""))

	require.NoError(t, svc.ResetPassword(ctx, token, "NewPassword2"))

	_, err = svc.Authenticate(ctx, "carla", "NewPassword2")
	assert.NoError(t, err)

	// The token is single use.
	var appErr *models.AppError
	err = svc.ResetPassword(ctx, token, "OtherPass3")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

func TestPasswordResetUnknownEmailSilent(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	svc, _ := newUserService(t, e)

	assert.NoError(t, svc.RequestPasswordReset(context.Background(), "desconocido@example.com"))
	assert.Empty(t, e.sender.sent())
}

func TestUpdateProfilePartial(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	svc, _ := newUserService(t, e)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Username: "dani", Email: "dani@example.com", Password: "Password1",
		FirstName: "Dani",
	}, true)
	require.NoError(t, err)

	novedades := true
	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{
		RecibirNovedades: &novedades,
	})
	require.NoError(t, err)
	assert.True(t, updated.RecibirNovedades)
	assert.Equal(t, "Dani", updated.FirstName, "untouched fields keep their value")
	assert.Equal(t, "dani@example.com", updated.Email)
}

func TestDeleteOwnAccountOnly(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	svc, _ := newUserService(t, e)
	ctx := context.Background()

	victim, err := svc.Register(ctx, RegisterInput{
		Username: "elena", Email: "elena@example.com", Password: "Password1",
	}, true)
	require.NoError(t, err)
	other, err := svc.Register(ctx, RegisterInput{
		Username: "fede", Email: "fede@example.com", Password: "Password1",
	}, true)
	require.NoError(t, err)

	var appErr *models.AppError
	err = svc.Delete(ctx, other.ID, false, victim.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeForbidden, appErr.Code)

	require.NoError(t, svc.Delete(ctx, victim.ID, false, victim.ID))
	_, err = svc.Get(ctx, victim.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}
