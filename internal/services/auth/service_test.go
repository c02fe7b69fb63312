package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "crew-portal/internal/common/errors"
	backend "crew-portal/internal/common/http"
	"crew-portal/internal/models"
	"crew-portal/internal/services/servicetest"
)

func TestLogin(t *testing.T) {
	client, srv := servicetest.New(t, `{"success":true,"data":{"token":"jwt-1","user":{"id":7,"name":"Ana Silva","email":"ana@fleet.test"}}}`)
	svc := New(client)

	res, err := svc.Login(context.Background(), models.RoleCrew, " ana@fleet.test ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", res.Token)
	assert.Equal(t, models.ID("7"), res.User.ID)

	call := srv.Last()
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/auth/crew/login", call.Path)
	assert.Equal(t, "ana@fleet.test", call.Body["email"])
}

func TestLogin_AdminEndpoint(t *testing.T) {
	client, srv := servicetest.New(t, `{"success":true,"data":{"token":"jwt-2","user":{"id":"a1"}}}`)
	_, err := New(client).Login(context.Background(), models.RoleAdmin, "ops@fleet.test", "pw")
	require.NoError(t, err)
	assert.Equal(t, "/auth/admin/login", srv.Last().Path)
}

func TestLogin_LocalValidation(t *testing.T) {
	client, srv := servicetest.New(t, `{}`)
	svc := New(client)

	_, err := svc.Login(context.Background(), "captain", "a@b.c", "pw")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidationFailed))

	_, err = svc.Login(context.Background(), models.RoleCrew, "", "pw")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidationFailed))

	assert.Empty(t, srv.Calls())
}

func TestLogin_BadCredentials(t *testing.T) {
	client, srv := servicetest.New(t, `{"success":false,"message":"Invalid email or password"}`)
	srv.Status = http.StatusUnauthorized

	_, err := New(client).Login(context.Background(), models.RoleCrew, "a@b.c", "wrong")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeUnauthorized))
}

func TestLogin_MissingToken(t *testing.T) {
	client, _ := servicetest.New(t, `{"success":true,"data":{"user":{"id":1}}}`)
	_, err := New(client).Login(context.Background(), models.RoleCrew, "a@b.c", "pw")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeBackendRejected))
}

func TestLogout_SendsToken(t *testing.T) {
	client, srv := servicetest.New(t, `{"success":true}`)
	ctx := backend.WithToken(context.Background(), "jwt-9")

	require.NoError(t, New(client).Logout(ctx))
	assert.Equal(t, "/auth/logout", srv.Last().Path)
	assert.Equal(t, "Bearer jwt-9", srv.Last().Auth)
}
