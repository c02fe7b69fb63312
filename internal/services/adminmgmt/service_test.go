package adminmgmt

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/models"
	"crew-portal/internal/services"
	"crew-portal/internal/services/servicetest"
)

func TestService_Endpoints(t *testing.T) {
	client, srv := servicetest.New(t, `{"success":true,"data":{"id":"a2","name":"Ops","active":true}}`)
	rec := &servicetest.Recorder{}
	svc := New(client, rec)
	ctx := services.WithActor(context.Background(), services.Actor{ID: "a1"})

	_, err := svc.Get(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, "/admins/a2", srv.Last().Path)

	_, err = svc.Create(ctx, models.AdminInput{Name: "Ops", Email: "ops@fleet.test", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, srv.Last().Method)
	assert.Equal(t, "/admins", srv.Last().Path)
	assert.Equal(t, services.ActionCreate, rec.Last().Action)

	_, err = svc.Update(ctx, "a2", models.AdminInput{Name: "Ops", Email: "ops@fleet.test"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, srv.Last().Method)

	_, err = svc.SetActive(ctx, "a2", false)
	require.NoError(t, err)
	assert.Equal(t, "/admins/a2/status", srv.Last().Path)
	assert.Equal(t, false, srv.Last().Body["active"])
	assert.Equal(t, services.ActionDeactivate, rec.Last().Action)

	srv.Body = `{"success":true,"data":[{"id":"a1"},{"id":"a2"}]}`
	admins, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 2)
}

func TestService_Checks(t *testing.T) {
	client, srv := servicetest.New(t, `{}`)
	svc := New(client, nil)
	ctx := services.WithActor(context.Background(), services.Actor{ID: "a1"})

	tests := []struct {
		name string
		in   models.AdminInput
		msg  string
	}{
		{"no name", models.AdminInput{Email: "x@y.zz", Password: "12345678"}, "Name is required"},
		{"bad email", models.AdminInput{Name: "x", Email: "nope", Password: "12345678"}, "A valid email is required"},
		{"short password", models.AdminInput{Name: "x", Email: "x@y.zz", Password: "short"}, "Password must be at least 8 characters"},
		{"bad phone", models.AdminInput{Name: "x", Email: "x@y.zz", Phone: "12", Password: "12345678"}, "Phone number is not valid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			assert.Equal(t, tt.msg, apperrors.UserMessage(err))
		})
	}

	_, err := svc.SetActive(ctx, "a1", false)
	assert.Equal(t, "You cannot deactivate your own account", apperrors.UserMessage(err))
	assert.Empty(t, srv.Calls())
}
