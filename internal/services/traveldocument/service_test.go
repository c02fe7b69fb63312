package traveldocument

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/models"
	"crew-portal/internal/services/servicetest"
)

func validInput() models.TravelDocumentInput {
	return models.TravelDocumentInput{
		DocumentType:   "passport",
		DocumentNumber: " P1234567 ",
		IssuingCountry: "NO",
		IssueDate:      "2022-01-01",
		ExpiryDate:     "2032-01-01",
	}
}

func TestService_CRUD(t *testing.T) {
	client, srv := servicetest.New(t, `{"success":true,"data":{"id":4,"documentType":"passport"}}`)
	svc := New(client, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, srv.Last().Method)
	assert.Equal(t, "/travel-documents", srv.Last().Path)
	assert.Equal(t, "P1234567", srv.Last().Body["documentNumber"])

	_, err = svc.Update(ctx, "4", validInput())
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, srv.Last().Method)
	assert.Equal(t, "/travel-documents/4", srv.Last().Path)

	require.NoError(t, svc.Delete(ctx, "4"))
	assert.Equal(t, http.MethodDelete, srv.Last().Method)

	srv.Body = `{"success":true,"data":[]}`
	_, err = svc.ListMine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/travel-documents/my", srv.Last().Path)
	_, err = svc.List(ctx, "pending")
	require.NoError(t, err)
	assert.Equal(t, "status=pending", srv.Last().Query)
}

func TestService_InputChecks(t *testing.T) {
	client, srv := servicetest.New(t, `{}`)
	svc := New(client, nil)

	bad := validInput()
	bad.DocumentType = "library_card"
	_, err := svc.Create(context.Background(), bad)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidationFailed))

	bad = validInput()
	bad.ExpiryDate = "2020-01-01"
	_, err = svc.Create(context.Background(), bad)
	assert.Equal(t, "Expiry date must be after the issue date", apperrors.UserMessage(err))

	_, err = svc.Update(context.Background(), "", validInput())
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidationFailed))

	assert.Empty(t, srv.Calls())
}

func TestService_Review(t *testing.T) {
	client, srv := servicetest.New(t, `{"success":true,"data":{"id":4,"status":"approved"}}`)
	rec := &servicetest.Recorder{}

	_, err := New(client, rec).Review(context.Background(), "4", models.ReviewDecision{Status: models.StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, "/travel-documents/4/approval", srv.Last().Path)
	assert.Equal(t, 1, rec.Len())
}
