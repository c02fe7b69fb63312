package debriefing

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

func TestService_ListAndGet(t *testing.T) {
	client, srv := servicetest.New(t, `{"success":true,"data":[{"id":1,"vesselName":"MV Aurora","overallRating":4}]}`)
	svc := New(client, nil)

	forms, err := svc.ListMine(context.Background())
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, "MV Aurora", forms[0].VesselName)
	assert.Equal(t, "/debriefings/my", srv.Last().Path)

	_, err = svc.List(context.Background(), models.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, "/debriefings", srv.Last().Path)
	assert.Equal(t, "status=pending", srv.Last().Query)

	srv.Routes["GET /debriefings/1"] = `{"success":true,"data":{"id":1,"vesselName":"MV Aurora"}}`
	form, err := svc.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, models.ID("1"), form.ID)
}

func TestService_Submit(t *testing.T) {
	client, srv := servicetest.New(t, `{"success":true,"data":{"id":9,"status":"pending"}}`)
	svc := New(client, nil)

	in := models.DebriefingSubmission{
		VesselName:    "MV Aurora",
		SignOnDate:    "2026-01-10",
		SignOffDate:   "2026-07-01",
		OverallRating: 5,
		Answers:       map[string]string{"food": "good"},
	}
	form, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.ID("9"), form.ID)
	assert.Equal(t, http.MethodPost, srv.Last().Method)
	assert.Equal(t, "MV Aurora", srv.Last().Body["vesselName"])

	in.OverallRating = 0
	_, err = svc.Submit(context.Background(), in)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidationFailed))
	assert.Len(t, srv.Calls(), 1)
}

func TestService_Review(t *testing.T) {
	client, srv := servicetest.New(t, `{"success":true,"data":{"id":9,"status":"approved","crew":{"id":3,"email":"bo@fleet.test"}}}`)
	rec := &servicetest.Recorder{}

	_, err := New(client, rec).Review(context.Background(), "9", models.ReviewDecision{Status: models.StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, srv.Last().Method)
	assert.Equal(t, "/debriefings/9/review", srv.Last().Path)
	assert.Equal(t, "approved", srv.Last().Body["status"])
	assert.Equal(t, "bo@fleet.test", rec.Last().Crew.Email)
}
