package web

import (
	"crew-portal/internal/services"
	"crew-portal/internal/services/adminmgmt"
	"crew-portal/internal/services/appointment"
	"crew-portal/internal/services/auth"
	"crew-portal/internal/services/certificate"
	"crew-portal/internal/services/debriefing"
	"crew-portal/internal/services/employmentdocument"
	"crew-portal/internal/services/profilerequest"
	"crew-portal/internal/services/role"
	"crew-portal/internal/services/support"
	"crew-portal/internal/services/traveldocument"
)

// Services bundles the typed backend clients the handlers call.
type Services struct {
	Auth            *auth.Service
	Appointments    *appointment.Service
	Debriefings     *debriefing.Service
	Certificates    *certificate.Service
	TravelDocs      *traveldocument.Service
	EmploymentDocs  *employmentdocument.Service
	ProfileRequests *profilerequest.Service
	Admins          *adminmgmt.Service
	Roles           *role.Service
	Support         *support.Service
}

// NewServices builds every service on one backend. obs receives audit and
// notification events and may be nil.
func NewServices(b services.Backend, obs services.Observer) Services {
	return Services{
		Auth:            auth.New(b),
		Appointments:    appointment.New(b, obs),
		Debriefings:     debriefing.New(b, obs),
		Certificates:    certificate.New(b, obs),
		TravelDocs:      traveldocument.New(b, obs),
		EmploymentDocs:  employmentdocument.New(b, obs),
		ProfileRequests: profilerequest.New(b, obs),
		Admins:          adminmgmt.New(b, obs),
		Roles:           role.New(b, obs),
		Support:         support.New(b, obs),
	}
}
