package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"crew-portal/internal/audit"
	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/listing"
	"crew-portal/internal/models"
	"crew-portal/internal/services"
	"crew-portal/internal/services/appointment"
	"crew-portal/pkg/registry"
)

func decisionFrom(c *gin.Context) models.ReviewDecision {
	return models.ReviewDecision{
		Status:  c.PostForm("status"),
		Remarks: strings.TrimSpace(c.PostForm("remarks")),
	}
}

// ==========================
// Dashboard
// ==========================

type dashboardCard struct {
	Title string
	Count int
	Link  string
}

// handleAdminDashboard shows a pending-work card for every section the
// admin may open.
func (s *Server) handleAdminDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	sess := currentSession(c)
	errs := &loadErrors{s: s, c: c}
	var cards []dashboardCard

	if sess.HasPermission(registry.PermAppointments) {
		list, err := s.svc.Appointments.List(ctx, appointment.Filter{Status: models.AppointmentPending})
		if errs.check(err) {
			return
		}
		cards = append(cards, dashboardCard{Title: "Pending appointments", Count: len(list), Link: "/admin/appointments?status=pending"})
	}

	if sess.HasPermission(registry.PermApprovals) {
		travel, err := s.svc.TravelDocs.List(ctx, models.StatusPending)
		if errs.check(err) {
			return
		}
		employment, err := s.svc.EmploymentDocs.List(ctx, models.StatusPending)
		if errs.check(err) {
			return
		}
		certs, err := s.svc.Certificates.List(ctx, "")
		if errs.check(err) {
			return
		}
		cards = append(cards,
			dashboardCard{Title: "Travel documents to review", Count: len(travel), Link: "/admin/approvals?tab=travel&status=pending"},
			dashboardCard{Title: "Employment documents to review", Count: len(employment), Link: "/admin/approvals?tab=employment&status=pending"},
			dashboardCard{Title: "Certificates to verify", Count: countStatus(certs, models.StatusPending), Link: "/admin/approvals?tab=certificates&status=pending"},
		)
	}

	if sess.HasPermission(registry.PermDebriefings) {
		forms, err := s.svc.Debriefings.List(ctx, models.StatusPending)
		if errs.check(err) {
			return
		}
		cards = append(cards, dashboardCard{Title: "Debriefings to review", Count: len(forms), Link: "/admin/debriefings?status=pending"})
	}

	if sess.HasPermission(registry.PermProfileRequests) {
		reqs, err := s.svc.ProfileRequests.List(ctx, models.StatusPending)
		if errs.check(err) {
			return
		}
		cards = append(cards, dashboardCard{Title: "Profile requests", Count: len(reqs), Link: "/admin/profile-requests?status=pending"})
	}

	if sess.HasPermission(registry.PermSupport) {
		tickets, err := s.svc.Support.List(ctx, models.TicketOpen)
		if errs.check(err) {
			return
		}
		cards = append(cards, dashboardCard{Title: "Open support tickets", Count: len(tickets), Link: "/admin/support?status=open"})
	}

	s.renderPage(c, http.StatusOK, "admin_dashboard.html", PageData{Title: "Dashboard", Error: errs.msg, Data: cards})
}

// ==========================
// Appointments
// ==========================

type adminAppointmentsView struct {
	List     listView[models.Appointment]
	Date     string
	Statuses []string
}

func (s *Server) handleAdminAppointments(c *gin.Context) {
	errs := &loadErrors{s: s, c: c}
	q := listing.ParseQuery(c.Request.URL.Query())
	date := strings.TrimSpace(c.Query("date"))

	list, err := s.svc.Appointments.List(c.Request.Context(), appointment.Filter{Status: q.Status, Date: date})
	if errs.check(err) {
		return
	}
	view := adminAppointmentsView{
		List:     newListView(list, q, models.AppointmentStatuses, []string{"date", "crew", "status", "created"}).with(map[string]string{"date": date}),
		Date:     date,
		Statuses: models.AppointmentStatuses,
	}
	s.renderPage(c, http.StatusOK, "admin_appointments.html", PageData{Title: "Appointments", Error: errs.msg, Data: view})
}

func (s *Server) handleAppointmentStatus(c *gin.Context) {
	status := c.PostForm("status")
	back := "/admin/appointments"
	if _, err := s.svc.Appointments.UpdateStatus(c.Request.Context(), idParam(c), status, c.PostForm("remarks")); err != nil {
		s.fail(c, err, back)
		return
	}
	s.succeed(c, "Appointment marked "+strings.ReplaceAll(status, "_", " "), back)
}

// ==========================
// Approvals
// ==========================

func (s *Server) handleApprovals(c *gin.Context) {
	ctx := c.Request.Context()
	errs := &loadErrors{s: s, c: c}
	q := listing.ParseQuery(c.Request.URL.Query())
	view := documentsView{Tab: documentTab(c)}
	extra := map[string]string{"tab": view.Tab}

	switch view.Tab {
	case tabTravel:
		docs, err := s.svc.TravelDocs.List(ctx, "")
		if errs.check(err) {
			return
		}
		view.Travel = newListView(docs, q, models.ApprovalStatuses, []string{"created", "crew", "expiry", "type"}).with(extra)
	case tabEmployment:
		docs, err := s.svc.EmploymentDocs.List(ctx, "")
		if errs.check(err) {
			return
		}
		view.Employment = newListView(docs, q, models.ApprovalStatuses, []string{"created", "crew", "title"}).with(extra)
	case tabCertificates:
		certs, err := s.svc.Certificates.List(ctx, models.ID(c.Query("crewId")))
		if errs.check(err) {
			return
		}
		extra["crewId"] = c.Query("crewId")
		view.Certificates = newListView(certs, q, models.ApprovalStatuses, []string{"created", "crew", "name", "expiry"}).with(extra)
	}

	s.renderPage(c, http.StatusOK, "admin_approvals.html", PageData{Title: "Document Approvals", Error: errs.msg, Data: view})
}

func (s *Server) handleApprovalDecision(c *gin.Context) {
	ctx := c.Request.Context()
	kind := c.Param("kind")
	id := idParam(c)
	d := decisionFrom(c)
	back := "/admin/approvals?tab=" + kind

	var (
		err      error
		resource string
	)
	switch kind {
	case tabTravel:
		resource = services.ResourceTravelDocument
		_, err = s.svc.TravelDocs.Review(ctx, id, d)
	case tabEmployment:
		resource = services.ResourceEmploymentDocument
		_, err = s.svc.EmploymentDocs.Review(ctx, id, d)
	case tabCertificates:
		resource = services.ResourceCertificate
		_, err = s.svc.Certificates.Verify(ctx, id, d)
	default:
		s.fail(c, apperrors.NewResourceNotFoundError("Document type", "kind: "+kind), "/admin/approvals")
		return
	}
	if err != nil {
		s.fail(c, err, back)
		return
	}
	s.obs.RecordReview(ctx, resource, d.Status)
	s.succeed(c, "Document "+d.Status, back)
}

// ==========================
// Debriefings and profile requests
// ==========================

func (s *Server) handleAdminDebriefings(c *gin.Context) {
	errs := &loadErrors{s: s, c: c}
	q := listing.ParseQuery(c.Request.URL.Query())
	forms, err := s.svc.Debriefings.List(c.Request.Context(), q.Status)
	if errs.check(err) {
		return
	}
	view := newListView(forms, q, models.ApprovalStatuses, []string{"submitted", "crew", "vessel", "rating", "signOff"})
	s.renderPage(c, http.StatusOK, "admin_debriefings.html", PageData{Title: "Debriefings", Error: errs.msg, Data: view})
}

type debriefingView struct {
	Form      *models.DebriefingForm
	Questions []question
}

func (s *Server) handleAdminDebriefing(c *gin.Context) {
	form, err := s.svc.Debriefings.Get(c.Request.Context(), idParam(c))
	if err != nil {
		s.fail(c, err, "/admin/debriefings")
		return
	}
	s.render(c, http.StatusOK, "admin_debriefing.html", "Debriefing "+form.VesselName, debriefingView{Form: form, Questions: debriefingQuestions})
}

func (s *Server) handleDebriefingReview(c *gin.Context) {
	ctx := c.Request.Context()
	id := idParam(c)
	d := decisionFrom(c)
	if _, err := s.svc.Debriefings.Review(ctx, id, d); err != nil {
		s.fail(c, err, "/admin/debriefings/"+string(id))
		return
	}
	s.obs.RecordReview(ctx, services.ResourceDebriefing, d.Status)
	s.succeed(c, "Debriefing "+d.Status, "/admin/debriefings")
}

func (s *Server) handleAdminProfileRequests(c *gin.Context) {
	errs := &loadErrors{s: s, c: c}
	q := listing.ParseQuery(c.Request.URL.Query())
	reqs, err := s.svc.ProfileRequests.List(c.Request.Context(), q.Status)
	if errs.check(err) {
		return
	}
	view := newListView(reqs, q, models.ApprovalStatuses, []string{"created", "crew"})
	s.renderPage(c, http.StatusOK, "admin_profile_requests.html", PageData{Title: "Profile Requests", Error: errs.msg, Data: view})
}

func (s *Server) handleProfileRequestReview(c *gin.Context) {
	ctx := c.Request.Context()
	d := decisionFrom(c)
	if _, err := s.svc.ProfileRequests.Review(ctx, idParam(c), d); err != nil {
		s.fail(c, err, "/admin/profile-requests")
		return
	}
	s.obs.RecordReview(ctx, services.ResourceProfileRequest, d.Status)
	s.succeed(c, "Profile request "+d.Status, "/admin/profile-requests")
}

// ==========================
// Admins and roles
// ==========================

func adminInputFrom(c *gin.Context) models.AdminInput {
	return models.AdminInput{
		Name:     c.PostForm("name"),
		Email:    c.PostForm("email"),
		Phone:    c.PostForm("phone"),
		Password: c.PostForm("password"),
	}
}

func (s *Server) handleAdmins(c *gin.Context) {
	errs := &loadErrors{s: s, c: c}
	admins, err := s.svc.Admins.List(c.Request.Context())
	if errs.check(err) {
		return
	}
	view := newListView(admins, listing.ParseQuery(c.Request.URL.Query()), []string{"active", "inactive"}, []string{"name", "email", "created"})
	s.renderPage(c, http.StatusOK, "admin_admins.html", PageData{Title: "Admins", Error: errs.msg, Data: view})
}

func (s *Server) handleCreateAdmin(c *gin.Context) {
	a, err := s.svc.Admins.Create(c.Request.Context(), adminInputFrom(c))
	if err != nil {
		s.fail(c, err, "/admin/admins")
		return
	}
	s.succeed(c, "Admin "+a.Name+" created", "/admin/admins/"+string(a.ID))
}

type adminView struct {
	Admin       *models.Admin
	Assignments []models.AdminRole
	Roles       []models.Role
	Self        bool
}

func (s *Server) handleAdmin(c *gin.Context) {
	ctx := c.Request.Context()
	id := idParam(c)

	a, err := s.svc.Admins.Get(ctx, id)
	if err != nil {
		s.fail(c, err, "/admin/admins")
		return
	}
	errs := &loadErrors{s: s, c: c}
	view := adminView{Admin: a, Self: a.ID == currentSession(c).UserID}

	assignments, err := s.svc.Roles.Assignments(ctx, id)
	if errs.check(err) {
		return
	}
	view.Assignments = assignments

	roles, err := s.svc.Roles.List(ctx)
	if errs.check(err) {
		return
	}
	view.Roles = roles

	s.renderPage(c, http.StatusOK, "admin_admin.html", PageData{Title: a.Name, Error: errs.msg, Data: view})
}

func (s *Server) handleUpdateAdmin(c *gin.Context) {
	id := idParam(c)
	back := "/admin/admins/" + string(id)
	if _, err := s.svc.Admins.Update(c.Request.Context(), id, adminInputFrom(c)); err != nil {
		s.fail(c, err, back)
		return
	}
	s.succeed(c, "Admin updated", back)
}

func (s *Server) handleAdminStatus(c *gin.Context) {
	id := idParam(c)
	back := "/admin/admins/" + string(id)
	active := c.PostForm("active") == "true"
	if _, err := s.svc.Admins.SetActive(c.Request.Context(), id, active); err != nil {
		s.fail(c, err, back)
		return
	}
	text := "Admin deactivated"
	if active {
		text = "Admin activated"
	}
	s.succeed(c, text, back)
}

type rolesView struct {
	List        listView[models.Role]
	Permissions []string
}

func (s *Server) handleRoles(c *gin.Context) {
	errs := &loadErrors{s: s, c: c}
	roles, err := s.svc.Roles.List(c.Request.Context())
	if errs.check(err) {
		return
	}
	view := rolesView{
		List:        newListView(roles, listing.ParseQuery(c.Request.URL.Query()), nil, []string{"name"}),
		Permissions: append([]string{"*"}, registry.Permissions...),
	}
	s.renderPage(c, http.StatusOK, "admin_roles.html", PageData{Title: "Roles", Error: errs.msg, Data: view})
}

func roleInputFrom(c *gin.Context) models.RoleInput {
	return models.RoleInput{
		Name:        c.PostForm("name"),
		Description: strings.TrimSpace(c.PostForm("description")),
		Permissions: c.PostFormArray("permissions"),
	}
}

func (s *Server) handleCreateRole(c *gin.Context) {
	r, err := s.svc.Roles.Create(c.Request.Context(), roleInputFrom(c))
	if err != nil {
		s.fail(c, err, "/admin/roles")
		return
	}
	s.succeed(c, "Role "+r.Name+" created", "/admin/roles")
}

func (s *Server) handleUpdateRole(c *gin.Context) {
	if _, err := s.svc.Roles.Update(c.Request.Context(), idParam(c), roleInputFrom(c)); err != nil {
		s.fail(c, err, "/admin/roles")
		return
	}
	s.succeed(c, "Role updated", "/admin/roles")
}

func (s *Server) handleDeleteRole(c *gin.Context) {
	if err := s.svc.Roles.Delete(c.Request.Context(), idParam(c)); err != nil {
		s.fail(c, err, "/admin/roles")
		return
	}
	s.succeed(c, "Role deleted", "/admin/roles")
}

func (s *Server) handleAssignRole(c *gin.Context) {
	adminID := models.ID(c.PostForm("adminId"))
	back := "/admin/admins/" + string(adminID)
	if _, err := s.svc.Roles.Assign(c.Request.Context(), adminID, models.ID(c.PostForm("roleId"))); err != nil {
		s.fail(c, err, back)
		return
	}
	s.succeed(c, "Role assigned", back)
}

func (s *Server) handleRevokeRole(c *gin.Context) {
	back := "/admin/admins/" + c.PostForm("adminId")
	if err := s.svc.Roles.Revoke(c.Request.Context(), idParam(c)); err != nil {
		s.fail(c, err, back)
		return
	}
	s.succeed(c, "Role revoked", back)
}

// ==========================
// Support and audit
// ==========================

func (s *Server) handleAdminSupport(c *gin.Context) {
	errs := &loadErrors{s: s, c: c}
	q := listing.ParseQuery(c.Request.URL.Query())
	tickets, err := s.svc.Support.List(c.Request.Context(), q.Status)
	if errs.check(err) {
		return
	}
	view := supportView{List: newListView(tickets, q, models.TicketStatuses, ticketSorts)}
	if n, err := s.poller.Unread(c.Request.Context(), currentSession(c).Viewer()); err == nil {
		view.Unread = n
	}
	s.renderPage(c, http.StatusOK, "admin_support.html", PageData{Title: "Support", Error: errs.msg, Data: view})
}

func (s *Server) handleTicketStatus(c *gin.Context) {
	id := idParam(c)
	status := c.PostForm("status")
	back := "/admin/support/" + string(id)
	if _, err := s.svc.Support.SetStatus(c.Request.Context(), id, status); err != nil {
		s.fail(c, err, back)
		return
	}
	s.succeed(c, "Ticket marked "+status, back)
}

type auditView struct {
	Enabled bool
	Entries []audit.Entry
	Pager   Pager
	Filters Filters
}

var auditActions = []string{
	services.ActionReview, services.ActionStatus, services.ActionAssign, services.ActionRevoke,
	services.ActionActivate, services.ActionDeactivate, services.ActionClose,
	services.ActionCreate, services.ActionDelete,
}

func (s *Server) handleAudit(c *gin.Context) {
	if s.audit == nil {
		s.render(c, http.StatusOK, "admin_audit.html", "Audit Trail", auditView{})
		return
	}
	errs := &loadErrors{s: s, c: c}
	q := listing.ParseQuery(c.Request.URL.Query())
	page, err := s.audit.List(c.Request.Context(), q)
	if errs.check(err) {
		return
	}
	view := auditView{
		Enabled: true,
		Entries: page.Items,
		Pager:   pagerOf(page),
		Filters: Filters{Query: page.Query, Statuses: auditActions},
	}
	s.renderPage(c, http.StatusOK, "admin_audit.html", PageData{Title: "Audit Trail", Error: errs.msg, Data: view})
}
