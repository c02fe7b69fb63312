package web

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/listing"
	"crew-portal/internal/models"
)

const dateLayout = "2006-01-02"

var appointmentSorts = []string{"date", "status", "created"}

// profileFields are the fields a crew member may ask to change.
var profileFields = []string{"name", "email", "phone", "address", "rank", "nationality", "dateOfBirth", "emergencyContact"}

type question struct {
	Key  string
	Text string
}

var debriefingQuestions = []question{
	{Key: "safety", Text: "How were safety practices on board?"},
	{Key: "accommodation", Text: "How were accommodation and provisions?"},
	{Key: "training", Text: "Was the onboard training adequate?"},
	{Key: "rejoin", Text: "Would you rejoin this vessel, and why?"},
}

func idParam(c *gin.Context) models.ID {
	return models.ID(strings.TrimSpace(c.Param("id")))
}

// loadErrors collects the first load error of a page that makes several
// backend calls.
type loadErrors struct {
	s    *Server
	c    *gin.Context
	msg  string
	stop bool
}

// check records err and reports whether the page must stop rendering.
func (l *loadErrors) check(err error) bool {
	if err == nil || l.stop {
		return l.stop
	}
	msg, stop := l.s.loadFailed(l.c, err)
	if l.msg == "" {
		l.msg = msg
	}
	l.stop = stop
	return stop
}

// ==========================
// Dashboard
// ==========================

type crewDashboardView struct {
	Upcoming         []models.Appointment
	PendingDocuments int
	Certificates     int
	OpenTickets      int
	Unread           int
}

func (s *Server) handleCrewDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	sess := currentSession(c)
	errs := &loadErrors{s: s, c: c}
	var view crewDashboardView

	appointments, err := s.svc.Appointments.ListMine(ctx)
	if errs.check(err) {
		return
	}
	view.Upcoming = upcoming(appointments, s.now().Format(dateLayout), 5)

	travel, err := s.svc.TravelDocs.ListMine(ctx)
	if errs.check(err) {
		return
	}
	employment, err := s.svc.EmploymentDocs.ListMine(ctx)
	if errs.check(err) {
		return
	}
	certificates, err := s.svc.Certificates.ListMine(ctx)
	if errs.check(err) {
		return
	}
	view.Certificates = len(certificates)
	view.PendingDocuments = countStatus(travel, models.StatusPending) +
		countStatus(employment, models.StatusPending) +
		countStatus(certificates, models.StatusPending)

	tickets, err := s.svc.Support.ListMine(ctx)
	if errs.check(err) {
		return
	}
	view.OpenTickets = len(tickets) - countStatus(tickets, models.TicketClosed)

	if n, err := s.poller.Unread(ctx, sess.Viewer()); err == nil {
		view.Unread = n
	}

	s.renderPage(c, http.StatusOK, "crew_dashboard.html", PageData{Title: "Dashboard", Error: errs.msg, Data: view})
}

// upcoming returns up to limit pending or confirmed appointments from today
// on, soonest first.
func upcoming(all []models.Appointment, today string, limit int) []models.Appointment {
	var out []models.Appointment
	for _, a := range all {
		if a.Date < today {
			continue
		}
		if a.Status == models.AppointmentPending || a.Status == models.AppointmentConfirmed {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date+out[i].StartTime < out[j].Date+out[j].StartTime
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func countStatus[T listing.Item](items []T, status string) int {
	n := 0
	for _, it := range items {
		if it.FilterStatus() == status {
			n++
		}
	}
	return n
}

// ==========================
// Appointments
// ==========================

type crewAppointmentsView struct {
	List  listView[models.Appointment]
	Date  string
	Today string
	Slots []models.Slot
}

func (s *Server) handleCrewAppointments(c *gin.Context) {
	ctx := c.Request.Context()
	errs := &loadErrors{s: s, c: c}
	view := crewAppointmentsView{
		Date:  strings.TrimSpace(c.Query("date")),
		Today: s.now().Format(dateLayout),
	}

	appointments, err := s.svc.Appointments.ListMine(ctx)
	if errs.check(err) {
		return
	}
	view.List = newListView(appointments, listing.ParseQuery(c.Request.URL.Query()), models.AppointmentStatuses, appointmentSorts).
		with(map[string]string{"date": view.Date})

	if view.Date != "" {
		slots, err := s.svc.Appointments.AvailableSlots(ctx, view.Date, s.now())
		if errs.check(err) {
			return
		}
		view.Slots = slots
	}

	s.renderPage(c, http.StatusOK, "crew_appointments.html", PageData{Title: "Appointments", Error: errs.msg, Data: view})
}

// handleBookAppointment books one of the free slots shown for a date. The
// slot is looked up again so a slot taken in the meantime is refused here.
func (s *Server) handleBookAppointment(c *gin.Context) {
	ctx := c.Request.Context()
	date := strings.TrimSpace(c.PostForm("date"))
	slotID := models.ID(c.PostForm("slotId"))
	back := "/crew/appointments?date=" + date

	slots, err := s.svc.Appointments.AvailableSlots(ctx, date, s.now())
	if err != nil {
		s.fail(c, err, back)
		return
	}
	var chosen *models.Slot
	for i := range slots {
		if slots[i].ID == slotID {
			chosen = &slots[i]
			break
		}
	}
	if chosen == nil {
		s.fail(c, apperrors.NewValidationError("That slot is no longer available", "slotId: "+string(slotID)), back)
		return
	}

	_, err = s.svc.Appointments.Book(ctx, models.BookRequest{
		SlotID:    chosen.ID,
		Date:      chosen.Date,
		StartTime: chosen.StartTime,
		EndTime:   chosen.EndTime,
		Purpose:   c.PostForm("purpose"),
		Notes:     strings.TrimSpace(c.PostForm("notes")),
	})
	if err != nil {
		s.fail(c, err, back)
		return
	}
	s.succeed(c, "Appointment booked for "+chosen.Date+" at "+chosen.StartTime, "/crew/appointments")
}

func (s *Server) handleCancelAppointment(c *gin.Context) {
	if _, err := s.svc.Appointments.Cancel(c.Request.Context(), idParam(c), c.PostForm("reason")); err != nil {
		s.fail(c, err, "/crew/appointments")
		return
	}
	s.succeed(c, "Appointment cancelled", "/crew/appointments")
}

func (s *Server) handleRescheduleAppointment(c *gin.Context) {
	a, err := s.svc.Appointments.Reschedule(c.Request.Context(), idParam(c), models.ID(c.PostForm("slotId")))
	if err != nil {
		s.fail(c, err, "/crew/appointments")
		return
	}
	s.succeed(c, "Appointment moved to "+a.Date+" at "+a.StartTime, "/crew/appointments")
}

func (s *Server) handleFreeSlots(c *gin.Context) {
	slots, err := s.svc.Appointments.AvailableSlots(c.Request.Context(), c.Query("date"), s.now())
	if err != nil {
		s.errors.HandleAPIError(c, err)
		return
	}
	if slots == nil {
		slots = []models.Slot{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": slots})
}

// ==========================
// Documents
// ==========================

const (
	tabTravel       = "travel"
	tabEmployment   = "employment"
	tabCertificates = "certificates"
)

func documentTab(c *gin.Context) string {
	switch t := c.Query("tab"); t {
	case tabEmployment, tabCertificates:
		return t
	default:
		return tabTravel
	}
}

type documentsView struct {
	Tab             string
	Travel          listView[models.TravelDocument]
	Employment      listView[models.EmploymentDocument]
	Certificates    listView[models.Certificate]
	TravelTypes     []string
	EmploymentTypes []string
}

func (s *Server) handleCrewDocuments(c *gin.Context) {
	ctx := c.Request.Context()
	errs := &loadErrors{s: s, c: c}
	q := listing.ParseQuery(c.Request.URL.Query())
	view := documentsView{
		Tab:             documentTab(c),
		TravelTypes:     models.TravelDocumentTypes,
		EmploymentTypes: models.EmploymentDocumentTypes,
	}
	extra := map[string]string{"tab": view.Tab}

	switch view.Tab {
	case tabTravel:
		docs, err := s.svc.TravelDocs.ListMine(ctx)
		if errs.check(err) {
			return
		}
		view.Travel = newListView(docs, q, models.ApprovalStatuses, []string{"created", "expiry", "type"}).with(extra)
	case tabEmployment:
		docs, err := s.svc.EmploymentDocs.ListMine(ctx)
		if errs.check(err) {
			return
		}
		view.Employment = newListView(docs, q, models.ApprovalStatuses, []string{"created", "title"}).with(extra)
	case tabCertificates:
		certs, err := s.svc.Certificates.ListMine(ctx)
		if errs.check(err) {
			return
		}
		view.Certificates = newListView(certs, q, models.ApprovalStatuses, []string{"created", "name", "expiry"}).with(extra)
	}

	s.renderPage(c, http.StatusOK, "crew_documents.html", PageData{Title: "Documents", Error: errs.msg, Data: view})
}

func travelInputFrom(c *gin.Context) models.TravelDocumentInput {
	return models.TravelDocumentInput{
		DocumentType:   c.PostForm("documentType"),
		DocumentNumber: c.PostForm("documentNumber"),
		IssuingCountry: c.PostForm("issuingCountry"),
		IssueDate:      c.PostForm("issueDate"),
		ExpiryDate:     c.PostForm("expiryDate"),
		FileURL:        strings.TrimSpace(c.PostForm("fileUrl")),
	}
}

func (s *Server) handleCreateTravelDocument(c *gin.Context) {
	back := "/crew/documents?tab=" + tabTravel
	if _, err := s.svc.TravelDocs.Create(c.Request.Context(), travelInputFrom(c)); err != nil {
		s.fail(c, err, back)
		return
	}
	s.succeed(c, "Travel document submitted for approval", back)
}

func (s *Server) handleUpdateTravelDocument(c *gin.Context) {
	back := "/crew/documents?tab=" + tabTravel
	if _, err := s.svc.TravelDocs.Update(c.Request.Context(), idParam(c), travelInputFrom(c)); err != nil {
		s.fail(c, err, back)
		return
	}
	s.succeed(c, "Travel document updated", back)
}

func (s *Server) handleDeleteTravelDocument(c *gin.Context) {
	back := "/crew/documents?tab=" + tabTravel
	if err := s.svc.TravelDocs.Delete(c.Request.Context(), idParam(c)); err != nil {
		s.fail(c, err, back)
		return
	}
	s.succeed(c, "Travel document deleted", back)
}

func (s *Server) handleCreateEmploymentDocument(c *gin.Context) {
	back := "/crew/documents?tab=" + tabEmployment
	_, err := s.svc.EmploymentDocs.Create(c.Request.Context(), models.EmploymentDocumentInput{
		DocumentType: c.PostForm("documentType"),
		Title:        c.PostForm("title"),
		FileURL:      strings.TrimSpace(c.PostForm("fileUrl")),
	})
	if err != nil {
		s.fail(c, err, back)
		return
	}
	s.succeed(c, "Employment document submitted for approval", back)
}

func (s *Server) handleCreateCertificate(c *gin.Context) {
	back := "/crew/documents?tab=" + tabCertificates
	_, err := s.svc.Certificates.Create(c.Request.Context(), models.CertificateInput{
		Name:              c.PostForm("name"),
		CertificateNumber: c.PostForm("certificateNumber"),
		IssuingAuthority:  c.PostForm("issuingAuthority"),
		IssueDate:         c.PostForm("issueDate"),
		ExpiryDate:        c.PostForm("expiryDate"),
		FileURL:           strings.TrimSpace(c.PostForm("fileUrl")),
	})
	if err != nil {
		s.fail(c, err, back)
		return
	}
	s.succeed(c, "Certificate submitted for verification", back)
}

func (s *Server) handleDeleteCertificate(c *gin.Context) {
	back := "/crew/documents?tab=" + tabCertificates
	if err := s.svc.Certificates.Delete(c.Request.Context(), idParam(c)); err != nil {
		s.fail(c, err, back)
		return
	}
	s.succeed(c, "Certificate deleted", back)
}

// ==========================
// Debriefing and profile
// ==========================

type crewDebriefingView struct {
	List      listView[models.DebriefingForm]
	Questions []question
}

func (s *Server) handleCrewDebriefing(c *gin.Context) {
	errs := &loadErrors{s: s, c: c}
	forms, err := s.svc.Debriefings.ListMine(c.Request.Context())
	if errs.check(err) {
		return
	}
	view := crewDebriefingView{
		List:      newListView(forms, listing.ParseQuery(c.Request.URL.Query()), models.ApprovalStatuses, []string{"submitted", "signOff", "vessel"}),
		Questions: debriefingQuestions,
	}
	s.renderPage(c, http.StatusOK, "crew_debriefing.html", PageData{Title: "Debriefing", Error: errs.msg, Data: view})
}

func (s *Server) handleSubmitDebriefing(c *gin.Context) {
	rating, _ := strconv.Atoi(c.PostForm("overallRating"))
	answers := map[string]string{}
	for _, q := range debriefingQuestions {
		if v := strings.TrimSpace(c.PostForm("answer_" + q.Key)); v != "" {
			answers[q.Key] = v
		}
	}

	_, err := s.svc.Debriefings.Submit(c.Request.Context(), models.DebriefingSubmission{
		VesselName:           strings.TrimSpace(c.PostForm("vesselName")),
		SignOnDate:           c.PostForm("signOnDate"),
		SignOffDate:          c.PostForm("signOffDate"),
		PortOfDisembarkation: strings.TrimSpace(c.PostForm("portOfDisembarkation")),
		OverallRating:        rating,
		Comments:             strings.TrimSpace(c.PostForm("comments")),
		Answers:              answers,
	})
	if err != nil {
		s.fail(c, err, "/crew/debriefing")
		return
	}
	s.succeed(c, "Debriefing form submitted", "/crew/debriefing")
}

type crewProfileView struct {
	List   listView[models.ProfileUpdateRequest]
	Fields []string
}

func (s *Server) handleCrewProfile(c *gin.Context) {
	errs := &loadErrors{s: s, c: c}
	requests, err := s.svc.ProfileRequests.ListMine(c.Request.Context())
	if errs.check(err) {
		return
	}
	view := crewProfileView{
		List:   newListView(requests, listing.ParseQuery(c.Request.URL.Query()), models.ApprovalStatuses, []string{"created"}),
		Fields: profileFields,
	}
	s.renderPage(c, http.StatusOK, "crew_profile.html", PageData{Title: "Profile Updates", Error: errs.msg, Data: view})
}

func (s *Server) handleSubmitProfileRequest(c *gin.Context) {
	changes := map[string]string{}
	for _, f := range profileFields {
		changes[f] = c.PostForm("change_" + f)
	}
	_, err := s.svc.ProfileRequests.Submit(c.Request.Context(), models.ProfileRequestInput{
		Changes: changes,
		Reason:  strings.TrimSpace(c.PostForm("reason")),
	})
	if err != nil {
		s.fail(c, err, "/crew/profile")
		return
	}
	s.succeed(c, "Profile update request submitted", "/crew/profile")
}

// ==========================
// Support
// ==========================

var ticketSorts = []string{"updated", "subject", "created"}

type supportView struct {
	List       listView[models.SupportTicket]
	Categories []string
	Unread     int
}

func (s *Server) handleCrewSupport(c *gin.Context) {
	ctx := c.Request.Context()
	errs := &loadErrors{s: s, c: c}
	tickets, err := s.svc.Support.ListMine(ctx)
	if errs.check(err) {
		return
	}
	view := supportView{
		List:       newListView(tickets, listing.ParseQuery(c.Request.URL.Query()), models.TicketStatuses, ticketSorts),
		Categories: models.TicketCategories,
	}
	if n, err := s.poller.Unread(ctx, currentSession(c).Viewer()); err == nil {
		view.Unread = n
	}
	s.renderPage(c, http.StatusOK, "crew_support.html", PageData{Title: "Support", Error: errs.msg, Data: view})
}

func (s *Server) handleOpenTicket(c *gin.Context) {
	t, err := s.svc.Support.Open(c.Request.Context(), models.TicketInput{
		Subject:  strings.TrimSpace(c.PostForm("subject")),
		Category: c.PostForm("category"),
		Message:  strings.TrimSpace(c.PostForm("message")),
	})
	if err != nil {
		s.fail(c, err, "/crew/support")
		return
	}
	s.succeed(c, "Support ticket opened", "/crew/support/"+string(t.ID))
}

type threadView struct {
	TicketID models.ID
	Messages []models.ChatMessage
	Base     string
	Statuses []string
}

// handleTicketThread serves the chat view on both surfaces and marks the
// ticket read for the viewer.
func (s *Server) handleTicketThread(c *gin.Context) {
	ctx := c.Request.Context()
	sess := currentSession(c)
	id := idParam(c)
	errs := &loadErrors{s: s, c: c}

	messages, err := s.svc.Support.Messages(ctx, id)
	if errs.check(err) {
		return
	}
	if errs.msg == "" {
		if err := s.svc.Support.MarkRead(ctx, id); err != nil {
			s.errors.Log(c, err)
		}
	}

	view := threadView{
		TicketID: id,
		Messages: messages,
		Base:     "/" + sess.Role + "/support",
		Statuses: models.TicketStatuses,
	}
	s.renderPage(c, http.StatusOK, "support_thread.html", PageData{Title: "Ticket #" + string(id), Error: errs.msg, Data: view})
}

func (s *Server) handleTicketReply(c *gin.Context) {
	sess := currentSession(c)
	id := idParam(c)
	back := "/" + sess.Role + "/support/" + string(id)
	if _, err := s.svc.Support.Reply(c.Request.Context(), id, c.PostForm("body")); err != nil {
		s.fail(c, err, back)
		return
	}
	c.Redirect(http.StatusSeeOther, back)
}
