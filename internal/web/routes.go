package web

import (
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) buildEngine() *gin.Engine {
	if s.cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestMetrics(), accessLog(s.logger))
	if mw := corsMiddleware(s.cfg.Server.AllowedOrigins, s.logger); mw != nil {
		r.Use(mw)
	}
	r.Use(s.loadSession(), s.gate())

	if s.cfg.Server.StaticDir != "" {
		r.Static("/static", s.cfg.Server.StaticDir)
	} else {
		staticSub, _ := fs.Sub(staticFS, "static")
		r.StaticFS("/static", http.FS(staticSub))
	}

	r.NoRoute(func(c *gin.Context) {
		s.render(c, http.StatusNotFound, "error.html", "Not found", "The page you are looking for does not exist.")
	})

	// System
	r.GET("/health", s.handleHealth)
	r.GET("/ready", s.handleReady)
	r.GET("/metrics", gin.WrapH(metricsHandler()))

	// Authentication
	r.GET("/", s.handleRoot)
	r.GET(crewLoginPath, s.handleLoginPage)
	r.POST(crewLoginPath, s.handleLogin)
	r.GET(adminLoginPath, s.handleLoginPage)
	r.POST(adminLoginPath, s.handleLogin)
	r.POST("/logout", s.handleLogout)

	// Inbox API
	api := r.Group("/api")
	api.GET("/inbox/unread", s.handleInboxUnread)
	api.GET("/inbox/stream", s.handleInboxStream)
	api.GET("/crew/slots", s.handleFreeSlots)

	crew := r.Group("/crew")
	crew.GET("/dashboard", s.handleCrewDashboard)
	crew.GET("/appointments", s.handleCrewAppointments)
	crew.POST("/appointments", s.handleBookAppointment)
	crew.POST("/appointments/:id/cancel", s.handleCancelAppointment)
	crew.POST("/appointments/:id/reschedule", s.handleRescheduleAppointment)
	crew.GET("/documents", s.handleCrewDocuments)
	crew.POST("/documents/travel", s.handleCreateTravelDocument)
	crew.POST("/documents/travel/:id", s.handleUpdateTravelDocument)
	crew.POST("/documents/travel/:id/delete", s.handleDeleteTravelDocument)
	crew.POST("/documents/employment", s.handleCreateEmploymentDocument)
	crew.POST("/documents/certificates", s.handleCreateCertificate)
	crew.POST("/documents/certificates/:id/delete", s.handleDeleteCertificate)
	crew.GET("/debriefing", s.handleCrewDebriefing)
	crew.POST("/debriefing", s.handleSubmitDebriefing)
	crew.GET("/profile", s.handleCrewProfile)
	crew.POST("/profile", s.handleSubmitProfileRequest)
	crew.GET("/support", s.handleCrewSupport)
	crew.POST("/support", s.handleOpenTicket)
	crew.GET("/support/:id", s.handleTicketThread)
	crew.POST("/support/:id/reply", s.handleTicketReply)

	admin := r.Group("/admin")
	admin.GET("/dashboard", s.handleAdminDashboard)
	admin.GET("/appointments", s.handleAdminAppointments)
	admin.POST("/appointments/:id/status", s.handleAppointmentStatus)
	admin.GET("/approvals", s.handleApprovals)
	admin.POST("/approvals/:kind/:id", s.handleApprovalDecision)
	admin.GET("/debriefings", s.handleAdminDebriefings)
	admin.GET("/debriefings/:id", s.handleAdminDebriefing)
	admin.POST("/debriefings/:id/review", s.handleDebriefingReview)
	admin.GET("/profile-requests", s.handleAdminProfileRequests)
	admin.POST("/profile-requests/:id/review", s.handleProfileRequestReview)
	admin.GET("/admins", s.handleAdmins)
	admin.POST("/admins", s.handleCreateAdmin)
	admin.GET("/admins/:id", s.handleAdmin)
	admin.POST("/admins/:id", s.handleUpdateAdmin)
	admin.POST("/admins/:id/status", s.handleAdminStatus)
	admin.GET("/roles", s.handleRoles)
	admin.POST("/roles", s.handleCreateRole)
	admin.POST("/roles/assign", s.handleAssignRole)
	admin.POST("/roles/assignments/:id/revoke", s.handleRevokeRole)
	admin.POST("/roles/:id", s.handleUpdateRole)
	admin.POST("/roles/:id/delete", s.handleDeleteRole)
	admin.GET("/support", s.handleAdminSupport)
	admin.GET("/support/:id", s.handleTicketThread)
	admin.POST("/support/:id/reply", s.handleTicketReply)
	admin.POST("/support/:id/status", s.handleTicketStatus)
	admin.GET("/audit", s.handleAudit)

	return r
}
