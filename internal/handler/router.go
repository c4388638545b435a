package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/deskinspect/deskinspect-api/internal/middleware"
	"github.com/deskinspect/deskinspect-api/internal/models"
	"github.com/deskinspect/deskinspect-api/internal/service"
)

// Handlers groups every HTTP handler for route registration.
type Handlers struct {
	Auth          *AuthHandler
	Thesis        *ThesisHandler
	Notifications *NotificationHandler
	Events        *EventHandler
	Folders       *FolderHandler
	Reports       *ReportHandler
	Dashboard     *DashboardHandler
}

// RegisterRoutes mounts the API surface under the prefix. Submission and
// lookup routes mirror the client's public flows; admin and faculty surfaces
// sit behind JWT + RBAC.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService, dashboardEnabled bool) {
	api := r.Group(prefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/register", h.Auth.Register)
		authGroup.GET("/profile", middleware.JWT(auth), h.Auth.Profile)
		authGroup.PUT("/profile", middleware.JWT(auth), h.Auth.UpdateProfile)
	}

	thesis := api.Group("/thesis")
	{
		thesis.POST("/submit", h.Thesis.Submit)
		thesis.POST("/resubmit", h.Thesis.Resubmit)
		thesis.GET("/supervisors", h.Thesis.Supervisors)
		thesis.GET("/resubmission-status/:studentId", h.Thesis.ResubmissionStatus)
		thesis.GET("/student/:studentId", h.Thesis.LatestByStudent)
		thesis.GET("", h.Thesis.List)
		thesis.GET("/:id", h.Thesis.Get)
		thesis.GET("/:id/versions", h.Thesis.VersionHistory)

		faculty := thesis.Group("", middleware.JWT(auth), middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin))
		{
			faculty.POST("/request-resubmission", h.Thesis.RequestResubmission)
			faculty.GET("/supervisor/:facultyId", h.Thesis.ListBySupervisor)
			faculty.PUT("/:id/status", h.Thesis.UpdateStatus)
		}
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", h.Notifications.List)
		notifications.GET("/counts", h.Notifications.Counts)
		notifications.POST("/deliver/:email", h.Notifications.Deliver)
		notifications.PUT("/:id/read", h.Notifications.MarkRead)
		notifications.PUT("/read-all", h.Notifications.MarkAllRead)
		notifications.DELETE("/:id", h.Notifications.Delete)
		notifications.POST("", middleware.JWT(auth), middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), h.Notifications.Create)
	}

	events := api.Group("/events")
	{
		events.GET("", h.Events.List)
		events.GET("/:id", h.Events.Get)

		admin := events.Group("", middleware.JWT(auth), middleware.RequireRoles(models.RoleAdmin))
		{
			admin.POST("", h.Events.Create)
			admin.PUT("/:id", h.Events.Update)
			admin.DELETE("/:id", h.Events.Delete)
		}
	}

	folders := api.Group("/folders", middleware.JWT(auth))
	{
		folders.GET("/schedules", middleware.RequireRoles(models.RoleAdmin), h.Folders.Schedules)
		folders.POST("/:eventId/provision", middleware.RequireRoles(models.RoleAdmin), h.Folders.Provision)
		folders.GET("/:eventId", h.Folders.Get)
		folders.GET("/:eventId/access", h.Folders.Access)
	}

	reports := api.Group("/reports", middleware.JWT(auth))
	{
		reports.POST("", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), h.Reports.Save)
		reports.POST("/:id/send", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), h.Reports.Send)
		reports.DELETE("/:id", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), h.Reports.Delete)
		reports.GET("/faculty/:facultyId", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), h.Reports.ListByFaculty)
		reports.GET("/student/:studentId", h.Reports.ListByStudent)
		reports.GET("/:id", h.Reports.Get)
		reports.GET("/:id/pdf", h.Reports.Download)
	}

	if dashboardEnabled {
		dashboard := api.Group("/dashboard", middleware.JWT(auth), middleware.RequireRoles(models.RoleAdmin))
		{
			dashboard.GET("/progress", h.Dashboard.Progress)
			dashboard.GET("/progress/export", h.Dashboard.ExportProgress)
			dashboard.GET("/stats", h.Dashboard.Stats)
		}
	}
}
