package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"sqipit/internal/auth"
	"sqipit/internal/httpapi"
	"sqipit/internal/rbac"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, m *auth.Manager, rdb *redis.Client) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")

	// Public surface: joining, position checks, discovery. Identity is
	// attached when a token is present so registered users keep their
	// entries linked, but none of these require one.
	public := v1.Group("")
	public.Use(auth.OptionalAccessToken(m))
	{
		public.POST("/auth/login", h.Login)

		public.GET("/queues/:queue_id", h.GetQueue)
		public.GET("/queues/:queue_id/status", h.QueueStatus)
		public.POST("/queues/:queue_id/customers", httpapi.RateLimit(rdb, 20, time.Minute), h.AddCustomer)

		public.GET("/customers/:queue_customer_id/position", h.GetPosition)
		public.POST("/customers/:queue_customer_id/cancel", h.CancelCustomer)

		public.GET("/locations/:location_id", h.GetLocation)
		public.GET("/locations/:location_id/services", h.ListServices)
		public.GET("/locations/:location_id/queues", h.ListQueuesByLocation)
		public.GET("/services/:service_id/queues", h.ListQueuesByService)
		public.GET("/events/:event_name/queues", h.ListQueuesByEvent)
		public.GET("/mobile-queues", h.ListMobileQueues)
	}

	// Staff surface: queue management and line operations.
	staff := v1.Group("")
	staff.Use(auth.RequireAccessToken(m))
	staff.Use(rbac.RequireOrganization())
	staff.Use(rbac.RequireAnyRole(rbac.RoleStaff, rbac.RoleAdmin, rbac.RoleAPIClient))
	{
		staff.GET("/queues", h.ListActiveQueues)
		staff.POST("/queues", h.CreateQueue)
		staff.POST("/queues/event", h.CreateEventQueue)
		staff.POST("/queues/wizard", h.CreateQueueWizard)
		staff.PATCH("/queues/:queue_id", h.UpdateQueue)
		staff.DELETE("/queues/:queue_id", h.DeactivateQueue)
		staff.GET("/queues/:queue_id/customers", h.ListCustomers)
		staff.POST("/queues/:queue_id/call-next", h.CallNext)

		staff.POST("/customers/:queue_customer_id/call", h.CallCustomer)
		staff.POST("/customers/:queue_customer_id/complete", h.CompleteCustomer)
		staff.POST("/customers/:queue_customer_id/no-show", h.MarkNoShow)

		staff.POST("/locations", h.CreateLocation)
		staff.GET("/locations", h.ListLocations)
		staff.DELETE("/locations/:location_id", h.DeactivateLocation)
		staff.POST("/locations/:location_id/services", h.CreateService)

		staff.GET("/reports/queues", h.QueueReport)
	}

	// Billing surface: quota visible to any member, plan changes
	// restricted to admins.
	billing := v1.Group("/billing")
	billing.Use(auth.RequireAccessToken(m))
	billing.Use(rbac.RequireOrganization())
	{
		billing.GET("/quota", h.GetQuotaStatus)

		admin := billing.Group("")
		admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			admin.POST("/upgrade", h.UpgradePlan)
			admin.POST("/cancel", h.CancelSubscription)
		}
	}
}
