package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sqipit/internal/auth"
	"sqipit/internal/directory"
	"sqipit/internal/errs"
	"sqipit/internal/queue"
	"sqipit/internal/rbac"
	"sqipit/internal/reporting"
	"sqipit/internal/subscriptions"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth          *auth.Manager
	Queues        *queue.Service
	Directory     *directory.DirectoryService
	Subscriptions *subscriptions.Service
	Reports       *reporting.Service
}

func principal(c *gin.Context) rbac.Principal {
	return rbac.PrincipalFromContext(c.Request.Context())
}

// --- Auth ---

type loginRequest struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Invalid("invalid json"))
		return
	}
	if req.UserID == "" || req.Role == "" {
		respondError(c, errs.Invalid("user_id and role required"))
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.OrganizationID, req.Role)
	if err != nil {
		respondError(c, errs.Internal("token issuance failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Queues ---

func (h Handlers) CreateQueue(c *gin.Context) {
	var in queue.CreateQueueInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Invalid("invalid json"))
		return
	}
	q, err := h.Queues.CreateQueue(c.Request.Context(), principal(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (h Handlers) CreateEventQueue(c *gin.Context) {
	var in queue.EventQueueInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Invalid("invalid json"))
		return
	}
	q, err := h.Queues.CreateEventQueue(c.Request.Context(), principal(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (h Handlers) CreateQueueWizard(c *gin.Context) {
	var req queue.WizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Invalid("invalid json"))
		return
	}
	res, err := h.Queues.CreateQueueWizard(c.Request.Context(), principal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h Handlers) GetQueue(c *gin.Context) {
	q, err := h.Queues.GetQueue(c.Request.Context(), c.Param("queue_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h Handlers) UpdateQueue(c *gin.Context) {
	var in queue.UpdateQueueInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Invalid("invalid json"))
		return
	}
	q, err := h.Queues.UpdateQueue(c.Request.Context(), principal(c), c.Param("queue_id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h Handlers) DeactivateQueue(c *gin.Context) {
	q, err := h.Queues.DeactivateQueue(c.Request.Context(), principal(c), c.Param("queue_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h Handlers) QueueStatus(c *gin.Context) {
	st, err := h.Queues.QueueStatus(c.Request.Context(), c.Param("queue_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h Handlers) ListActiveQueues(c *gin.Context) {
	p := principal(c)
	orgID := c.Query("organization_id")
	if orgID == "" {
		orgID = p.OrganizationID
	}
	if orgID == "" {
		respondError(c, errs.Invalid("organization_id required"))
		return
	}
	qs, err := h.Queues.ListActiveQueues(c.Request.Context(), orgID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queues": qs})
}

func (h Handlers) ListQueuesByLocation(c *gin.Context) {
	qs, err := h.Queues.ListQueuesByLocation(c.Request.Context(), c.Param("location_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queues": qs})
}

func (h Handlers) ListQueuesByService(c *gin.Context) {
	qs, err := h.Queues.ListQueuesByService(c.Request.Context(), c.Param("service_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queues": qs})
}

func (h Handlers) ListQueuesByEvent(c *gin.Context) {
	qs, err := h.Queues.ListQueuesByEvent(c.Request.Context(), c.Param("event_name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queues": qs})
}

func (h Handlers) ListMobileQueues(c *gin.Context) {
	qs, err := h.Queues.ListMobileQueues(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queues": qs})
}

// --- Queue customers ---

func (h Handlers) AddCustomer(c *gin.Context) {
	var in queue.AddCustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Invalid("invalid json"))
		return
	}
	res, err := h.Queues.AddCustomer(c.Request.Context(), c.Param("queue_id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h Handlers) ListCustomers(c *gin.Context) {
	status := queue.CustomerStatus(c.Query("status"))
	customers, err := h.Queues.ListCustomers(c.Request.Context(), c.Param("queue_id"), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (h Handlers) CallNext(c *gin.Context) {
	called, found, err := h.Queues.CallNext(c.Request.Context(), principal(c), c.Param("queue_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"message": "no customers waiting"})
		return
	}
	c.JSON(http.StatusOK, called)
}

func (h Handlers) GetPosition(c *gin.Context) {
	info, err := h.Queues.GetPosition(c.Request.Context(), c.Param("queue_customer_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h Handlers) CallCustomer(c *gin.Context) {
	called, err := h.Queues.CallByID(c.Request.Context(), principal(c), c.Param("queue_customer_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, called)
}

func (h Handlers) CompleteCustomer(c *gin.Context) {
	done, err := h.Queues.Complete(c.Request.Context(), principal(c), c.Param("queue_customer_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, done)
}

func (h Handlers) CancelCustomer(c *gin.Context) {
	cancelled, err := h.Queues.Cancel(c.Request.Context(), principal(c), c.Param("queue_customer_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cancelled)
}

func (h Handlers) MarkNoShow(c *gin.Context) {
	flagged, err := h.Queues.MarkNoShow(c.Request.Context(), principal(c), c.Param("queue_customer_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flagged)
}

// --- Directory ---

func (h Handlers) CreateLocation(c *gin.Context) {
	var in directory.CreateLocationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Invalid("invalid json"))
		return
	}
	loc, err := h.Directory.CreateLocation(c.Request.Context(), principal(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loc)
}

func (h Handlers) GetLocation(c *gin.Context) {
	loc, err := h.Directory.GetLocation(c.Request.Context(), c.Param("location_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

func (h Handlers) ListLocations(c *gin.Context) {
	p := principal(c)
	if p.OrganizationID == "" {
		respondError(c, errs.Invalid("organization_id required"))
		return
	}
	locs, err := h.Directory.ListLocations(c.Request.Context(), p.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locs})
}

func (h Handlers) DeactivateLocation(c *gin.Context) {
	loc, err := h.Directory.DeactivateLocation(c.Request.Context(), principal(c), c.Param("location_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

func (h Handlers) CreateService(c *gin.Context) {
	var in directory.CreateServiceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Invalid("invalid json"))
		return
	}
	in.LocationID = c.Param("location_id")
	svc, err := h.Directory.CreateService(c.Request.Context(), principal(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

func (h Handlers) ListServices(c *gin.Context) {
	svcs, err := h.Directory.ListServices(c.Request.Context(), c.Param("location_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": svcs})
}

// --- Reports ---

// QueueReport serves the windowed analytics aggregate. The window comes
// from from/to query params in RFC 3339.
func (h Handlers) QueueReport(c *gin.Context) {
	p := principal(c)
	req := reporting.QueueReportRequest{
		OrganizationID: c.Query("organization_id"),
		QueueID:        c.Query("queue_id"),
	}
	if req.OrganizationID == "" {
		req.OrganizationID = p.OrganizationID
	}

	var err error
	if req.Range.From, err = time.Parse(time.RFC3339, c.Query("from")); err != nil {
		respondError(c, errs.Invalid("from must be RFC 3339"))
		return
	}
	if req.Range.To, err = time.Parse(time.RFC3339, c.Query("to")); err != nil {
		respondError(c, errs.Invalid("to must be RFC 3339"))
		return
	}

	rep, err := h.Reports.QueueReport(c.Request.Context(), p, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// --- Billing ---

func (h Handlers) GetQuotaStatus(c *gin.Context) {
	p := principal(c)
	orgID := c.Query("organization_id")
	if orgID == "" {
		orgID = p.OrganizationID
	}
	if orgID == "" {
		respondError(c, errs.Invalid("organization_id required"))
		return
	}
	status, err := h.Subscriptions.GetQuotaStatus(c.Request.Context(), orgID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

type upgradePlanRequest struct {
	OrganizationID string `json:"organization_id"`
	PlanType       string `json:"plan_type"`
	BypassPayment  bool   `json:"bypass_payment"`
}

func (h Handlers) UpgradePlan(c *gin.Context) {
	var req upgradePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Invalid("invalid json"))
		return
	}
	p := principal(c)
	orgID := req.OrganizationID
	if orgID == "" {
		orgID = p.OrganizationID
	}
	sub, err := h.Subscriptions.UpgradePlan(c.Request.Context(), p, orgID, req.PlanType, req.BypassPayment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h Handlers) CancelSubscription(c *gin.Context) {
	p := principal(c)
	orgID := c.Query("organization_id")
	if orgID == "" {
		orgID = p.OrganizationID
	}
	sub, err := h.Subscriptions.CancelSubscription(c.Request.Context(), p, orgID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
