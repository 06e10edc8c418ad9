package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"sqipit/internal/audit"
	"sqipit/internal/auth"
	"sqipit/internal/config"
	"sqipit/internal/directory"
	"sqipit/internal/notifications"
	"sqipit/internal/queue"
	"sqipit/internal/rbac"
	"sqipit/internal/subscriptions"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGateway struct{}

func (stubGateway) SendQueueJoinedSMS(context.Context, string, string, string, int, string) (notifications.Result, error) {
	return notifications.Result{Status: notifications.StatusSent}, nil
}

func (stubGateway) SendNextInLineEmail(context.Context, string, string, string, string) (notifications.Result, error) {
	return notifications.Result{Status: notifications.StatusSent}, nil
}

func (stubGateway) SendNextInLineSMS(context.Context, string, string, string, string) (notifications.Result, error) {
	return notifications.Result{Status: notifications.StatusSent}, nil
}

func (stubGateway) SendAlmostYourTurnEmail(context.Context, string, string, string, int, string) (notifications.Result, error) {
	return notifications.Result{Status: notifications.StatusSent}, nil
}

func (stubGateway) SendAlmostYourTurnSMS(context.Context, string, string, string, int, string) (notifications.Result, error) {
	return notifications.Result{Status: notifications.StatusSent}, nil
}

type dirAdapter struct{ dir *directory.DirectoryService }

func (a dirAdapter) Location(ctx context.Context, locationID string) (queue.LocationInfo, error) {
	loc, err := a.dir.GetLocation(ctx, locationID)
	if err != nil {
		return queue.LocationInfo{}, err
	}
	return queue.LocationInfo{LocationID: loc.LocationID, OrganizationID: loc.OrganizationID, Name: loc.Name}, nil
}

func (a dirAdapter) Service(ctx context.Context, serviceID string) (queue.ServiceInfo, error) {
	svc, err := a.dir.GetService(ctx, serviceID)
	if err != nil {
		return queue.ServiceInfo{}, err
	}
	return queue.ServiceInfo{ServiceID: svc.ServiceID, Name: svc.Name, DurationMinutes: svc.DurationMinutes}, nil
}

func testConfig() *config.Config {
	var cfg config.Config
	cfg.Plans.Free = config.PlanLimits{QueueLimit: 5, SMSCredits: 10, DeactivationDays: 30}
	cfg.Plans.Pro = config.PlanLimits{QueueLimit: 20, SMSCredits: 100, DeactivationDays: 90}
	cfg.Plans.Business = config.PlanLimits{QueueLimit: 999, SMSCredits: 500}
	return &cfg
}

// identity injects an authenticated principal, standing in for the JWT
// middleware in route tests.
func identity(userID, orgID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), userID, orgID, role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

type env struct {
	handlers Handlers
	queues   *queue.Service
	dir      *directory.DirectoryService
	location directory.Location
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dirSvc := directory.NewService(directory.NewMemoryRepo())
	subSvc := subscriptions.NewService(subscriptions.NewMemoryRepo(), testConfig())
	auditSvc := audit.NewService(audit.NewMemoryRepo())

	queueSvc := queue.NewService(queue.Deps{
		Repo:      queue.NewMemoryRepo(),
		Directory: dirAdapter{dir: dirSvc},
		Quota:     subSvc,
		Notifier:  stubGateway{},
		Audit:     auditSvc,
	})

	staff := rbac.Principal{UserID: "u-staff", OrganizationID: "org-1", Role: rbac.RoleStaff}
	loc, err := dirSvc.CreateLocation(context.Background(), staff, directory.CreateLocationInput{Name: "Main Branch"})
	if err != nil {
		t.Fatalf("seed location: %v", err)
	}

	return &env{
		handlers: Handlers{Queues: queueSvc, Directory: dirSvc, Subscriptions: subSvc},
		queues:   queueSvc,
		dir:      dirSvc,
		location: loc,
	}
}

func (e *env) seedQueue(t *testing.T, maxCapacity int) queue.Queue {
	t.Helper()
	staff := rbac.Principal{UserID: "u-staff", OrganizationID: "org-1", Role: rbac.RoleStaff}
	q, err := e.queues.CreateQueue(context.Background(), staff, queue.CreateQueueInput{
		Name:                 "Walk-ins",
		LocationID:           e.location.LocationID,
		MaxCapacity:          maxCapacity,
		EstimatedServiceTime: 10,
	})
	if err != nil {
		t.Fatalf("seed queue: %v", err)
	}
	return q
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAddCustomerEndpoint(t *testing.T) {
	e := newEnv(t)
	q := e.seedQueue(t, 0)

	r := gin.New()
	r.POST("/v1/queues/:queue_id/customers", e.handlers.AddCustomer)
	r.GET("/v1/customers/:queue_customer_id/position", e.handlers.GetPosition)

	w := do(r, http.MethodPost, "/v1/queues/"+q.QueueID+"/customers", gin.H{"customer_name": "Alice"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var res queue.JoinResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Position != 1 {
		t.Fatalf("expected position 1, got %d", res.Position)
	}

	w = do(r, http.MethodGet, "/v1/customers/"+res.Entry.QueueCustomerID+"/position", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var info queue.PositionInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.StatusMessage != "You are #1 in line. 0 people ahead of you." {
		t.Fatalf("unexpected message: %q", info.StatusMessage)
	}
}

func TestErrorMapping(t *testing.T) {
	e := newEnv(t)
	q := e.seedQueue(t, 1)

	r := gin.New()
	r.POST("/v1/queues/:queue_id/customers", e.handlers.AddCustomer)
	r.GET("/v1/customers/:queue_customer_id/position", e.handlers.GetPosition)

	// Malformed body.
	req := httptest.NewRequest(http.MethodPost, "/v1/queues/"+q.QueueID+"/customers", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", w.Code)
	}

	// Unknown queue.
	if w := do(r, http.MethodPost, "/v1/queues/nope/customers", gin.H{"customer_name": "A"}); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown queue, got %d", w.Code)
	}

	// Unknown entry.
	if w := do(r, http.MethodGet, "/v1/customers/nope/position", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown entry, got %d", w.Code)
	}

	// Capacity conflict.
	if w := do(r, http.MethodPost, "/v1/queues/"+q.QueueID+"/customers", gin.H{"customer_name": "A"}); w.Code != http.StatusCreated {
		t.Fatalf("first join should succeed, got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/v1/queues/"+q.QueueID+"/customers", gin.H{"customer_name": "B"}); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for full queue, got %d", w.Code)
	}
}

func TestCallNextEndpoint(t *testing.T) {
	e := newEnv(t)
	q := e.seedQueue(t, 0)

	r := gin.New()
	r.POST("/v1/queues/:queue_id/customers", e.handlers.AddCustomer)
	staffGroup := r.Group("/v1", identity("u-staff", "org-1", rbac.RoleStaff))
	staffGroup.POST("/queues/:queue_id/call-next", e.handlers.CallNext)

	// Empty queue answers 200 with a message, not an error.
	w := do(r, http.MethodPost, "/v1/queues/"+q.QueueID+"/call-next", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on empty queue, got %d", w.Code)
	}
	var empty map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &empty)
	if empty["message"] != "no customers waiting" {
		t.Fatalf("unexpected empty-queue body: %s", w.Body.String())
	}

	if w := do(r, http.MethodPost, "/v1/queues/"+q.QueueID+"/customers", gin.H{"customer_name": "Alice"}); w.Code != http.StatusCreated {
		t.Fatalf("join failed: %d", w.Code)
	}

	w = do(r, http.MethodPost, "/v1/queues/"+q.QueueID+"/call-next", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var called queue.QueueCustomer
	if err := json.Unmarshal(w.Body.Bytes(), &called); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if called.Status != queue.CustomerInService {
		t.Fatalf("expected in_service, got %s", called.Status)
	}
}

func TestCreateQueueForbiddenRole(t *testing.T) {
	e := newEnv(t)

	r := gin.New()
	grp := r.Group("/v1", identity("u-cust", "org-1", rbac.RoleCustomer))
	grp.POST("/queues", e.handlers.CreateQueue)

	w := do(r, http.MethodPost, "/v1/queues", gin.H{"name": "X", "location_id": e.location.LocationID})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	e := newEnv(t)
	q := e.seedQueue(t, 0)

	r := gin.New()
	r.POST("/v1/queues/:queue_id/customers", RateLimit(nil, 1, time.Minute), e.handlers.AddCustomer)

	for i := 0; i < 3; i++ {
		w := do(r, http.MethodPost, "/v1/queues/"+q.QueueID+"/customers", gin.H{"customer_name": "A"})
		if w.Code != http.StatusCreated {
			t.Fatalf("limiter without redis must fail open, got %d", w.Code)
		}
	}
}
