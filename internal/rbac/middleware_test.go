package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"sqipit/internal/auth"

	"github.com/gin-gonic/gin"
)

func protectedRoute(identityRole, identityOrg string, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "u", identityOrg, identityRole)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, RequireOrganization(), RequireAnyRole(allowed...), func(c *gin.Context) {
		c.Status(200)
	})
	return r
}

func serve(r *gin.Engine) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAnyRole_SuperAdminBypasses(t *testing.T) {
	// super_admin tokens may omit organization_id entirely
	if code := serve(protectedRoute(RoleSuperAdmin, "", RoleAdmin)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_AllowedRolePasses(t *testing.T) {
	if code := serve(protectedRoute(RoleStaff, "org-1", RoleStaff, RoleAdmin)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_DisallowedRoleForbidden(t *testing.T) {
	if code := serve(protectedRoute(RoleCustomer, "org-1", RoleStaff, RoleAdmin)); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_APIClientDeniedUnlessAllowed(t *testing.T) {
	if code := serve(protectedRoute(RoleAPIClient, "org-1", RoleStaff)); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
	if code := serve(protectedRoute(RoleAPIClient, "org-1", RoleAPIClient)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireOrganization_MissingOrgUnauthorized(t *testing.T) {
	if code := serve(protectedRoute(RoleAdmin, "", RoleAdmin)); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}
