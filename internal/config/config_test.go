package config

import "testing"

func validBase() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "sqipit", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Plans: PlanConfig{
			Free:     PlanLimits{QueueLimit: 1, SMSCredits: 0, DeactivationDays: 30},
			Pro:      PlanLimits{QueueLimit: 5, SMSCredits: 100, DeactivationDays: 90},
			Business: PlanLimits{QueueLimit: 999, SMSCredits: 500},
		},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "sqipit"
	c.Auth.JWTAudience = "sqipit-api"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_PartialPostmarkConfigRejected(t *testing.T) {
	c := validBase()
	c.Postmark.APIToken = "token"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for postmark token without from address")
	}
}

func TestLimitsForPlan(t *testing.T) {
	c := validBase()

	if got := c.LimitsForPlan("PRO"); got.QueueLimit != 5 {
		t.Fatalf("expected pro queue limit 5, got %d", got.QueueLimit)
	}
	if got := c.LimitsForPlan("business"); got.SMSCredits != 500 {
		t.Fatalf("expected business sms credits 500, got %d", got.SMSCredits)
	}
	// Unknown plans fall back to FREE.
	if got := c.LimitsForPlan("enterprise"); got.QueueLimit != 1 {
		t.Fatalf("expected free fallback, got %+v", got)
	}
}

func TestValidate_BusinessNeverDeactivates(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Plans.Business.DeactivationDays != 0 {
		t.Fatalf("expected business deactivation days 0, got %d", c.Plans.Business.DeactivationDays)
	}
}
