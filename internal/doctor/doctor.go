// Package doctor validates gramreply configuration, policy files, and
// Graph API credentials.
package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/gramkit/gramreply/internal/config"
	"github.com/gramkit/gramreply/internal/policy"
)

// requiredPermissions are the Graph API permissions the gateway needs to
// reply to comments and send private replies.
var requiredPermissions = []string{
	"instagram_basic",
	"instagram_manage_comments",
	"instagram_manage_messages",
}

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// PermissionAPI is the slice of the Graph API client the doctor uses.
// Nil skips the remote checks (offline mode).
type PermissionAPI interface {
	VerifyPermissions(ctx context.Context) (map[string]string, error)
	GetAccountInfo(ctx context.Context) (map[string]any, error)
}

// Doctor validates a loaded configuration.
type Doctor struct {
	cfg *config.Config
	api PermissionAPI
}

// New creates a Doctor. api may be nil for offline validation.
func New(cfg *config.Config, api PermissionAPI) *Doctor {
	return &Doctor{cfg: cfg, api: api}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate(ctx context.Context) *Result {
	r := &Result{Valid: true}

	d.validateEnvironment(r)
	d.validatePolicies(r)
	if d.api != nil {
		d.validateToken(ctx, r)
	}

	return r
}

func (d *Doctor) validateEnvironment(r *Result) {
	if d.cfg.VerifyToken == "" {
		r.fail("environment", "VERIFY_TOKEN is not set; the webhook subscribe handshake will always 403")
	}
	if d.cfg.AppSecret == "" {
		r.warn("environment", "APP_SECRET is not set; webhook signature verification is disabled")
	}
	if d.cfg.AccessToken == "" {
		r.fail("environment", "ACCESS_TOKEN is not set; outbound Graph API calls will fail")
	}
	if d.cfg.AccountID == "" {
		r.fail("environment", "INSTAGRAM_ACCOUNT_ID is not set; private replies and media queries will fail")
	}
}

func (d *Doctor) validatePolicies(r *Result) {
	store := policy.NewStore(d.cfg.PostsFile)

	policies, err := store.Load()
	if err != nil {
		r.fail("policies", fmt.Sprintf("cannot load %s: %v", d.cfg.PostsFile, err))
		return
	}

	if len(policies) == 0 {
		r.warn("policies", fmt.Sprintf("%s configures no posts; every comment will be ignored", d.cfg.PostsFile))
	}
	for _, p := range policies {
		if p.Enabled && len(p.CommentReplies) == 0 && p.DMMessage == "" {
			r.warn("policies", fmt.Sprintf("post %s is enabled but has no replies and no DM message; it is a no-op", p.PostID))
		}
	}

	switch err := store.VerifyIntegrity(); {
	case err == nil:
	case errors.Is(err, policy.ErrNoChecksums):
		r.warn("policies", fmt.Sprintf("%s has no checksums manifest; run 'gramreply posts lock' to enable integrity verification", d.cfg.PostsFile))
	default:
		r.fail("policies", err.Error())
	}
}

func (d *Doctor) validateToken(ctx context.Context, r *Result) {
	perms, err := d.api.VerifyPermissions(ctx)
	if err != nil {
		r.fail("token", fmt.Sprintf("permission query failed: %v", err))
		return
	}

	for _, name := range requiredPermissions {
		switch perms[name] {
		case "granted":
		case "":
			r.warn("token", fmt.Sprintf("permission %s is not present on the token", name))
		default:
			r.fail("token", fmt.Sprintf("permission %s is %s", name, perms[name]))
		}
	}

	if _, err := d.api.GetAccountInfo(ctx); err != nil {
		r.fail("token", fmt.Sprintf("account lookup failed: %v", err))
	}
}

func (r *Result) fail(category, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, Issue{Category: category, Message: message})
}

func (r *Result) warn(category, message string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Message: message})
}
