package doctor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gramkit/gramreply/internal/config"
	"github.com/gramkit/gramreply/internal/policy"
)

type fakeAPI struct {
	perms    map[string]string
	permsErr error
	infoErr  error
}

func (f *fakeAPI) VerifyPermissions(ctx context.Context) (map[string]string, error) {
	return f.perms, f.permsErr
}

func (f *fakeAPI) GetAccountInfo(ctx context.Context) (map[string]any, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return map[string]any{"id": "acct", "username": "shoplocal"}, nil
}

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	postsFile := filepath.Join(t.TempDir(), "monitored_posts.json")

	store := policy.NewStore(postsFile)
	if err := store.Save([]policy.Policy{
		{PostID: "p1", Enabled: true, CommentReplies: []string{"thanks"}},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Lock(); err != nil {
		t.Fatal(err)
	}

	return &config.Config{
		VerifyToken: "vt",
		AppSecret:   "secret",
		AccessToken: "at",
		AccountID:   "acct",
		PostsFile:   postsFile,
	}
}

func grantedPerms() map[string]string {
	return map[string]string{
		"instagram_basic":           "granted",
		"instagram_manage_comments": "granted",
		"instagram_manage_messages": "granted",
	}
}

func TestValidate_AllGood(t *testing.T) {
	d := New(validConfig(t), &fakeAPI{perms: grantedPerms()})

	r := d.Validate(context.Background())
	if !r.Valid {
		t.Fatalf("Valid = false, errors: %+v", r.Errors)
	}
	if len(r.Warnings) != 0 {
		t.Errorf("Warnings = %+v, want none", r.Warnings)
	}
}

func TestValidate_MissingEnvironment(t *testing.T) {
	cfg := validConfig(t)
	cfg.VerifyToken = ""
	cfg.AccessToken = ""
	cfg.AppSecret = ""

	r := New(cfg, nil).Validate(context.Background())
	if r.Valid {
		t.Fatal("Valid = true with missing required variables")
	}
	if len(r.Errors) != 2 {
		t.Errorf("Errors = %d, want 2 (verify token, access token)", len(r.Errors))
	}
	// Missing APP_SECRET is legal but must warn.
	if len(r.Warnings) == 0 {
		t.Error("missing APP_SECRET should produce a warning")
	}
}

func TestValidate_NoOpPolicyWarns(t *testing.T) {
	cfg := validConfig(t)
	store := policy.NewStore(cfg.PostsFile)
	if err := store.Set(policy.Policy{PostID: "empty", Enabled: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Lock(); err != nil {
		t.Fatal(err)
	}

	r := New(cfg, nil).Validate(context.Background())
	found := false
	for _, w := range r.Warnings {
		if w.Category == "policies" {
			found = true
		}
	}
	if !found {
		t.Error("enabled no-op policy should produce a policies warning")
	}
}

func TestValidate_DeclinedPermission(t *testing.T) {
	perms := grantedPerms()
	perms["instagram_manage_messages"] = "declined"

	r := New(validConfig(t), &fakeAPI{perms: perms}).Validate(context.Background())
	if r.Valid {
		t.Error("declined permission should fail validation")
	}
}

func TestValidate_PermissionQueryError(t *testing.T) {
	api := &fakeAPI{permsErr: errors.New("401 unauthorized")}

	r := New(validConfig(t), api).Validate(context.Background())
	if r.Valid {
		t.Error("permission query failure should fail validation")
	}
}
