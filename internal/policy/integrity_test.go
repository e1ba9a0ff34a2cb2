package policy

import (
	"errors"
	"os"
	"testing"
)

func TestIntegrity_LockThenVerify(t *testing.T) {
	s := tempStore(t, "monitored_posts.json")
	if err := s.Save([]Policy{{PostID: "p1", Enabled: true}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	hash, err := s.Lock()
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if len(hash) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(hash))
	}

	if err := s.VerifyIntegrity(); err != nil {
		t.Errorf("VerifyIntegrity() = %v, want nil after lock", err)
	}
}

func TestIntegrity_DetectsTampering(t *testing.T) {
	s := tempStore(t, "monitored_posts.json")
	if err := s.Save([]Policy{{PostID: "p1", Enabled: true}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := s.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	// Edit the file behind the manifest's back.
	if err := os.WriteFile(s.Path(), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	err := s.VerifyIntegrity()
	if err == nil {
		t.Fatal("VerifyIntegrity() = nil after tampering")
	}
	if errors.Is(err, ErrNoChecksums) {
		t.Error("tampering should not be reported as a missing manifest")
	}
}

func TestIntegrity_NoManifest(t *testing.T) {
	s := tempStore(t, "monitored_posts.json")
	if err := s.Save(nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := s.VerifyIntegrity(); !errors.Is(err, ErrNoChecksums) {
		t.Errorf("VerifyIntegrity() = %v, want ErrNoChecksums", err)
	}
}
