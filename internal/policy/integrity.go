package policy

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// ChecksumFile is the manifest written next to the policy file by Lock.
const ChecksumFile = ".checksums"

// ErrNoChecksums is returned by VerifyIntegrity when no manifest exists.
// Callers decide whether that is a warning (server startup) or an error
// (posts check).
var ErrNoChecksums = errors.New("no checksums manifest")

type checksumManifest struct {
	Generated string            `yaml:"generated"`
	Hashes    map[string]string `yaml:"hashes"`
}

// ComputeHash returns the hex BLAKE3 hash of a file.
func ComputeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file for hashing: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Lock records the current hash of the policy file in a .checksums
// manifest beside it, marking the current contents as authorized.
func (s *Store) Lock() (string, error) {
	hash, err := ComputeHash(s.path)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(s.path)
	manifestPath := filepath.Join(dir, ChecksumFile)

	manifest := checksumManifest{Hashes: map[string]string{}}
	if data, err := os.ReadFile(manifestPath); err == nil {
		// Keep entries for other files in the same directory.
		_ = yaml.Unmarshal(data, &manifest)
		if manifest.Hashes == nil {
			manifest.Hashes = map[string]string{}
		}
	}

	manifest.Generated = time.Now().UTC().Format(time.RFC3339)
	manifest.Hashes[filepath.Base(s.path)] = hash

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("encode checksums: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write checksums: %w", err)
	}
	return hash, nil
}

// VerifyIntegrity checks the policy file against its .checksums manifest.
// Returns ErrNoChecksums when the manifest or the file's entry is absent,
// and a mismatch error when the file changed since the last Lock.
func (s *Store) VerifyIntegrity() error {
	manifestPath := filepath.Join(filepath.Dir(s.path), ChecksumFile)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return ErrNoChecksums
	}

	var manifest checksumManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("parse checksums: %w", err)
	}

	expected, ok := manifest.Hashes[filepath.Base(s.path)]
	if !ok {
		return ErrNoChecksums
	}

	actual, err := ComputeHash(s.path)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("policy file %s changed since last lock (expected %s, got %s)",
			filepath.Base(s.path), expected, actual)
	}
	return nil
}
