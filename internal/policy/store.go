package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store persists policies in a local file keyed by post ID. JSON is the
// default format; files ending in .yaml or .yml use YAML. Both decoders
// preserve the file's key order, which Registry.Resolve depends on.
//
// The store is only touched at startup and by the management commands;
// the running server never writes through it.
type Store struct {
	path string
}

// NewStore creates a store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// policyFile is the on-disk shape of one policy entry. comment_reply is
// the legacy single-reply field; it is folded into comment_replies on
// load and never written back.
type policyFile struct {
	Enabled        bool     `json:"enabled" yaml:"enabled"`
	CommentReplies []string `json:"comment_replies,omitempty" yaml:"comment_replies,omitempty"`
	CommentReply   string   `json:"comment_reply,omitempty" yaml:"comment_reply,omitempty"`
	DMMessage      string   `json:"dm_message,omitempty" yaml:"dm_message,omitempty"`
}

func (pf policyFile) toPolicy(postID string) Policy {
	replies := pf.CommentReplies
	if len(replies) == 0 && pf.CommentReply != "" {
		replies = []string{pf.CommentReply}
	}
	return Policy{
		PostID:         postID,
		Enabled:        pf.Enabled,
		CommentReplies: replies,
		DMMessage:      pf.DMMessage,
	}
}

// Load reads all policies in file order. A missing file is an empty
// configuration, not an error.
func (s *Store) Load() ([]Policy, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	if isYAMLPath(s.path) {
		return decodeYAML(data)
	}
	return decodeJSON(data)
}

// Save writes all policies back, preserving slice order.
func (s *Store) Save(policies []Policy) error {
	var data []byte
	var err error
	if isYAMLPath(s.path) {
		data, err = encodeYAML(policies)
	} else {
		data, err = encodeJSON(policies)
	}
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create policy directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write policy file: %w", err)
	}
	return nil
}

// Set adds or replaces the policy for its post ID. Existing entries keep
// their position; new entries append.
func (s *Store) Set(p Policy) error {
	policies, err := s.Load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range policies {
		if policies[i].PostID == p.PostID {
			policies[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		policies = append(policies, p)
	}
	return s.Save(policies)
}

// Remove deletes the policy for postID. Unknown IDs are an error so the
// CLI can report typos instead of silently succeeding.
func (s *Store) Remove(postID string) error {
	policies, err := s.Load()
	if err != nil {
		return err
	}

	kept := policies[:0]
	found := false
	for _, p := range policies {
		if p.PostID == postID {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return fmt.Errorf("post %q is not configured", postID)
	}
	return s.Save(kept)
}

// SetEnabled flips the enabled flag for postID.
func (s *Store) SetEnabled(postID string, enabled bool) error {
	policies, err := s.Load()
	if err != nil {
		return err
	}

	for i := range policies {
		if policies[i].PostID == postID {
			policies[i].Enabled = enabled
			return s.Save(policies)
		}
	}
	return fmt.Errorf("post %q is not configured", postID)
}

func isYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// decodeJSON walks the top-level object token by token so the entry
// order in the file survives into the slice.
func decodeJSON(data []byte) ([]Policy, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("policy file must be a JSON object keyed by post ID")
	}

	var policies []Policy
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse policy file: %w", err)
		}
		key, _ := keyTok.(string)

		var pf policyFile
		if err := dec.Decode(&pf); err != nil {
			return nil, fmt.Errorf("parse policy for post %q: %w", key, err)
		}
		policies = append(policies, pf.toPolicy(key))
	}
	return policies, nil
}

func encodeJSON(policies []Policy) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, p := range policies {
		key, err := json.Marshal(p.PostID)
		if err != nil {
			return nil, fmt.Errorf("encode post id %q: %w", p.PostID, err)
		}
		val, err := json.MarshalIndent(policyFile{
			Enabled:        p.Enabled,
			CommentReplies: p.CommentReplies,
			DMMessage:      p.DMMessage,
		}, "  ", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode policy %q: %w", p.PostID, err)
		}

		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
		if i < len(policies)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// decodeYAML reads the top-level mapping through yaml.Node, which keeps
// document order (a plain map[string] unmarshal would not).
func decodeYAML(data []byte) ([]Policy, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("policy file must be a YAML mapping keyed by post ID")
	}

	var policies []Policy
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value

		var pf policyFile
		if err := root.Content[i+1].Decode(&pf); err != nil {
			return nil, fmt.Errorf("parse policy for post %q: %w", key, err)
		}
		policies = append(policies, pf.toPolicy(key))
	}
	return policies, nil
}

func encodeYAML(policies []Policy) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range policies {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: p.PostID}

		valNode := &yaml.Node{}
		if err := valNode.Encode(policyFile{
			Enabled:        p.Enabled,
			CommentReplies: p.CommentReplies,
			DMMessage:      p.DMMessage,
		}); err != nil {
			return nil, fmt.Errorf("encode policy %q: %w", p.PostID, err)
		}
		root.Content = append(root.Content, keyNode, valNode)
	}
	return yaml.Marshal(root)
}
