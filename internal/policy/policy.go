// Package policy maps monitored post IDs to automated response behavior.
package policy

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// UsernameToken is the placeholder replaced with the commenter's username
// in reply and DM templates.
const UsernameToken = "{username}"

// Policy describes the automated response for one monitored post.
type Policy struct {
	// PostID is the Instagram media ID the policy is registered under.
	// Webhooks may report a longer compound ID; see Registry.Resolve.
	PostID string

	Enabled bool

	// CommentReplies are candidate public replies; one is chosen at
	// random per comment so repeated replies don't read as spam.
	CommentReplies []string

	// DMMessage is the private reply template, empty for none.
	DMMessage string
}

// DefaultPolicy is returned for unmatched posts. Disabled, so dispatch
// becomes a no-op without any nil checks at call sites.
var DefaultPolicy = Policy{}

// Rand is the random source used for reply selection. Injectable so
// tests can pin the choice.
type Rand interface {
	Intn(n int) int
}

// lockedRand serializes access to a *rand.Rand, which is not safe for
// concurrent use. Deliveries are served on parallel goroutines and all
// draw from the one registry source.
type lockedRand struct {
	mu  sync.Mutex
	src *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}

// Registry resolves post IDs to policies. Entries keep their file order:
// the substring fallback in Resolve deliberately returns the first
// configured match, so order is part of the contract. A Registry is
// immutable after construction and safe for concurrent readers.
type Registry struct {
	entries []Policy
	index   map[string]int
	rnd     Rand
}

// NewRegistry builds a registry over the given policies, preserving their
// order. A nil rnd falls back to a time-seeded source.
func NewRegistry(policies []Policy, rnd Rand) *Registry {
	if rnd == nil {
		rnd = &lockedRand{src: rand.New(rand.NewSource(time.Now().UnixNano()))}
	}

	index := make(map[string]int, len(policies))
	for i, p := range policies {
		if _, dup := index[p.PostID]; !dup {
			index[p.PostID] = i
		}
	}

	return &Registry{
		entries: append([]Policy(nil), policies...),
		index:   index,
		rnd:     rnd,
	}
}

// Len returns the number of configured policies.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Policies returns the configured policies in registration order.
func (r *Registry) Policies() []Policy {
	return append([]Policy(nil), r.entries...)
}

// Resolve returns the policy for a post ID. Lookup is total: an exact key
// match wins, otherwise the first registered key that is a substring of
// postID (webhooks sometimes deliver compound IDs that embed the
// registered one), otherwise DefaultPolicy.
func (r *Registry) Resolve(postID string) Policy {
	if i, ok := r.index[postID]; ok {
		return r.entries[i]
	}

	for _, p := range r.entries {
		if p.PostID != "" && strings.Contains(postID, p.PostID) {
			return p
		}
	}

	return DefaultPolicy
}

// SelectReply picks one public reply uniformly at random, or "" when the
// policy has none configured.
func (r *Registry) SelectReply(p Policy) string {
	if len(p.CommentReplies) == 0 {
		return ""
	}
	return p.CommentReplies[r.rnd.Intn(len(p.CommentReplies))]
}

// Render substitutes every occurrence of the {username} token.
func Render(template, username string) string {
	return strings.ReplaceAll(template, UsernameToken, username)
}
