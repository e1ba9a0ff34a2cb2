package policy

import (
	"sync"
	"testing"
)

// fixedRand always returns the same index.
type fixedRand struct{ n int }

func (f fixedRand) Intn(n int) int { return f.n % n }

// cycleRand walks through indexes 0,1,2,...
type cycleRand struct{ i int }

func (c *cycleRand) Intn(n int) int {
	v := c.i % n
	c.i++
	return v
}

func testPolicies() []Policy {
	return []Policy{
		{
			PostID:         "18076117025230421",
			Enabled:        true,
			CommentReplies: []string{"Thanks {username}!", "Appreciate it!", "You rock!"},
			DMMessage:      "Hi {username}! Here is the link: https://example.com",
		},
		{
			PostID:         "1025230421",
			Enabled:        true,
			CommentReplies: []string{"Second entry"},
		},
		{
			PostID:  "17900000000000000",
			Enabled: false,
		},
	}
}

func TestResolve_ExactMatch(t *testing.T) {
	r := NewRegistry(testPolicies(), nil)

	p := r.Resolve("18076117025230421")
	if p.PostID != "18076117025230421" {
		t.Errorf("Resolve() = %q, want exact match", p.PostID)
	}
	if !p.Enabled {
		t.Error("resolved policy should be enabled")
	}
}

func TestResolve_SubstringMatch(t *testing.T) {
	r := NewRegistry(testPolicies(), nil)

	p := r.Resolve("prefix18076117025230421suffix")
	if p.PostID != "18076117025230421" {
		t.Errorf("Resolve() = %q, want substring match 18076117025230421", p.PostID)
	}
}

func TestResolve_SubstringFirstMatchWins(t *testing.T) {
	// Both registered keys are substrings of the incoming ID; the first
	// configured entry must win regardless of match length.
	policies := []Policy{
		{PostID: "1025230421", Enabled: true, CommentReplies: []string{"short"}},
		{PostID: "18076117025230421", Enabled: true, CommentReplies: []string{"long"}},
	}
	r := NewRegistry(policies, nil)

	p := r.Resolve("xx18076117025230421yy")
	if p.PostID != "1025230421" {
		t.Errorf("Resolve() = %q, want first configured entry 1025230421", p.PostID)
	}
}

func TestResolve_Unknown(t *testing.T) {
	r := NewRegistry(testPolicies(), nil)

	p := r.Resolve("unknown_id")
	if p.Enabled {
		t.Error("unknown post should resolve to a disabled policy")
	}
	if p.PostID != "" || len(p.CommentReplies) != 0 || p.DMMessage != "" {
		t.Errorf("Resolve(unknown) = %+v, want DefaultPolicy", p)
	}
}

func TestResolve_EmptyRegistry(t *testing.T) {
	r := NewRegistry(nil, nil)
	if p := r.Resolve("anything"); p.Enabled {
		t.Error("empty registry must resolve to DefaultPolicy")
	}
}

func TestSelectReply_Deterministic(t *testing.T) {
	policies := testPolicies()
	r := NewRegistry(policies, fixedRand{n: 1})

	got := r.SelectReply(policies[0])
	if got != "Appreciate it!" {
		t.Errorf("SelectReply() = %q, want Appreciate it!", got)
	}
}

func TestSelectReply_OnlyConfiguredValues(t *testing.T) {
	policies := testPolicies()
	r := NewRegistry(policies, nil)

	candidates := map[string]bool{}
	for _, s := range policies[0].CommentReplies {
		candidates[s] = true
	}

	seen := map[string]bool{}
	for range 1000 {
		got := r.SelectReply(policies[0])
		if !candidates[got] {
			t.Fatalf("SelectReply() = %q, not in configured set", got)
		}
		seen[got] = true
	}

	// With 3 candidates and 1000 draws, seeing a single value means the
	// source is broken.
	if len(seen) < 2 {
		t.Errorf("SelectReply() returned %d distinct values over 1000 draws, want >1", len(seen))
	}
}

func TestSelectReply_NoReplies(t *testing.T) {
	r := NewRegistry(nil, nil)

	if got := r.SelectReply(Policy{Enabled: true}); got != "" {
		t.Errorf("SelectReply() = %q, want empty for no candidates", got)
	}
}

// Deliveries run on parallel goroutines sharing one registry; the default
// source must hold up under -race.
func TestSelectReply_ConcurrentDefaultSource(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testPolicies(), nil)
	p := r.Resolve("18076117025230421")

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if got := r.SelectReply(p); got == "" {
					t.Error("SelectReply() returned empty for a configured policy")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		username string
		want     string
	}{
		{"single token", "Hi {username}!", "ana", "Hi ana!"},
		{"no token", "Hello there!", "ana", "Hello there!"},
		{"repeated token", "{username} {username}", "bo", "bo bo"},
		{"empty template", "", "ana", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.template, tt.username); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}
