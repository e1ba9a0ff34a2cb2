package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gramkit/gramreply/internal/policy"
	"github.com/gramkit/gramreply/internal/tui/posts"
)

// stringSliceFlag collects repeated --reply flags.
type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ", ")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func runPostsNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		printPostsHelp()
		if len(args) < 1 {
			return 1
		}
		return 0
	}

	cfg, code := loadConfig()
	if cfg == nil {
		return code
	}

	action := args[0]
	rest := args[1:]
	store := policy.NewStore(cfg.PostsFile)

	switch action {
	case "list":
		return runPostsList(store)
	case "show":
		return runPostsShow(store, rest)
	case "add":
		return runPostsAdd(store, rest)
	case "remove":
		return runPostsRemove(store, rest)
	case "enable":
		return runPostsSetEnabled(store, rest, true)
	case "disable":
		return runPostsSetEnabled(store, rest, false)
	case "lock":
		return runPostsLock(store)
	case "check":
		return runPostsCheck(store)
	case "manage":
		if err := posts.Run(store); err != nil {
			fmt.Fprintf(os.Stderr, "posts manager failed: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown posts action: %s\n\n", action)
		printPostsHelp()
		return 1
	}
}

func printPostsHelp() {
	fmt.Print(`Manage the monitored-posts policy file.

Usage:
  gramreply posts list
  gramreply posts show <post-id>
  gramreply posts add --id <post-id> [--reply <text>]... [--dm <text>]
  gramreply posts remove <post-id>
  gramreply posts enable <post-id>
  gramreply posts disable <post-id>
  gramreply posts lock       Authorize the current file contents
  gramreply posts check      Verify the file against its checksums
  gramreply posts manage     Interactive manager (TUI)

Reply and DM texts may contain {username}; it is replaced with the
commenter's username before sending.
`)
}

func runPostsList(store *policy.Store) int {
	policies, err := store.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load %s: %v\n", store.Path(), err)
		return 1
	}

	if len(policies) == 0 {
		fmt.Printf("no posts configured in %s\n", store.Path())
		return 0
	}

	for _, p := range policies {
		status := "disabled"
		if p.Enabled {
			status = "enabled"
		}
		fmt.Printf("%-24s %-8s replies:%d dm:%v\n", p.PostID, status, len(p.CommentReplies), p.DMMessage != "")
	}
	return 0
}

func runPostsShow(store *policy.Store, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: gramreply posts show <post-id>")
		return 1
	}

	policies, err := store.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load %s: %v\n", store.Path(), err)
		return 1
	}

	for _, p := range policies {
		if p.PostID != args[0] {
			continue
		}
		fmt.Printf("post:    %s\n", p.PostID)
		fmt.Printf("enabled: %v\n", p.Enabled)
		for i, r := range p.CommentReplies {
			fmt.Printf("reply %d: %s\n", i+1, r)
		}
		if p.DMMessage != "" {
			fmt.Printf("dm:      %s\n", p.DMMessage)
		}
		return 0
	}

	fmt.Fprintf(os.Stderr, "post %q is not configured\n", args[0])
	return 1
}

func runPostsAdd(store *policy.Store, args []string) int {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	id := fs.String("id", "", "post (media) ID to monitor")
	var replies stringSliceFlag
	fs.Var(&replies, "reply", "candidate public reply (repeatable)")
	dm := fs.String("dm", "", "private reply template")
	disabled := fs.Bool("disabled", false, "add the post disabled")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *id == "" {
		fmt.Fprintln(os.Stderr, "--id is required (use 'gramreply account media' to find post IDs)")
		return 1
	}
	if len(replies) == 0 && *dm == "" {
		fmt.Fprintln(os.Stderr, "warning: neither --reply nor --dm given; the policy will be a no-op")
	}

	err := store.Set(policy.Policy{
		PostID:         *id,
		Enabled:        !*disabled,
		CommentReplies: replies,
		DMMessage:      *dm,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
		return 1
	}

	fmt.Printf("post %s saved to %s\n", *id, store.Path())
	return 0
}

func runPostsRemove(store *policy.Store, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: gramreply posts remove <post-id>")
		return 1
	}
	if err := store.Remove(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "remove failed: %v\n", err)
		return 1
	}
	fmt.Printf("post %s removed\n", args[0])
	return 0
}

func runPostsSetEnabled(store *policy.Store, args []string, enabled bool) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: gramreply posts %s <post-id>\n", map[bool]string{true: "enable", false: "disable"}[enabled])
		return 1
	}
	if err := store.SetEnabled(args[0], enabled); err != nil {
		fmt.Fprintf(os.Stderr, "update failed: %v\n", err)
		return 1
	}
	fmt.Printf("post %s %s\n", args[0], map[bool]string{true: "enabled", false: "disabled"}[enabled])
	return 0
}

func runPostsLock(store *policy.Store) int {
	hash, err := store.Lock()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lock failed: %v\n", err)
		return 1
	}
	fmt.Printf("locked %s (%s)\n", store.Path(), hash[:12])
	return 0
}

func runPostsCheck(store *policy.Store) int {
	// check validates both parseability and integrity.
	if _, err := store.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "policy file invalid: %v\n", err)
		return 1
	}

	switch err := store.VerifyIntegrity(); {
	case err == nil:
		fmt.Printf("%s OK\n", store.Path())
		return 0
	case errors.Is(err, policy.ErrNoChecksums):
		fmt.Fprintf(os.Stderr, "no checksums manifest for %s; run 'gramreply posts lock'\n", store.Path())
		return 1
	default:
		fmt.Fprintf(os.Stderr, "integrity check failed: %v\n", err)
		return 1
	}
}
