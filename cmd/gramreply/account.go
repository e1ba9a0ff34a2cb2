package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gramkit/gramreply/internal/instagram"
	"github.com/gramkit/gramreply/internal/log"
	"github.com/gramkit/gramreply/internal/storage"
)

const apiCallTimeout = 30 * time.Second

func runAccountNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		printAccountHelp()
		if len(args) < 1 {
			return 1
		}
		return 0
	}

	cfg, code := loadConfig()
	if cfg == nil {
		return code
	}
	if err := cfg.RequireCredentials(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	log.Setup(cfg.LogLevel, cfg.Debug)
	client := instagram.NewClient(cfg.AccessToken, cfg.AccountID, log.WithComponent("instagram"))

	ctx, cancel := context.WithTimeout(context.Background(), apiCallTimeout)
	defer cancel()

	action := args[0]
	rest := args[1:]

	switch action {
	case "info":
		return runAccountInfo(ctx, client)
	case "permissions":
		return runAccountPermissions(ctx, client)
	case "media":
		return runAccountMedia(ctx, client, rest)
	case "comments":
		return runAccountComments(ctx, client, rest)
	default:
		fmt.Fprintf(os.Stderr, "Unknown account action: %s\n\n", action)
		printAccountHelp()
		return 1
	}
}

func printAccountHelp() {
	fmt.Print(`Query the connected Instagram account through the Graph API.

Usage:
  gramreply account info                      Show username and media count
  gramreply account permissions               List granted token permissions
  gramreply account media [--limit N]         List recent media (post IDs)
  gramreply account comments <media-id> [--limit N]
                                              List recent comments on a post

Requires ACCESS_TOKEN and INSTAGRAM_ACCOUNT_ID in the environment.
`)
}

func runAccountInfo(ctx context.Context, client *instagram.Client) int {
	info, err := client.GetAccountInfo(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "account lookup failed: %v\n", err)
		return 1
	}

	fmt.Printf("id:          %v\n", info["id"])
	fmt.Printf("username:    %v\n", info["username"])
	if v, ok := info["media_count"]; ok {
		fmt.Printf("media count: %v\n", v)
	}
	return 0
}

func runAccountPermissions(ctx context.Context, client *instagram.Client) int {
	perms, err := client.VerifyPermissions(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "permissions lookup failed: %v\n", err)
		return 1
	}

	names := make([]string, 0, len(perms))
	for name := range perms {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%-36s %s\n", name, perms[name])
	}
	return 0
}

func runAccountMedia(ctx context.Context, client *instagram.Client, args []string) int {
	fs := flag.NewFlagSet("media", flag.ExitOnError)
	limit := fs.Int("limit", 10, "number of media items to list")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	media, err := client.GetMediaList(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "media lookup failed: %v\n", err)
		return 1
	}

	if len(media) == 0 {
		fmt.Println("no media found")
		return 0
	}

	for _, m := range media {
		caption, _ := m["caption"].(string)
		if len(caption) > 48 {
			caption = caption[:45] + "..."
		}
		fmt.Printf("%-24v %-10v %s\n", m["id"], m["media_type"], caption)
	}
	return 0
}

func runAccountComments(ctx context.Context, client *instagram.Client, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: gramreply account comments <media-id> [--limit N]")
		return 1
	}
	mediaID := args[0]

	fs := flag.NewFlagSet("comments", flag.ExitOnError)
	limit := fs.Int("limit", 25, "number of comments to list")
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}

	comments, err := client.GetMediaComments(ctx, mediaID, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "comments lookup failed: %v\n", err)
		return 1
	}

	if len(comments) == 0 {
		fmt.Println("no comments found")
		return 0
	}

	for _, c := range comments {
		fmt.Printf("%-24v @%-20v %v\n", c["id"], c["username"], c["text"])
	}
	return 0
}

func runLogNoun(args []string) int {
	if len(args) >= 1 && isHelpToken(args[0]) {
		printLogHelp()
		return 0
	}
	if len(args) < 1 || args[0] != "list" {
		printLogHelp()
		return 1
	}

	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("limit", 20, "number of entries to show")
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}

	cfg, code := loadConfig()
	if cfg == nil {
		return code
	}
	if cfg.DeliveryLog == "" {
		fmt.Fprintln(os.Stderr, "DELIVERY_LOG is not set; the server is not recording dispatch outcomes")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := storage.OpenSQLite(ctx, cfg.DeliveryLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open delivery log: %v\n", err)
		return 1
	}
	defer db.Close()

	entries, err := storage.NewDeliveryLog(db).Recent(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read delivery log: %v\n", err)
		return 1
	}

	if len(entries) == 0 {
		fmt.Println("no deliveries recorded")
		return 0
	}

	for _, e := range entries {
		outcome := "ok"
		if !e.Success {
			outcome = "FAIL"
		}
		fmt.Printf("%s %-5s %-4s post=%s comment=%s @%s",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Action, outcome,
			e.PostID, e.CommentID, e.Username)
		if e.Detail != "" {
			fmt.Printf(" (%s)", e.Detail)
		}
		fmt.Println()
	}
	return 0
}

func printLogHelp() {
	fmt.Print(`Show recent dispatch outcomes recorded by the server.

Usage:
  gramreply log list [--limit N]

Requires DELIVERY_LOG to point at the server's SQLite file.
`)
}
