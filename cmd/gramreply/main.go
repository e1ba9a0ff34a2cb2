package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gramkit/gramreply/internal/config"
	"github.com/gramkit/gramreply/internal/doctor"
	"github.com/gramkit/gramreply/internal/instagram"
	"github.com/gramkit/gramreply/internal/lock"
	"github.com/gramkit/gramreply/internal/log"
	"github.com/gramkit/gramreply/internal/policy"
	"github.com/gramkit/gramreply/internal/signature"
	"github.com/gramkit/gramreply/internal/storage"
	"github.com/gramkit/gramreply/internal/webhook"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "serve", "start":
		os.Exit(runServe(args))
	case "posts":
		os.Exit(runPostsNoun(args))
	case "account":
		os.Exit(runAccountNoun(args))
	case "log":
		os.Exit(runLogNoun(args))
	case "doctor":
		os.Exit(runDoctor(args))
	case "version":
		fmt.Printf("gramreply version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`gramreply - Instagram comment auto-responder gateway

Usage:
  gramreply <command> [flags]

Commands:
  serve             Start the webhook server in foreground
  posts <action>    Manage monitored posts (list, show, add, remove,
                    enable, disable, lock, check, manage)
  account <action>  Query the connected account (info, permissions,
                    media, comments)
  log list          Show recent dispatch outcomes (needs DELIVERY_LOG)
  doctor            Validate environment, policy file, and token

General:
  version           Show version information
  help              Show this help message

Configuration comes from the environment (or a .env file): VERIFY_TOKEN,
APP_SECRET, ACCESS_TOKEN, INSTAGRAM_ACCOUNT_ID, PORT, DEBUG, LOG_LEVEL,
POSTS_FILE, DELIVERY_LOG.
`)
}

func loadConfig() (*config.Config, int) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return nil, 1
	}
	return cfg, 0
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	portFlag := fs.Int("port", 0, "listen port (overrides PORT)")
	postsFlag := fs.String("posts", "", "policy file path (overrides POSTS_FILE)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, code := loadConfig()
	if cfg == nil {
		return code
	}
	if *portFlag != 0 {
		cfg.Port = *portFlag
	}
	if *postsFlag != "" {
		cfg.PostsFile = *postsFlag
	}

	log.Setup(cfg.LogLevel, cfg.Debug)
	logger := log.WithComponent("serve")

	// Two servers on the same policy file would answer every comment twice.
	guard, err := lock.Acquire(cfg.PostsFile + ".lock")
	if err != nil {
		logger.Error("cannot acquire instance lock", "error", err)
		return 1
	}
	defer guard.Release()

	if err := cfg.RequireCredentials(); err != nil {
		logger.Warn("outbound credentials missing; replies and DMs will fail", "error", err)
	}

	store := policy.NewStore(cfg.PostsFile)
	if err := store.VerifyIntegrity(); err != nil {
		if err == policy.ErrNoChecksums {
			logger.Warn("policy file has no checksums manifest; run 'gramreply posts lock'")
		} else {
			logger.Error("policy file integrity check failed", "error", err)
			return 1
		}
	}

	policies, err := store.Load()
	if err != nil {
		logger.Error("cannot load policy file", "path", cfg.PostsFile, "error", err)
		return 1
	}
	registry := policy.NewRegistry(policies, nil)
	logger.Info("policies loaded", "path", cfg.PostsFile, "posts", registry.Len())

	client := instagram.NewClient(cfg.AccessToken, cfg.AccountID, log.WithComponent("instagram"))
	verifier := signature.NewVerifier(cfg.AppSecret, log.WithComponent("signature"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder webhook.Recorder
	if cfg.DeliveryLog != "" {
		db, err := storage.OpenSQLite(ctx, cfg.DeliveryLog)
		if err != nil {
			logger.Error("cannot open delivery log", "path", cfg.DeliveryLog, "error", err)
			return 1
		}
		defer db.Close()
		recorder = storage.NewDeliveryLog(db)
		logger.Info("delivery log enabled", "path", cfg.DeliveryLog)
	}

	dispatcher := webhook.NewDispatcher(registry, client, recorder, log.WithComponent("dispatch"))
	server := webhook.New(webhook.Config{
		Listen:      cfg.Listen(),
		VerifyToken: cfg.VerifyToken,
	}, verifier, dispatcher, log.WithComponent("webhook"))

	if err := server.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("server stopped", "error", err)
		return 1
	}
	return 0
}

func runDoctor(args []string) int {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	offline := fs.Bool("offline", false, "skip Graph API permission checks")
	jsonOut := fs.Bool("json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, code := loadConfig()
	if cfg == nil {
		return code
	}
	log.Setup(cfg.LogLevel, cfg.Debug)

	var api doctor.PermissionAPI
	if !*offline && cfg.AccessToken != "" {
		api = instagram.NewClient(cfg.AccessToken, cfg.AccountID, log.WithComponent("instagram"))
	}

	result := doctor.New(cfg, api).Validate(context.Background())

	if *jsonOut {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
	} else {
		for _, e := range result.Errors {
			fmt.Printf("ERROR [%s] %s\n", e.Category, e.Message)
		}
		for _, w := range result.Warnings {
			fmt.Printf("WARN  [%s] %s\n", w.Category, w.Message)
		}
		if result.Valid {
			fmt.Println("configuration OK")
		}
	}

	if !result.Valid {
		return 1
	}
	return 0
}

func isHelpToken(s string) bool {
	return s == "help" || s == "--help" || s == "-h"
}
