// Package webhook implements the Meta comment-notification endpoint and
// the dispatcher that turns verified notifications into outbound actions.
//
// # Security Model
//
// - HMAC-SHA256 signatures verified using crypto/subtle (constant-time comparison)
// - Body size limits enforced to prevent DoS attacks
// - No signature details leaked in error responses (always generic 403)
// - Request logging excludes payload bodies
// - Secrets loaded from environment variables (never hardcoded)
//
// # Request Flow
//
//  1. Meta issues GET /webhook with hub.mode/hub.verify_token/hub.challenge
//     once, to confirm endpoint ownership; the challenge is echoed back.
//  2. Comment notifications arrive as POST /webhook with an
//     X-Hub-Signature-256 header.
//  3. HMAC-SHA256 is computed over the raw body and compared in constant
//     time (reject with 403 "Invalid signature" on mismatch).
//  4. Each comments change is resolved against the policy registry; an
//     enabled policy triggers up to two outbound Graph API calls (public
//     reply, private reply).
//  5. The response is OK/200 as soon as the signature checks out, no
//     matter what the outbound calls did: Meta retries and eventually
//     disables subscriptions that observe non-2xx responses.
//
// # Example Usage
//
//	verifier := signature.NewVerifier(cfg.AppSecret, logger)
//	dispatcher := webhook.NewDispatcher(registry, client, nil, logger)
//	server := webhook.New(webhook.Config{
//		Listen:      ":5000",
//		VerifyToken: cfg.VerifyToken,
//	}, verifier, dispatcher, logger)
//	if err := server.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
package webhook
