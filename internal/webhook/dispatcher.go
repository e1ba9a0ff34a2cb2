package webhook

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gramkit/gramreply/internal/instagram"
	"github.com/gramkit/gramreply/internal/policy"
	"github.com/gramkit/gramreply/internal/storage"
)

// maxReplyLen bounds outgoing message bodies; the Graph API rejects
// longer ones.
const maxReplyLen = 1000

// Responder sends the two outbound actions a comment can trigger.
// Satisfied by *instagram.Client; tests substitute a counter.
type Responder interface {
	ReplyToComment(ctx context.Context, commentID, message string) bool
	SendPrivateReply(ctx context.Context, commentID, message string) bool
}

// Recorder persists action outcomes for later inspection.
type Recorder interface {
	Record(ctx context.Context, e storage.Entry) error
}

// Dispatcher turns verified webhook payloads into outbound actions. It
// holds only read-only collaborators, so one Dispatcher serves all
// concurrent deliveries.
type Dispatcher struct {
	registry  *policy.Registry
	responder Responder
	recorder  Recorder // nil disables the delivery log
	logger    *slog.Logger
}

// NewDispatcher wires a dispatcher. recorder may be nil.
func NewDispatcher(registry *policy.Registry, responder Responder, recorder Recorder, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		responder: responder,
		recorder:  recorder,
		logger:    logger,
	}
}

// Dispatch processes one delivery. It never returns an error: every
// failure is logged and absorbed, because the platform retries and
// eventually disables subscriptions that see non-2xx responses, and a
// local processing bug must not endanger the subscription.
func (d *Dispatcher) Dispatch(ctx context.Context, p Payload) {
	// Last-resort safety net; per-action outcomes below are the real
	// error handling.
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic during dispatch", "panic", r)
		}
	}()

	if p.Object != ObjectInstagram {
		d.logger.Debug("ignoring payload for unexpected object", "object", p.Object)
		return
	}

	deliveryID := uuid.NewString()
	logger := d.logger.With("delivery_id", deliveryID)

	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != FieldComments {
				logger.Debug("skipping change", "field", change.Field)
				continue
			}
			d.handleComment(ctx, deliveryID, logger, change.Value.Event())
		}
	}
}

func (d *Dispatcher) handleComment(ctx context.Context, deliveryID string, logger *slog.Logger, ev CommentEvent) {
	logger.Info("comment received",
		"comment_id", ev.CommentID,
		"post_id", ev.PostID,
		"username", ev.Username,
		"text", ev.Text,
	)

	pol := d.registry.Resolve(ev.PostID)
	if !pol.Enabled {
		logger.Info("post not configured for auto-response", "post_id", ev.PostID)
		return
	}

	// Both actions run sequentially; a failed reply never blocks the DM.
	if reply := d.registry.SelectReply(pol); reply != "" {
		message := instagram.TruncateMessage(policy.Render(reply, ev.Username), maxReplyLen)
		ok := d.responder.ReplyToComment(ctx, ev.CommentID, message)
		if ok {
			logger.Info("comment reply sent", "comment_id", ev.CommentID, "username", ev.Username)
		} else {
			logger.Error("comment reply failed", "comment_id", ev.CommentID)
		}
		d.record(ctx, deliveryID, logger, ev, storage.ActionReply, ok)
	}

	if pol.DMMessage != "" {
		message := instagram.TruncateMessage(policy.Render(pol.DMMessage, ev.Username), maxReplyLen)
		ok := d.responder.SendPrivateReply(ctx, ev.CommentID, message)
		if ok {
			logger.Info("private reply sent", "comment_id", ev.CommentID, "username", ev.Username)
		} else {
			logger.Error("private reply failed", "comment_id", ev.CommentID)
		}
		d.record(ctx, deliveryID, logger, ev, storage.ActionDM, ok)
	}
}

// record writes an audit entry when a delivery log is configured.
// Logging failures never affect dispatch.
func (d *Dispatcher) record(ctx context.Context, deliveryID string, logger *slog.Logger, ev CommentEvent, action string, success bool) {
	if d.recorder == nil {
		return
	}

	detail := ""
	if !success {
		detail = "outbound call failed"
	}
	err := d.recorder.Record(ctx, storage.Entry{
		DeliveryID: deliveryID,
		CommentID:  ev.CommentID,
		PostID:     ev.PostID,
		Username:   ev.Username,
		Action:     action,
		Success:    success,
		Detail:     detail,
	})
	if err != nil {
		logger.Warn("delivery log write failed", "error", err)
	}
}
