package webhook

// Platform constants from the Meta webhook contract.
const (
	// ObjectInstagram is the payload object value for Instagram events.
	ObjectInstagram = "instagram"

	// FieldComments marks a change entry carrying a comment event.
	FieldComments = "comments"

	// SignatureHeader carries the HMAC signature of the raw body.
	SignatureHeader = "X-Hub-Signature-256"

	// DefaultUsername is used when the payload omits the commenter's
	// username.
	DefaultUsername = "user"
)

// Default values.
const (
	DefaultMaxBodySize = 1048576 // 1 MB
)

// Payload is the notification envelope Meta POSTs to the webhook.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one account-level notification batch.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change is a single field change within an entry.
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue holds the comment data for a "comments" change. Missing
// fields decode to zero values; the dispatcher treats those as defaults
// rather than errors.
type ChangeValue struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Media struct {
		ID string `json:"id"`
	} `json:"media"`
	From struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"from"`
}

// CommentEvent is the normalized form of one comment notification. It
// lives for the duration of a single dispatch and is never persisted.
type CommentEvent struct {
	CommentID string
	PostID    string
	UserID    string
	Username  string
	Text      string
}

// Event builds a CommentEvent from a change value, applying the
// username placeholder for anonymous payloads.
func (v ChangeValue) Event() CommentEvent {
	username := v.From.Username
	if username == "" {
		username = DefaultUsername
	}
	return CommentEvent{
		CommentID: v.ID,
		PostID:    v.Media.ID,
		UserID:    v.From.ID,
		Username:  username,
		Text:      v.Text,
	}
}
