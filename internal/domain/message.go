package domain

import "time"

// Message is one incoming chat message, owned by the moderation loop for the
// duration of a single check.
type Message struct {
	Channel    string
	ChatID     int64
	MessageID  int
	SenderID   int64
	SenderName string
	Content    string
	Timestamp  time.Time
}

// Verdict sources.
const (
	SourceLexicon    = "lexicon"
	SourceClassifier = "classifier"
	SourceCache      = "cache"
	SourceFailOpen   = "fail-open"
	SourceFailClosed = "fail-closed"
)

// Verdict is the outcome of one moderation check. Derived, never persisted.
type Verdict struct {
	Flagged bool
	Source  string // lexicon | classifier | cache | fail-open | fail-closed
	Term    string // matched lexicon entry, if any
	Reason  string
}

// ActionType identifies an outbound platform action.
type ActionType string

const (
	ActionDelete ActionType = "delete"
	ActionWarn   ActionType = "warn"
	ActionReply  ActionType = "reply"
)

// Action is an outbound instruction for a channel: delete a message, warn a
// chat, or reply with a fixed text. Source and Term carry the verdict
// context through to the audit log.
type Action struct {
	Type       ActionType
	Channel    string
	ChatID     int64
	MessageID  int
	SenderID   int64
	SenderName string
	Text       string
	Source     string
	Term       string
}
