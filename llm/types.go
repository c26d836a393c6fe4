package llm

import (
	"encoding/json"
)

// Role identifies the author of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Status is the lifecycle state of a generation, mirroring the provider's
// response status values.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
	StatusIncomplete Status = "incomplete"
)

// Terminal reports whether the status will no longer change on its own.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed, StatusIncomplete:
		return true
	}
	return false
}

// PartKind is the type of a single content part within a multimodal message.
type PartKind string

const (
	PartText  PartKind = "text"
	PartImage PartKind = "image"
	PartFile  PartKind = "file"
)

// ContentPart is one typed fragment of a multimodal message's content.
// Exactly the fields relevant to Kind are populated.
type ContentPart struct {
	Kind     PartKind
	Text     string // PartText
	ImageURL string // PartImage: remote URL or base64 data URI
	Filename string // PartFile
	FileData string // PartFile: data URI or remote URL
}

// Usage holds token accounting for a single provider response.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ResponseInfo is the envelope attached to an assistant message after a
// generation completes (or, in background mode, after it is created).
type ResponseInfo struct {
	ID          string
	Model       string
	Usage       Usage
	TotalTokens int64
	// Images lists the local paths of all artifacts saved for this response,
	// code-execution files included.
	Images []string
	Status Status
}

// Message is the atomic conversational unit. Content holds plain text and
// Parts holds rich multimodal content; at most one of the two is set. A nil
// Content with nil Parts is a placeholder awaiting a background fill.
type Message struct {
	Role     Role
	Content  *string
	Parts    []ContentPart
	Response *ResponseInfo
	Status   Status
	// Parsed is the structured value decoded from Content when a schema was
	// active for the generation that produced this message.
	Parsed map[string]any
}

// NewTextMessage creates a message with plain string content.
func NewTextMessage(role Role, text string) *Message {
	return &Message{Role: role, Content: &text}
}

// Text returns the plain content, or the text of the first text part for
// multimodal messages. Placeholder messages return "".
func (m *Message) Text() string {
	if m.Content != nil {
		return *m.Content
	}
	for _, p := range m.Parts {
		if p.Kind == PartText {
			return p.Text
		}
	}
	return ""
}

// ResponseID returns the id of the attached response envelope, or "".
func (m *Message) ResponseID() string {
	if m.Response == nil {
		return ""
	}
	return m.Response.ID
}

// ToJSON marshals a message to JSON for debugging/logging purposes.
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
