package chat

import (
	"github.com/aschepis/aichat/llm"
)

// addConfig collects attachment and envelope options for Add.
type addConfig struct {
	image    any
	images   []any
	file     any
	files    []any
	response *llm.ResponseInfo
	status   llm.Status
}

// MessageOption attaches rich content or metadata to a message being added.
type MessageOption func(*addConfig)

// WithImage attaches a single image (URL string, local path, or reader).
func WithImage(v any) MessageOption {
	return func(cfg *addConfig) { cfg.image = v }
}

// WithImages attaches multiple images. An empty call is a no-op.
func WithImages(vs ...any) MessageOption {
	return func(cfg *addConfig) { cfg.images = append(cfg.images, vs...) }
}

// WithFile attaches a single file (URL string, local path, or reader). Only
// PDF and text files are supported.
func WithFile(v any) MessageOption {
	return func(cfg *addConfig) { cfg.file = v }
}

// WithFiles attaches multiple files. An empty call is a no-op.
func WithFiles(vs ...any) MessageOption {
	return func(cfg *addConfig) { cfg.files = append(cfg.files, vs...) }
}

// WithResponse attaches a response envelope to the message.
func WithResponse(info *llm.ResponseInfo) MessageOption {
	return func(cfg *addConfig) { cfg.response = info }
}

// WithStatus tags the message with a lifecycle status.
func WithStatus(status llm.Status) MessageOption {
	return func(cfg *addConfig) { cfg.status = status }
}

// Add appends a message to the session and returns it so callers can chain
// off the created record. With no attachment options the content stays a
// plain string; otherwise a content-part sequence is built, text first, then
// images (singular first), then files (singular first). Attachment encoding
// errors surface here, before any network call.
func (c *Chat) Add(role llm.Role, content string, opts ...MessageOption) (*llm.Message, error) {
	var cfg addConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	msg := &llm.Message{
		Role:     role,
		Response: cfg.response,
		Status:   cfg.status,
	}

	images := cfg.images
	if cfg.image != nil {
		images = append([]any{cfg.image}, images...)
	}
	files := cfg.files
	if cfg.file != nil {
		files = append([]any{cfg.file}, files...)
	}

	if len(images) == 0 && len(files) == 0 {
		msg.Content = &content
		c.messages = append(c.messages, msg)
		return msg, nil
	}

	parts := []llm.ContentPart{{Kind: llm.PartText, Text: content}}
	for _, img := range images {
		url, err := llm.EncodeImage(img)
		if err != nil {
			return nil, err
		}
		parts = append(parts, llm.ContentPart{Kind: llm.PartImage, ImageURL: url})
	}
	for _, f := range files {
		part, err := llm.EncodeFile(f)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	msg.Parts = parts

	c.messages = append(c.messages, msg)
	return msg, nil
}

// System appends a system message.
func (c *Chat) System(content string, opts ...MessageOption) (*llm.Message, error) {
	return c.Add(llm.RoleSystem, content, opts...)
}

// User appends a user message.
func (c *Chat) User(content string, opts ...MessageOption) (*llm.Message, error) {
	return c.Add(llm.RoleUser, content, opts...)
}

// Assistant appends an assistant message, e.g. to seed few-shot history.
func (c *Chat) Assistant(content string, opts ...MessageOption) (*llm.Message, error) {
	return c.Add(llm.RoleAssistant, content, opts...)
}

// findByResponseID returns the index of the message whose response envelope
// carries the given id, or -1.
func (c *Chat) findByResponseID(id string) int {
	for i, msg := range c.messages {
		if msg.ResponseID() == id {
			return i
		}
	}
	return -1
}
