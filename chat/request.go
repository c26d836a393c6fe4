package chat

import (
	"context"
	"encoding/json"

	"github.com/samber/lo"

	"github.com/aschepis/aichat/llm"
	"github.com/aschepis/aichat/provider"
)

// buildRequest assembles the outbound request: model, tools, structured
// output, reasoning controls, and exactly one continuation anchor.
func (c *Chat) buildRequest(ctx context.Context) (*provider.Request, error) {
	req := &provider.Request{
		Model:      c.Model,
		Background: c.Background,
	}

	if c.WebSearch {
		req.Tools = append(req.Tools, provider.Tool{Type: "web_search"})
	}
	if c.ImageGeneration {
		req.Tools = append(req.Tools, provider.Tool{Type: "image_generation"})
	}
	if c.CodeInterpreter {
		req.Tools = append(req.Tools, provider.Tool{
			Type:      "code_interpreter",
			Container: &provider.Container{Type: "auto"},
		})
	}

	if c.schema != nil {
		req.Text = &provider.TextConfig{Format: c.schema.FormatMap()}
	}
	if c.verbosity != "" {
		if req.Text == nil {
			req.Text = &provider.TextConfig{}
		}
		req.Text.Verbosity = c.verbosity
	}
	if c.reasoningEffort != "" {
		req.Reasoning = &provider.Reasoning{Effort: c.reasoningEffort, Summary: "auto"}
	}

	// Continuation strategy, in priority order: fork id, conversation id,
	// lazily created conversation. Exactly one anchor per request.
	switch {
	case c.LastResponseID != "":
		if c.ConversationID != "" {
			c.log.Warn().
				Str("previous_response_id", c.LastResponseID).
				Str("conversation_id", c.ConversationID).
				Msg("both a response fork id and a conversation id are set; the fork id takes precedence")
		}
		req.PreviousResponseID = c.LastResponseID
		req.Input = c.wireInput(c.messagesAfterResponse(c.LastResponseID))
	case c.ConversationID != "":
		req.Conversation = c.ConversationID
		req.Input = c.wireInput(c.messagesAfterLastResponse())
	default:
		conv, err := c.client.CreateConversation(ctx)
		if err != nil {
			return nil, err
		}
		c.ConversationID = conv.ID
		req.Conversation = conv.ID
		req.Input = c.wireInput(c.messages)
	}

	return req, nil
}

// messagesAfterResponse returns the messages strictly after the one whose
// response envelope id matches. When no local message carries the id (e.g.
// resuming from an externally obtained fork id) the full history is sent.
func (c *Chat) messagesAfterResponse(id string) []*llm.Message {
	if idx := c.findByResponseID(id); idx >= 0 {
		return c.messages[idx+1:]
	}
	return c.messages
}

// messagesAfterLastResponse slices relative to the most recent message that
// carries a response envelope: the server-side conversation already retains
// everything up to and including that turn.
func (c *Chat) messagesAfterLastResponse() []*llm.Message {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Response != nil {
			return c.messages[i+1:]
		}
	}
	return c.messages
}

// wireInput converts messages to the wire shape, stripping response
// envelopes and serializing structured content back into JSON text.
// Placeholder messages awaiting a background fill are skipped.
func (c *Chat) wireInput(msgs []*llm.Message) []provider.InputItem {
	sendable := lo.Filter(msgs, func(m *llm.Message, _ int) bool {
		return m.Content != nil || len(m.Parts) > 0
	})
	return lo.Map(sendable, func(m *llm.Message, _ int) provider.InputItem {
		return provider.InputItem{Role: string(m.Role), Content: wireContent(m)}
	})
}

func wireContent(m *llm.Message) any {
	if len(m.Parts) > 0 {
		return lo.Map(m.Parts, func(p llm.ContentPart, _ int) provider.InputPart {
			return wirePart(p)
		})
	}
	// Structured assistant content goes back as its JSON text; the wire
	// format does not accept nested objects in the content slot.
	if m.Parsed != nil {
		if data, err := json.Marshal(m.Parsed); err == nil {
			return string(data)
		}
	}
	return *m.Content
}

func wirePart(p llm.ContentPart) provider.InputPart {
	switch p.Kind {
	case llm.PartImage:
		return provider.InputPart{Type: "input_image", ImageURL: p.ImageURL}
	case llm.PartFile:
		return provider.InputPart{Type: "input_file", Filename: p.Filename, FileData: p.FileData}
	default:
		return provider.InputPart{Type: "input_text", Text: p.Text}
	}
}
