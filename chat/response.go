package chat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/aschepis/aichat/llm"
	"github.com/aschepis/aichat/provider"
)

// artifactTimestampLayout names per-response artifact folders; combined with
// the response id it keeps concurrent generations from colliding.
const artifactTimestampLayout = "20060102T150405"

// parseResponse reshapes a provider response into the session's canonical
// assistant message and reconciles it into the message list.
func (c *Chat) parseResponse(ctx context.Context, resp *provider.Response) (*llm.Message, error) {
	if resp.Conversation != nil && resp.Conversation.ID != "" {
		c.ConversationID = resp.Conversation.ID
	}

	status := llm.Status(resp.Status)
	if status == "" {
		status = llm.StatusCompleted
	}
	text := resp.TextOutput()

	var parsed map[string]any
	if c.schema != nil && status == llm.StatusCompleted {
		if text == "" {
			return nil, &llm.SchemaError{Message: "no text content to parse for schema"}
		}
		if err := json.Unmarshal([]byte(text), &parsed); err != nil {
			return nil, &llm.SchemaError{Message: "response text is not valid JSON for the active schema", Err: err}
		}
	}

	info := &llm.ResponseInfo{
		ID:     resp.ID,
		Model:  resp.Model,
		Status: status,
		Images: c.saveArtifacts(ctx, resp),
	}
	if resp.Usage != nil {
		info.Usage = llm.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		}
		info.TotalTokens = resp.Usage.TotalTokens
	}

	// Reconcile: a background placeholder already carrying this response id
	// is replaced in place; anything else appends.
	var msg *llm.Message
	if idx := c.findByResponseID(resp.ID); idx >= 0 {
		msg = c.messages[idx]
	} else {
		msg = &llm.Message{Role: llm.RoleAssistant}
		c.messages = append(c.messages, msg)
	}
	msg.Content = &text
	msg.Parsed = parsed
	msg.Status = status
	msg.Response = info

	switch {
	case c.Background && c.ConversationID != "":
		// The conversation carries continuity; track the in-flight id only
		// until the poll completes.
		if status.Terminal() {
			c.pendingResponseID = ""
		} else {
			c.pendingResponseID = resp.ID
		}
	case c.ConversationID != "":
		// The conversation anchors the next request; advancing the fork id
		// here would shadow it and drop later turns from the conversation.
	default:
		c.LastResponseID = resp.ID
	}

	return msg, nil
}

// saveArtifacts writes generated images and code-execution files under a
// per-response subfolder and returns the written paths. Each artifact
// failure is downgraded to a warning; the textual response is still valid
// and more valuable than the side artifact.
func (c *Chat) saveArtifacts(ctx context.Context, resp *provider.Response) []string {
	var (
		saved []string
		dir   string
		seq   int
	)

	ensureDir := func() error {
		if dir != "" {
			return nil
		}
		id := resp.ID
		if id == "" {
			id = uuid.NewString()
		}
		dir = filepath.Join(c.ImageFolder, c.now().Format(artifactTimestampLayout)+"_"+id)
		return os.MkdirAll(dir, 0o750)
	}

	for _, item := range resp.Output {
		if item.Type != "image_generation_call" || item.Result == "" {
			continue
		}
		path, err := c.saveImage(ensureDir, &dir, &seq, item.Result)
		if err != nil {
			c.log.Warn().Err(err).Str("response_id", resp.ID).Msg("failed to save generated image")
			continue
		}
		saved = append(saved, path)
	}

	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			for _, ann := range part.Annotations {
				if ann.Type != "container_file_citation" {
					continue
				}
				path, err := c.saveContainerFile(ctx, ensureDir, &dir, ann)
				if err != nil {
					c.log.Warn().Err(err).
						Str("response_id", resp.ID).
						Str("file_id", ann.FileID).
						Msg("failed to save code-execution artifact")
					continue
				}
				saved = append(saved, path)
			}
		}
	}

	return saved
}

func (c *Chat) saveImage(ensureDir func() error, dir *string, seq *int, b64 string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("decode image payload: %w", err)
	}
	if err := ensureDir(); err != nil {
		return "", err
	}
	path := filepath.Join(*dir, fmt.Sprintf("%03d.png", *seq))
	*seq++
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func (c *Chat) saveContainerFile(ctx context.Context, ensureDir func() error, dir *string, ann provider.Annotation) (string, error) {
	data, err := c.client.ContainerFileContent(ctx, ann.ContainerID, ann.FileID)
	if err != nil {
		return "", err
	}
	if err := ensureDir(); err != nil {
		return "", err
	}
	name := filepath.Base(ann.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = ann.FileID
	}
	path := filepath.Join(*dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
