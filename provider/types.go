package provider

import (
	"context"
	"encoding/json"
)

// Client is the interface the conversational core needs from the provider.
// Implementations handle transport details; the core never inspects raw HTTP.
type Client interface {
	// CreateResponse submits a generation request.
	CreateResponse(ctx context.Context, req *Request) (*Response, error)

	// RetrieveResponse fetches the current state of a response by id,
	// used for polling background-mode generations.
	RetrieveResponse(ctx context.Context, id string) (*Response, error)

	// CancelResponse cancels an in-flight background response.
	CancelResponse(ctx context.Context, id string) (*Response, error)

	// CreateConversation creates server-side conversation state.
	CreateConversation(ctx context.Context) (*Conversation, error)

	// ListConversationItems returns one page of items for a conversation.
	ListConversationItems(ctx context.Context, conversationID, order string) (*ItemList, error)

	// ContainerFileContent fetches the raw bytes of a code-execution artifact.
	ContainerFileContent(ctx context.Context, containerID, fileID string) ([]byte, error)
}

// Request is the outbound wire shape of a generation request.
type Request struct {
	Model              string      `json:"model"`
	Input              []InputItem `json:"input"`
	Background         bool        `json:"background,omitempty"`
	Tools              []Tool      `json:"tools,omitempty"`
	Text               *TextConfig `json:"text,omitempty"`
	Reasoning          *Reasoning  `json:"reasoning,omitempty"`
	Conversation       string      `json:"conversation,omitempty"`
	PreviousResponseID string      `json:"previous_response_id,omitempty"`
}

// InputItem is one role-tagged message in the request input. Content is
// either a plain string or a list of typed input parts.
type InputItem struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// InputPart is one typed fragment of a multimodal input message.
type InputPart struct {
	Type     string `json:"type"` // input_text | input_image | input_file
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Filename string `json:"filename,omitempty"`
	FileData string `json:"file_data,omitempty"`
}

// Tool enables one provider-side tool for a request.
type Tool struct {
	Type      string     `json:"type"` // web_search | image_generation | code_interpreter
	Container *Container `json:"container,omitempty"`
}

// Container selects the execution container for the code-interpreter tool.
type Container struct {
	Type string `json:"type"` // "auto"
}

// TextConfig carries the structured-output format and/or verbosity setting.
type TextConfig struct {
	Format    map[string]any `json:"format,omitempty"`
	Verbosity string         `json:"verbosity,omitempty"`
}

// Reasoning carries reasoning-effort controls.
type Reasoning struct {
	Effort  string `json:"effort"`
	Summary string `json:"summary,omitempty"`
}

// Response is the decoded wire shape of a provider response.
type Response struct {
	ID           string           `json:"id"`
	Object       string           `json:"object"`
	CreatedAt    int64            `json:"created_at"`
	Status       string           `json:"status"`
	Background   bool             `json:"background"`
	Model        string           `json:"model"`
	OutputText   string           `json:"output_text"`
	Output       []OutputItem     `json:"output"`
	Usage        *Usage           `json:"usage"`
	Conversation *ConversationRef `json:"conversation"`
	Error        *ErrorBody       `json:"error"`
}

// OutputItem is one typed item of the response output list.
type OutputItem struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"` // message | image_generation_call | reasoning | ...
	Status  string          `json:"status,omitempty"`
	Role    string          `json:"role,omitempty"`
	Content []OutputContent `json:"content,omitempty"`
	// Result carries the base64 image payload of an image_generation_call.
	Result string `json:"result,omitempty"`
}

// OutputContent is one content part of a message output item.
type OutputContent struct {
	Type        string       `json:"type"` // output_text | refusal | ...
	Text        string       `json:"text,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Annotation marks a container file attached to an output text part.
type Annotation struct {
	Type        string `json:"type"` // container_file_citation
	ContainerID string `json:"container_id,omitempty"`
	FileID      string `json:"file_id,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

// Usage holds token accounting as reported by the provider.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// ConversationRef is the conversation reference embedded in a response.
type ConversationRef struct {
	ID string `json:"id"`
}

// Conversation is the wire shape returned when creating a conversation.
type Conversation struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	CreatedAt int64  `json:"created_at"`
}

// Item is one entry of a conversation item listing. The provider emits many
// item shapes (messages, reasoning, tool calls); only the common fields are
// typed and the rest stays available through Raw.
type Item struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Role    string          `json:"role,omitempty"`
	Status  string          `json:"status,omitempty"`
	Content []OutputContent `json:"content,omitempty"`
	Raw     map[string]any  `json:"-"`
}

// UnmarshalJSON decodes the typed fields and keeps the full object in Raw so
// callers can reach provider fields this package does not model.
func (it *Item) UnmarshalJSON(b []byte) error {
	type plain Item
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*it = Item(p)
	return json.Unmarshal(b, &it.Raw)
}

// ItemList is one page of conversation items.
type ItemList struct {
	Object  string `json:"object"`
	Data    []Item `json:"data"`
	FirstID string `json:"first_id"`
	LastID  string `json:"last_id"`
	HasMore bool   `json:"has_more"`
}

// ErrorBody is the provider's embedded error object.
type ErrorBody struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TextOutput returns the response's top-level text. When the convenience
// field is absent (retrieve endpoints omit it), the message output item's
// output_text part is used instead. Reasoning items may precede the message
// item, so the list is scanned rather than indexed.
func (r *Response) TextOutput() string {
	if r.OutputText != "" {
		return r.OutputText
	}
	for _, item := range r.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				return part.Text
			}
		}
	}
	return ""
}
