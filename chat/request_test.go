package chat

import (
	"context"
	"testing"

	"github.com/aschepis/aichat/llm"
	"github.com/aschepis/aichat/provider"
)

func TestBuildRequest_ToolOrder(t *testing.T) {
	c := newTestChat(t, &fakeClient{})
	c.ConversationID = "conv_x"
	c.WebSearch = true
	c.ImageGeneration = true
	c.CodeInterpreter = true

	req, err := c.buildRequest(context.Background())
	if err != nil {
		t.Fatalf("buildRequest returned error: %v", err)
	}

	want := []string{"web_search", "image_generation", "code_interpreter"}
	if len(req.Tools) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(req.Tools))
	}
	for i, tool := range req.Tools {
		if tool.Type != want[i] {
			t.Errorf("tools[%d] = %q, want %q", i, tool.Type, want[i])
		}
	}
	if req.Tools[2].Container == nil || req.Tools[2].Container.Type != "auto" {
		t.Error("code_interpreter should run in an auto container")
	}
}

func TestBuildRequest_NoToolsOmitsList(t *testing.T) {
	c := newTestChat(t, &fakeClient{})
	c.ConversationID = "conv_x"

	req, err := c.buildRequest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if req.Tools != nil {
		t.Errorf("tools should be omitted when none are enabled, got %v", req.Tools)
	}
	if req.Background {
		t.Error("background should be off by default")
	}
	if req.Text != nil || req.Reasoning != nil {
		t.Error("text and reasoning should be omitted when unset")
	}
}

func TestBuildRequest_ReasoningAndVerbosity(t *testing.T) {
	c := newTestChat(t, &fakeClient{})
	c.ConversationID = "conv_x"
	if err := c.SetReasoningEffort("high"); err != nil {
		t.Fatal(err)
	}
	if err := c.SetVerbosity("low"); err != nil {
		t.Fatal(err)
	}

	req, err := c.buildRequest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if req.Reasoning == nil || req.Reasoning.Effort != "high" || req.Reasoning.Summary != "auto" {
		t.Errorf("reasoning = %+v", req.Reasoning)
	}
	if req.Text == nil || req.Text.Verbosity != "low" {
		t.Errorf("text = %+v", req.Text)
	}
}

// Building a request with fork id R must include exactly the messages
// strictly after the message carrying R.
func TestBuildRequest_ForkSlicing(t *testing.T) {
	c := newTestChat(t, &fakeClient{})

	mustAdd := func(role llm.Role, text string, opts ...MessageOption) *llm.Message {
		t.Helper()
		msg, err := c.Add(role, text, opts...)
		if err != nil {
			t.Fatal(err)
		}
		return msg
	}

	mustAdd(llm.RoleSystem, "be brief")
	mustAdd(llm.RoleUser, "first question")
	mustAdd(llm.RoleAssistant, "first answer", WithResponse(&llm.ResponseInfo{ID: "resp_A"}))
	mustAdd(llm.RoleUser, "second question")

	c.LastResponseID = "resp_A"
	req, err := c.buildRequest(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if req.PreviousResponseID != "resp_A" {
		t.Errorf("previous_response_id = %q, want resp_A", req.PreviousResponseID)
	}
	if req.Conversation != "" {
		t.Error("fork requests must not also carry a conversation anchor")
	}
	if len(req.Input) != 1 {
		t.Fatalf("expected only the message after the fork point, got %d items", len(req.Input))
	}
	if req.Input[0].Content != "second question" {
		t.Errorf("input[0] = %v", req.Input[0].Content)
	}
}

// A fork id obtained externally (no local message carries it) falls back to
// sending the full history.
func TestBuildRequest_ForkUnknownIDSendsFullHistory(t *testing.T) {
	c := newTestChat(t, &fakeClient{})
	if _, err := c.User("only message"); err != nil {
		t.Fatal(err)
	}
	c.LastResponseID = "resp_external"

	req, err := c.buildRequest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Input) != 1 {
		t.Errorf("expected full history fallback, got %d items", len(req.Input))
	}
}

// Scenario: session B forks from a response produced elsewhere and must send
// only its own new user message.
func TestForkContinuationAcrossSessions(t *testing.T) {
	fcA := &fakeClient{
		createFn: func(_ context.Context, _ *provider.Request) (*provider.Response, error) {
			return completedResponse("resp_R", "answer from A"), nil
		},
	}
	a := newTestChat(t, fcA)
	if _, err := a.User("long earlier history"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}

	fcB := &fakeClient{}
	b := newTestChat(t, fcB)
	b.LastResponseID = "resp_R"
	if _, err := b.User("new question"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}

	req := fcB.createReqs[0]
	if req.PreviousResponseID != "resp_R" {
		t.Errorf("previous_response_id = %q, want resp_R", req.PreviousResponseID)
	}
	if len(req.Input) != 1 || req.Input[0].Content != "new question" {
		t.Errorf("fork request should contain only the new user message, got %+v", req.Input)
	}
	if fcB.convCalls != 0 {
		t.Error("fork continuation must not create a conversation")
	}
}

func TestBuildRequest_ConversationSlicing(t *testing.T) {
	c := newTestChat(t, &fakeClient{})
	c.ConversationID = "conv_x"

	if _, err := c.User("first"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Assistant("answer", WithResponse(&llm.ResponseInfo{ID: "resp_1"})); err != nil {
		t.Fatal(err)
	}
	if _, err := c.User("second"); err != nil {
		t.Fatal(err)
	}

	req, err := c.buildRequest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if req.Conversation != "conv_x" {
		t.Errorf("conversation = %q, want conv_x", req.Conversation)
	}
	if len(req.Input) != 1 || req.Input[0].Content != "second" {
		t.Errorf("conversation request should slice after the last response, got %+v", req.Input)
	}
}

func TestBuildRequest_ConversationWithoutResponsesSendsAll(t *testing.T) {
	c := newTestChat(t, &fakeClient{})
	c.ConversationID = "conv_resumed"
	if _, err := c.System("sys"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.User("hello"); err != nil {
		t.Fatal(err)
	}

	req, err := c.buildRequest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Input) != 2 {
		t.Errorf("expected full message list, got %d items", len(req.Input))
	}
}

func TestBuildRequest_StripsEnvelopeAndSerializesParsed(t *testing.T) {
	c := newTestChat(t, &fakeClient{})
	c.ConversationID = "conv_x"

	content := `{"color":"red"}`
	msg := &llm.Message{
		Role:     llm.RoleAssistant,
		Content:  &content,
		Parsed:   map[string]any{"color": "red"},
		Response: &llm.ResponseInfo{ID: "resp_old"},
	}
	c.messages = append(c.messages, msg)
	if _, err := c.User("next"); err != nil {
		t.Fatal(err)
	}
	// Force the full history to be sent.
	c.messages[0].Response = nil

	req, err := c.buildRequest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Input) != 2 {
		t.Fatalf("expected 2 input items, got %d", len(req.Input))
	}
	text, ok := req.Input[0].Content.(string)
	if !ok {
		t.Fatalf("structured content should be serialized to a JSON string, got %T", req.Input[0].Content)
	}
	if text != `{"color":"red"}` {
		t.Errorf("serialized content = %q", text)
	}
}

func TestBuildRequest_MultimodalWireParts(t *testing.T) {
	c := newTestChat(t, &fakeClient{})
	c.ConversationID = "conv_x"

	if _, err := c.User("look at this", WithImage("https://example.com/a.png")); err != nil {
		t.Fatal(err)
	}
	req, err := c.buildRequest(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	parts, ok := req.Input[0].Content.([]provider.InputPart)
	if !ok {
		t.Fatalf("multimodal content should be a part list, got %T", req.Input[0].Content)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0].Type != "input_text" || parts[0].Text != "look at this" {
		t.Errorf("parts[0] = %+v", parts[0])
	}
	if parts[1].Type != "input_image" || parts[1].ImageURL != "https://example.com/a.png" {
		t.Errorf("parts[1] = %+v", parts[1])
	}
}

func TestBuildRequest_ForkTakesPrecedenceOverConversation(t *testing.T) {
	c := newTestChat(t, &fakeClient{})
	c.ConversationID = "conv_x"
	c.LastResponseID = "resp_y"

	req, err := c.buildRequest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if req.PreviousResponseID != "resp_y" {
		t.Error("fork id should take precedence")
	}
	if req.Conversation != "" {
		t.Error("conversation anchor must be dropped when forking")
	}
}
