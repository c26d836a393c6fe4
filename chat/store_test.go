package chat

import (
	"testing"

	"github.com/aschepis/aichat/llm"
)

func TestAdd_PlainText(t *testing.T) {
	c := newTestChat(t, &fakeClient{})

	msg, err := c.User("hello")
	if err != nil {
		t.Fatalf("User returned error: %v", err)
	}
	if msg != c.Messages()[0] {
		t.Error("Add should return the created message itself")
	}
	if msg.Content == nil || *msg.Content != "hello" {
		t.Error("plain text should stay a string, not a part list")
	}
	if msg.Parts != nil {
		t.Errorf("unexpected parts: %+v", msg.Parts)
	}
}

func TestAdd_EmptyAttachmentListsAreNoOps(t *testing.T) {
	c := newTestChat(t, &fakeClient{})

	msg, err := c.User("hello", WithImages(), WithFiles())
	if err != nil {
		t.Fatal(err)
	}
	if msg.Content == nil || msg.Parts != nil {
		t.Error("empty attachment lists should leave the message as plain text")
	}
}

func TestAdd_SingularAttachmentOrdersFirst(t *testing.T) {
	c := newTestChat(t, &fakeClient{})

	msg, err := c.User("compare these",
		WithImages("https://example.com/b.png", "https://example.com/c.png"),
		WithImage("https://example.com/a.png"),
	)
	if err != nil {
		t.Fatal(err)
	}

	if len(msg.Parts) != 4 {
		t.Fatalf("expected text + 3 image parts, got %d", len(msg.Parts))
	}
	if msg.Parts[0].Kind != llm.PartText || msg.Parts[0].Text != "compare these" {
		t.Errorf("parts[0] = %+v, want leading text part", msg.Parts[0])
	}
	want := []string{
		"https://example.com/a.png",
		"https://example.com/b.png",
		"https://example.com/c.png",
	}
	for i, url := range want {
		part := msg.Parts[i+1]
		if part.Kind != llm.PartImage || part.ImageURL != url {
			t.Errorf("parts[%d] = %+v, want image %q", i+1, part, url)
		}
	}
}

func TestAdd_ImagesBeforeFiles(t *testing.T) {
	c := newTestChat(t, &fakeClient{})

	msg, err := c.User("mixed",
		WithFile("https://example.com/doc.pdf"),
		WithImage("https://example.com/a.png"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(msg.Parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(msg.Parts))
	}
	if msg.Parts[1].Kind != llm.PartImage {
		t.Errorf("parts[1] = %+v, want image before file", msg.Parts[1])
	}
	if msg.Parts[2].Kind != llm.PartFile || msg.Parts[2].Filename != "doc.pdf" {
		t.Errorf("parts[2] = %+v, want the pdf file part", msg.Parts[2])
	}
}

func TestAdd_BadAttachmentFailsBeforeAnyRequest(t *testing.T) {
	fc := &fakeClient{}
	c := newTestChat(t, fc)

	_, err := c.User("look", WithImage(42))
	if err == nil {
		t.Fatal("expected error for unclassifiable attachment")
	}
	if !llm.IsClassificationError(err) {
		t.Errorf("expected ClassificationError, got %T", err)
	}
	if len(c.Messages()) != 0 {
		t.Error("a failed Add must not record a message")
	}
	if len(fc.createReqs) != 0 {
		t.Error("attachment errors must surface before any network call")
	}
}

func TestAdd_ResponseAndStatusOptions(t *testing.T) {
	c := newTestChat(t, &fakeClient{})

	info := &llm.ResponseInfo{ID: "resp_seed", Status: llm.StatusCompleted}
	msg, err := c.Assistant("seeded", WithResponse(info), WithStatus(llm.StatusCompleted))
	if err != nil {
		t.Fatal(err)
	}
	if msg.ResponseID() != "resp_seed" {
		t.Errorf("response id = %q", msg.ResponseID())
	}
	if msg.Status != llm.StatusCompleted {
		t.Errorf("status = %v", msg.Status)
	}
	if c.findByResponseID("resp_seed") != 0 {
		t.Error("seeded message should be findable by its response id")
	}
}
