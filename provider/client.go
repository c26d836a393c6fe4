package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the provider's official API endpoint.
	DefaultBaseURL = "https://api.openai.com/v1"

	// ProxyBaseURL is the third-party relay endpoint used in proxy mode.
	ProxyBaseURL = "https://proxy.aichat.dev/v1"

	defaultTimeout = 5 * time.Minute
)

// RESTClient implements Client against the provider's HTTP API.
type RESTClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewRESTClient creates a REST client. An empty apiKey is an error; an empty
// baseURL selects the official endpoint.
func NewRESTClient(apiKey, baseURL string) (*RESTClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &RESTClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// CreateResponse implements Client.CreateResponse.
func (c *RESTClient) CreateResponse(ctx context.Context, req *Request) (*Response, error) {
	var resp Response
	if err := c.doJSON(ctx, http.MethodPost, "/responses", req, &resp); err != nil {
		return nil, err
	}
	return checkEmbeddedError(&resp)
}

// RetrieveResponse implements Client.RetrieveResponse.
func (c *RESTClient) RetrieveResponse(ctx context.Context, id string) (*Response, error) {
	var resp Response
	path := "/responses/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return checkEmbeddedError(&resp)
}

// CancelResponse implements Client.CancelResponse.
func (c *RESTClient) CancelResponse(ctx context.Context, id string) (*Response, error) {
	var resp Response
	path := "/responses/" + url.PathEscape(id) + "/cancel"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateConversation implements Client.CreateConversation.
func (c *RESTClient) CreateConversation(ctx context.Context) (*Conversation, error) {
	var conv Conversation
	if err := c.doJSON(ctx, http.MethodPost, "/conversations", map[string]any{}, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversationItems implements Client.ListConversationItems.
func (c *RESTClient) ListConversationItems(ctx context.Context, conversationID, order string) (*ItemList, error) {
	var list ItemList
	path := "/conversations/" + url.PathEscape(conversationID) + "/items"
	if order != "" {
		path += "?order=" + url.QueryEscape(order)
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ContainerFileContent implements Client.ContainerFileContent.
func (c *RESTClient) ContainerFileContent(ctx context.Context, containerID, fileID string) ([]byte, error) {
	path := "/containers/" + url.PathEscape(containerID) + "/files/" + url.PathEscape(fileID) + "/content"
	return c.doRaw(ctx, http.MethodGet, path)
}

// doJSON performs a JSON request/response round trip. Non-2xx statuses are
// decoded into *APIError and returned unmodified to the caller.
func (c *RESTClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	data, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

func (c *RESTClient) doRaw(ctx context.Context, method, path string) ([]byte, error) {
	return c.do(ctx, method, path, nil)
}

func (c *RESTClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp.StatusCode, data)
	}
	return data, nil
}

// checkEmbeddedError surfaces a failed response's embedded error object.
// Background responses report failures in-band with a 200 status.
func checkEmbeddedError(resp *Response) (*Response, error) {
	if resp.Error != nil && resp.Error.Message != "" && resp.Status == "failed" {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Type:       resp.Error.Type,
			Code:       resp.Error.Code,
			Message:    resp.Error.Message,
		}
	}
	return resp, nil
}
