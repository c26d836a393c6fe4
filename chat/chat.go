// Package chat implements a conversational session over the provider's
// Responses API: an ordered message history, multimodal input encoding,
// request assembly with continuation threading, response parsing with
// artifact extraction, and background-mode polling.
package chat

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/aschepis/aichat/config"
	"github.com/aschepis/aichat/llm"
	"github.com/aschepis/aichat/provider"
	"github.com/aschepis/aichat/schema"
)

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "gpt-4.1-nano"

	// DefaultImageFolder is where generated artifacts are written.
	DefaultImageFolder = "./images"

	defaultAPIKeyEnvVar = "OPENAI_API_KEY"
)

var validLevels = []string{"low", "medium", "high"}

// Chat is a single conversational session. It owns its message list
// exclusively and is not safe for concurrent use; all durable state lives
// server-side (the conversation id) or on disk (saved artifacts).
type Chat struct {
	// Model is the provider model identifier.
	Model string

	// Background enables asynchronous generation; results are observed by
	// polling with GetResponse.
	Background bool

	// WebSearch, ImageGeneration and CodeInterpreter enable the
	// corresponding provider-side tools.
	WebSearch       bool
	ImageGeneration bool
	CodeInterpreter bool

	// ImageFolder is the output directory for generated artifacts.
	ImageFolder string

	// ConversationID is the server-side conversation handle. It is created
	// lazily on the first Generate call when unset; setting it resumes an
	// existing conversation.
	ConversationID string

	// LastResponseID anchors the next request to continue from a specific
	// prior response ("fork"). When both LastResponseID and ConversationID
	// are set, the fork id takes precedence and a warning is logged.
	LastResponseID string

	messages        []*llm.Message
	schema          *schema.Schema
	reasoningEffort string
	verbosity       string

	client    provider.Client
	apiKey    string
	baseURL   string
	proxy     bool
	validated bool
	log       zerolog.Logger

	// pendingResponseID tracks an in-flight background response when the
	// conversation id carries continuity and LastResponseID is left alone.
	pendingResponseID string

	// Test hooks.
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// Option configures a Chat at construction time.
type Option func(*Chat) error

// WithAPIKey supplies the bearer credential explicitly.
func WithAPIKey(key string) Option {
	return func(c *Chat) error {
		c.apiKey = key
		return nil
	}
}

// WithAPIKeyEnv sources the bearer credential from the named environment
// variable. A missing variable is a construction-time ConfigError.
func WithAPIKeyEnv(name string) Option {
	return func(c *Chat) error {
		key, ok := os.LookupEnv(name)
		if !ok || key == "" {
			return llm.NewConfigError("environment variable %s is not set", name)
		}
		c.apiKey = key
		return nil
	}
}

// WithClient injects a provider client, bypassing credential sourcing.
func WithClient(client provider.Client) Option {
	return func(c *Chat) error {
		c.client = client
		c.validated = true
		return nil
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *Chat) error {
		c.Model = model
		return nil
	}
}

// WithProxy selects the third-party relay transport. The credential must be
// a proxy-issued key; the mismatch is reported on the first Generate call.
func WithProxy(proxy bool) Option {
	return func(c *Chat) error {
		c.proxy = proxy
		return nil
	}
}

// WithBaseURL points the client at a custom endpoint. A custom base URL wins
// over both the default and the proxy endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Chat) error {
		c.baseURL = baseURL
		return nil
	}
}

// WithImageFolder overrides the artifact output directory.
func WithImageFolder(folder string) Option {
	return func(c *Chat) error {
		c.ImageFolder = folder
		return nil
	}
}

// WithLogger attaches a structured logger. The default logs warnings to stderr.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Chat) error {
		c.log = log
		return nil
	}
}

// WithConfig applies a loaded configuration file.
func WithConfig(cfg *config.Config) Option {
	return func(c *Chat) error {
		if cfg.Model != "" {
			c.Model = cfg.Model
		}
		if cfg.ImageFolder != "" {
			c.ImageFolder = cfg.ImageFolder
		}
		if cfg.BaseURL != "" {
			c.baseURL = cfg.BaseURL
		}
		if cfg.Proxy != nil {
			c.proxy = *cfg.Proxy
		}
		key, err := cfg.ResolveAPIKey()
		if err != nil {
			return err
		}
		c.apiKey = key
		return nil
	}
}

// New creates a Chat session. Without options the credential comes from
// OPENAI_API_KEY and proxy mode from AICHAT_PROXY=true; a missing credential
// fails here, not on the first request.
func New(opts ...Option) (*Chat, error) {
	c := &Chat{
		Model:       DefaultModel,
		ImageFolder: DefaultImageFolder,
		proxy:       os.Getenv(config.ProxyEnvVar) == "true",
		log:         zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger(),
		now:         time.Now,
		sleep:       sleepCtx,
		jitter:      rand.Float64,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.client == nil {
		if c.apiKey == "" {
			key, ok := os.LookupEnv(defaultAPIKeyEnvVar)
			if !ok || key == "" {
				return nil, llm.NewConfigError("environment variable %s is not set", defaultAPIKeyEnvVar)
			}
			c.apiKey = key
		}
		base := provider.DefaultBaseURL
		if c.proxy {
			base = provider.ProxyBaseURL
		}
		if c.baseURL != "" {
			base = c.baseURL
		}
		client, err := provider.NewRESTClient(c.apiKey, base)
		if err != nil {
			return nil, llm.NewConfigError("failed to create provider client: %v", err)
		}
		c.client = client
	}

	return c, nil
}

// Messages returns the session's message list. The slice is owned by the
// session; callers should treat it as read-only.
func (c *Chat) Messages() []*llm.Message {
	return c.messages
}

// Schema returns the normalized structured-output schema, or nil.
func (c *Chat) Schema() *schema.Schema {
	return c.schema
}

// SetSchema normalizes and installs a structured-output schema. Raw may be a
// JSON string, a generic map in any of the accepted shapes, or an
// already-normalized *schema.Schema. Passing nil clears it.
func (c *Chat) SetSchema(raw any) error {
	if raw == nil {
		c.schema = nil
		return nil
	}
	normalized, err := schema.Normalize(raw)
	if err != nil {
		return err
	}
	c.schema = normalized
	return nil
}

// ReasoningEffort returns the configured reasoning effort, or "".
func (c *Chat) ReasoningEffort() string {
	return c.reasoningEffort
}

// SetReasoningEffort validates and sets the reasoning effort. Valid values
// are low, medium and high; "" clears it. Invalid values fail here, at
// assignment time, not at request time.
func (c *Chat) SetReasoningEffort(effort string) error {
	if err := validateLevel("reasoning_effort", effort); err != nil {
		return err
	}
	c.reasoningEffort = effort
	return nil
}

// Verbosity returns the configured verbosity, or "".
func (c *Chat) Verbosity() string {
	return c.verbosity
}

// SetVerbosity validates and sets the output verbosity. Valid values are
// low, medium and high; "" clears it.
func (c *Chat) SetVerbosity(verbosity string) error {
	if err := validateLevel("verbosity", verbosity); err != nil {
		return err
	}
	c.verbosity = verbosity
	return nil
}

func validateLevel(name, value string) error {
	if value == "" {
		return nil
	}
	for _, v := range validLevels {
		if value == v {
			return nil
		}
	}
	return llm.NewConfigError("invalid %s value %q; must be one of: low, medium, high", name, value)
}

// Generate sends the current state to the provider and records the resulting
// assistant message. In background mode the returned message is a
// placeholder with a non-terminal status; poll it with GetResponse.
//
// While a conversation is active it anchors every subsequent request and
// LastResponseID is left alone, so forking stays an explicit caller action.
// Without a conversation, LastResponseID advances to the new response id and
// the next request forks from it. In background mode inside a conversation
// the in-flight response id is tracked internally until the poll completes.
func (c *Chat) Generate(ctx context.Context) (*llm.Message, error) {
	if err := c.ensureValidated(); err != nil {
		return nil, err
	}
	req, err := c.buildRequest(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.CreateResponse(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.parseResponse(ctx, resp)
}

// GenerateSchema asks the provider to synthesize a JSON Schema from a
// natural-language description, installs it as this session's schema, and
// returns it as pretty-printed JSON.
func (c *Chat) GenerateSchema(ctx context.Context, description string) (string, error) {
	if err := c.ensureValidated(); err != nil {
		return "", err
	}
	generated, err := schema.Generate(ctx, c.client, description)
	if err != nil {
		return "", err
	}
	if err := c.SetSchema(generated); err != nil {
		return "", err
	}
	return generated, nil
}

// ensureValidated checks the credential against the transport mode once and
// caches the result for the session's lifetime.
func (c *Chat) ensureValidated() error {
	if c.validated {
		return nil
	}
	if err := provider.ValidateKey(c.proxy, c.apiKey); err != nil {
		return err
	}
	c.validated = true
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
