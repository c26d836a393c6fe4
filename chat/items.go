package chat

import (
	"context"

	"github.com/aschepis/aichat/llm"
	"github.com/aschepis/aichat/provider"
)

// Items retrieves one page of server-side conversation items. Order is
// "asc" or "desc"; "" defaults to ascending. A conversation must already
// exist, i.e. at least one Generate call has happened or ConversationID was
// set explicitly.
func (c *Chat) Items(ctx context.Context, order string) (*provider.ItemList, error) {
	if c.ConversationID == "" {
		return nil, llm.NewConfigError(
			"no conversation exists yet; call Generate at least once or set ConversationID")
	}
	switch order {
	case "":
		order = "asc"
	case "asc", "desc":
	default:
		return nil, llm.NewConfigError("invalid items order %q; must be asc or desc", order)
	}
	return c.client.ListConversationItems(ctx, c.ConversationID, order)
}
