package scriptgen

import "google.golang.org/genai"

// Conversation is the rolling chat history threaded through script
// generation. It is an explicit value passed between calls, never package
// state: the seed exchange is pinned, and the tail is trimmed so the
// request stays within the model's context budget.
type Conversation struct {
	seed    []*genai.Content
	tail    []*genai.Content
	maxTail int
}

// NewConversation creates a conversation pinned to the given seed exchange.
func NewConversation(seed []*genai.Content, maxTail int) *Conversation {
	return &Conversation{
		seed:    append([]*genai.Content(nil), seed...),
		maxTail: maxTail,
	}
}

// Append records one exchange and applies the trimming policy.
func (c *Conversation) Append(messages ...*genai.Content) {
	c.tail = append(c.tail, messages...)
	if c.maxTail > 0 && len(c.tail) > c.maxTail {
		c.tail = c.tail[len(c.tail)-c.maxTail:]
	}
}

// Messages returns the seed followed by the retained tail.
func (c *Conversation) Messages() []*genai.Content {
	out := make([]*genai.Content, 0, len(c.seed)+len(c.tail))
	out = append(out, c.seed...)
	out = append(out, c.tail...)
	return out
}

// Len reports how many messages the next request will carry.
func (c *Conversation) Len() int {
	return len(c.seed) + len(c.tail)
}
