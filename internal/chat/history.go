// Package chat holds the conversation state and the round-trip against
// the completion service.
package chat

// Role of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn. Immutable once appended.
type Message struct {
	Role    Role
	Content string
}

// History is a bounded ordered log of messages. A system prompt, if
// configured, is pinned at index 0 and never evicted by trimming.
type History struct {
	systemPrompt string
	capacity     int
	msgs         []Message
}

// NewHistory seeds the history with systemPrompt (if non-empty) and caps
// it at capacity messages. Capacity below 1 is clamped to 1.
func NewHistory(systemPrompt string, capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	h := &History{
		systemPrompt: systemPrompt,
		capacity:     capacity,
	}
	h.Reset()
	return h
}

// AddUser appends a user turn and trims.
func (h *History) AddUser(text string) {
	h.msgs = append(h.msgs, Message{Role: RoleUser, Content: text})
	h.trim()
}

// AddAssistant appends an assistant turn and trims.
func (h *History) AddAssistant(text string) {
	h.msgs = append(h.msgs, Message{Role: RoleAssistant, Content: text})
	h.trim()
}

// Reset clears the log back to the seeded system prompt, if any.
func (h *History) Reset() {
	h.msgs = h.msgs[:0]
	if h.systemPrompt != "" {
		h.msgs = append(h.msgs, Message{Role: RoleSystem, Content: h.systemPrompt})
	}
}

// Messages returns a snapshot of the log in insertion order.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.msgs))
	copy(out, h.msgs)
	return out
}

// Len reports the number of messages currently held.
func (h *History) Len() int { return len(h.msgs) }

// trim drops the oldest non-system messages once the log exceeds
// capacity. The pinned system message survives every trim.
func (h *History) trim() {
	if len(h.msgs) <= h.capacity {
		return
	}
	if h.msgs[0].Role == RoleSystem {
		keep := h.capacity - 1
		h.msgs = append(h.msgs[:1], h.msgs[len(h.msgs)-keep:]...)
		return
	}
	h.msgs = h.msgs[len(h.msgs)-h.capacity:]
}

// dropLast removes the most recent message. Used to roll back a user
// turn when the completion call fails.
func (h *History) dropLast() {
	if n := len(h.msgs); n > 0 {
		h.msgs = h.msgs[:n-1]
	}
}
