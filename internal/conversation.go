package internal

import (
	"fmt"
	"strings"
	"sync"
)

// Conversation is the append-only dialogue history of one session.
// Turns are committed in pairs after an answer completes and are never
// reordered or removed. History lives in memory only; it does not
// survive the process.
type Conversation struct {
	mu    sync.RWMutex
	turns []Turn

	// historyLimit bounds how many committed turns are replayed into
	// assembled prompts. Zero means unbounded, which is the default:
	// prompts grow for the session's whole lifetime.
	historyLimit int
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// NewBoundedConversation returns a conversation that replays at most limit
// committed turns per prompt. The committed history itself is never
// pruned, only the window sent to the provider.
func NewBoundedConversation(limit int) *Conversation {
	if limit < 0 {
		limit = 0
	}
	return &Conversation{historyLimit: limit}
}

// AssemblePrompt builds the message sequence for the next completion:
// a copy of the replayable history followed by one new user turn that
// carries the retrieved context blocks and the literal question. The
// committed history is not modified; the new turn is only persisted
// later via RecordExchange, after the answer has fully arrived.
func (c *Conversation) AssemblePrompt(question string, candidates []RankedCandidate) []Turn {
	c.mu.RLock()
	history := c.window()
	c.mu.RUnlock()

	turns := make([]Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, NewTurn(RoleUser, groundedPrompt(question, candidates)))

	return turns
}

// RecordExchange commits a completed question/answer cycle: a user
// turn followed by an assistant turn. This is the only mutator of the
// history.
func (c *Conversation) RecordExchange(question, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, NewTurn(RoleUser, question), NewTurn(RoleAssistant, answer))
}

// Turns returns a copy of the committed history in commit order.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// window returns the slice of history eligible for replay. Caller
// holds at least a read lock.
func (c *Conversation) window() []Turn {
	if c.historyLimit == 0 || len(c.turns) <= c.historyLimit {
		return c.turns
	}
	return c.turns[len(c.turns)-c.historyLimit:]
}

// groundedPrompt renders the retrieved candidates and the question
// into the single user message sent to the provider.
func groundedPrompt(question string, candidates []RankedCandidate) string {
	if len(candidates) == 0 {
		return question
	}

	var sb strings.Builder
	sb.WriteString("Based on the following context and this conversation, answer my next question.\n\nContext: ")

	for i, cand := range candidates {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "File: %s\n```\n%s\n```", cand.Source, cand.Content)
	}

	fmt.Fprintf(&sb, "\n\nQuestion: %s", question)

	return sb.String()
}
