package deskmate

import (
	"sort"
	"strings"

	"github.com/Protocol-Lattice/deskmate/pkg/models"
)

// Context field keys used by the built-in agents. Fields are advisory only;
// they enrich the system instruction and are never required for correctness.
const (
	FieldCurrentMessageID = "current_message_id"
	FieldCurrentListID    = "current_list_id"
	FieldLastOperation    = "last_operation"
	FieldSearchContext    = "search_context"
	FieldActiveSubAgent   = "current_context"
)

// CapacityPolicy can bound the history retained between turns. The default
// (nil) keeps everything: pruning long conversations is deliberately out of
// scope, but the hook lets truncation or summarization land later without
// touching the turn-taking contract.
type CapacityPolicy func(history []models.Turn) []models.Turn

// ConversationState is the mutable record threaded through a session:
// an append-only turn history plus a small set of advisory context fields.
// It is owned exclusively by the agent driving the session and must not be
// shared across agents.
type ConversationState struct {
	turns    []models.Turn
	fields   map[string]string
	capacity CapacityPolicy
}

// NewConversationState creates an empty state.
func NewConversationState() *ConversationState {
	return &ConversationState{fields: make(map[string]string)}
}

// SetCapacityPolicy installs a history bound. Passing nil restores the
// unbounded default.
func (s *ConversationState) SetCapacityPolicy(policy CapacityPolicy) {
	s.capacity = policy
}

// Append adds a turn to the history. Insertion order is semantically
// meaningful: the history is replayed verbatim to the reasoning backend.
func (s *ConversationState) Append(turn models.Turn) {
	s.turns = append(s.turns, turn)
	if s.capacity != nil {
		s.turns = s.capacity(s.turns)
	}
}

// History returns a copy of the turn sequence.
func (s *ConversationState) History() []models.Turn {
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len reports the number of turns.
func (s *ConversationState) Len() int {
	return len(s.turns)
}

// SetField records an advisory context hint. An empty value clears the field.
func (s *ConversationState) SetField(key, value string) {
	if s.fields == nil {
		s.fields = make(map[string]string)
	}
	if strings.TrimSpace(value) == "" {
		delete(s.fields, key)
		return
	}
	s.fields[key] = value
}

// Field returns a context hint, if set.
func (s *ConversationState) Field(key string) (string, bool) {
	v, ok := s.fields[key]
	return v, ok
}

// RenderFields formats the context fields for inclusion in a system
// instruction. Keys are sorted for deterministic output; an empty string is
// returned when no fields are set.
func (s *ConversationState) RenderFields() string {
	if len(s.fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("Current context:\n")
	for _, k := range keys {
		sb.WriteString("- ")
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(s.fields[k])
		sb.WriteString("\n")
	}
	return sb.String()
}
