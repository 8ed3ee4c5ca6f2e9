package models

import (
	"context"
	"errors"
	"sync"
)

// Scripted is a deterministic ChatModel for tests and offline runs. Each
// Chat call pops the next scripted turn and records the request it saw.
type Scripted struct {
	mu       sync.Mutex
	turns    []Turn
	requests []ChatRequest

	// Err, when set, is returned by every Chat call.
	Err error
}

// NewScripted builds a scripted backend that replays the given turns in order.
func NewScripted(turns ...Turn) *Scripted {
	return &Scripted{turns: turns}
}

func (s *Scripted) Chat(_ context.Context, req ChatRequest) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	if s.Err != nil {
		return Turn{}, s.Err
	}
	if len(s.turns) == 0 {
		return Turn{}, errors.New("scripted model: no turns remaining")
	}
	next := s.turns[0]
	s.turns = s.turns[1:]
	next.Role = RoleAssistant
	return next, nil
}

// Requests returns the chat requests observed so far.
func (s *Scripted) Requests() []ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

var _ ChatModel = (*Scripted)(nil)
