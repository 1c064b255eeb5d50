package internal

import (
	"errors"
	"time"
)

var (
	ErrInference      = errors.New("inference request failed")
	ErrSnapshot       = errors.New("snapshot unreadable")
	ErrEmptyContent   = errors.New("empty content")
	ErrDimension      = errors.New("embedding dimension mismatch")
	ErrNoProvider     = errors.New("no chat provider available")
	ErrNotInitialized = errors.New("store not initialized")
)

// VectorRecord is one retrievable unit of content together with its
// embedding. Content is the record's identity: the store never holds
// two records with the same content.
type VectorRecord struct {
	Content   string
	Source    string
	Embedding []float64
}

// RankedCandidate is a retrieval hit: a record plus its cosine
// similarity to the query embedding.
type RankedCandidate struct {
	Content string
	Source  string
	Score   float64 // cosine similarity, in [-1, 1]
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single committed dialogue turn. Turns are immutable once
// appended to a conversation.
type Turn struct {
	Role    Role
	Content string
	At      time.Time
}

func NewTurn(role Role, content string) Turn {
	return Turn{
		Role:    role,
		Content: content,
		At:      time.Now().UTC(),
	}
}
