package types

import "time"

// Concept is a single generated token idea. Concepts are produced upstream of
// the launch pipeline and identify a builder session.
type Concept struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Symbol      string    `json:"symbol"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
}

// ConceptBatch groups the concepts generated in one request.
type ConceptBatch struct {
	ID       string    `json:"id"`
	Created  time.Time `json:"created"`
	Concepts []Concept `json:"concepts"`
}
