package models

import (
	"time"

	"github.com/google/uuid"
)

// FriendStatus tags an edge in the relationship graph.
type FriendStatus string

const (
	StatusPending  FriendStatus = "pending"
	StatusAccepted FriendStatus = "accepted"
	StatusDeclined FriendStatus = "declined"
)

// Friend is a directional edge between two users. The requester is whoever
// sent the request; lookups treat the pair as unordered.
type Friend struct {
	RequesterID uuid.UUID    `json:"requester_id"`
	RecipientID uuid.UUID    `json:"recipient_id"`
	Status      FriendStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Involves reports whether id is one of the edge's endpoints.
func (f Friend) Involves(id uuid.UUID) bool {
	return f.RequesterID == id || f.RecipientID == id
}

// Other returns the counterparty of id on this edge.
func (f Friend) Other(id uuid.UUID) uuid.UUID {
	if f.RequesterID == id {
		return f.RecipientID
	}
	return f.RequesterID
}
