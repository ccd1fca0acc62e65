package model

import "time"

// FriendshipStatus is the state of a directed edge between two users.
//
// STATE MACHINE:
//
//	(none) --send--> requested --accept--> accepted --delete--> (none)
//	                 requested --reject--> (none)
type FriendshipStatus string

const (
	StatusRequested FriendshipStatus = "requested"
	StatusAccepted  FriendshipStatus = "accepted"
)

// Valid reports whether s is one of the known statuses.
func (s FriendshipStatus) Valid() bool {
	return s == StatusRequested || s == StatusAccepted
}

// FriendshipAction is the addressee's answer to a pending request.
type FriendshipAction string

const (
	ActionAccept FriendshipAction = "accept"
	ActionReject FriendshipAction = "reject"
)

func (a FriendshipAction) Valid() bool {
	return a == ActionAccept || a == ActionReject
}

// FriendshipDirection narrows a listing to one side of the edge.
// The zero value means both sides.
type FriendshipDirection string

const (
	DirectionAny      FriendshipDirection = ""
	DirectionIncoming FriendshipDirection = "incoming"
	DirectionOutgoing FriendshipDirection = "outgoing"
)

func (d FriendshipDirection) Valid() bool {
	return d == DirectionAny || d == DirectionIncoming || d == DirectionOutgoing
}

// Friendship is a directed edge from Requester to Addressee.
// At most one edge exists per ordered pair; the reverse pair is a separate edge.
type Friendship struct {
	ID          string           `json:"id"`
	RequesterID string           `json:"requester_id"`
	Requester   string           `json:"requester"` // username
	AddresseeID string           `json:"addressee_id"`
	Addressee   string           `json:"addressee"` // username
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"-"`
}

// Involves reports whether userID is either party of the edge.
func (f *Friendship) Involves(userID string) bool {
	return f.RequesterID == userID || f.AddresseeID == userID
}
