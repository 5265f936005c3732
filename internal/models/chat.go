package models

import "time"

// ChatMessage is one entry of the shared chat log.
//
// The author field keeps the "userName" JSON name used by the browser client.
type ChatMessage struct {
	// ID is the unique identifier for the message (UUID format). Messages written
	// before IDs existed have an empty ID.
	ID string `json:"id,omitempty" bson:"id,omitempty"`

	// Author is the display name the sender typed in; it is not checked against People.
	Author string `json:"userName" bson:"userName"`

	Text string `json:"text" bson:"text"`

	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
