package store

// ChatSession is one persisted conversation with the analytics assistant.
// Snapshot carries the serialized turn state so a clarification can resume
// in a later request or process; Transcript is the visible message history.
type ChatSession struct {
	ID         int32
	UID        string
	Domain     string
	UserEmail  string
	Snapshot   string // JSON turn snapshot
	Transcript string // JSON array of {role, content, ts}
	Active     bool
	CreatedTs  int64
	UpdatedTs  int64
}

type FindChatSession struct {
	ID           *int32
	UID          *string
	Domain       *string
	UserEmail    *string
	Active       *bool
	UpdatedAfter *int64
	Limit        *int
}

type UpdateChatSession struct {
	ID         int32
	Snapshot   *string
	Transcript *string
	Active     *bool
	UpdatedTs  *int64
}

type DeleteChatSession struct {
	ID int32
	// UpdatedBefore deletes every session stale past the retention window
	// instead of a single row.
	UpdatedBefore *int64
}
