package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Entity is a formatting entity carried with broadcast content, mirroring
// Telegram's offset/length message entities.
type Entity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	URL    string `json:"url,omitempty"`
}

// BroadcastContent is the authored payload of a broadcast: plain text, or a
// media file reference with a caption.
type BroadcastContent struct {
	Text        string   `json:"text,omitempty"`
	MediaFileID string   `json:"media_file_id,omitempty"`
	Caption     string   `json:"caption,omitempty"`
	Entities    []Entity `json:"entities,omitempty"`
}

// Broadcast is a single authored message fanned out to all authorized
// users. MessageIDs maps recipient id to the delivered Telegram message id
// so the message can later be edited or deleted everywhere it was sent.
type Broadcast struct {
	ID         string           `json:"id"`
	AuthorID   int64            `json:"author_id"`
	Content    BroadcastContent `json:"content"`
	CreatedAt  time.Time        `json:"created_at"`
	MessageIDs map[int64]int    `json:"message_ids"`
}

func NewBroadcast(authorID int64, content BroadcastContent) *Broadcast {
	return &Broadcast{
		ID:         ulid.Make().String(),
		AuthorID:   authorID,
		Content:    content,
		CreatedAt:  time.Now(),
		MessageIDs: make(map[int64]int),
	}
}
