package model

import (
	"time"

	"telegram-catalog-bot/internal/domain"
)

// Poll is a question with a fixed option list, one vote per eligible
// recipient. MessageIDs doubles as the eligibility set for voting and as
// the target list for live tally updates.
type Poll struct {
	ID         int           `json:"id"`
	CreatorID  int64         `json:"creator_id"`
	CreatedAt  time.Time     `json:"created_at"`
	Question   string        `json:"question"`
	Options    []string      `json:"options"`
	Votes      map[int]int   `json:"votes"`
	Voters     map[int64]int `json:"voters"`
	MessageIDs map[int64]int `json:"message_ids"`
}

func NewPoll(id int, creatorID int64, question string, options []string) (*Poll, error) {
	if len(options) < 2 {
		return nil, domain.ErrTooFewOptions
	}
	votes := make(map[int]int, len(options))
	for i := range options {
		votes[i] = 0
	}
	return &Poll{
		ID:         id,
		CreatorID:  creatorID,
		CreatedAt:  time.Now(),
		Question:   question,
		Options:    options,
		Votes:      votes,
		Voters:     make(map[int64]int),
		MessageIDs: make(map[int64]int),
	}, nil
}

// TotalVotes is the number of accepted votes across all options.
func (p *Poll) TotalVotes() int {
	total := 0
	for _, n := range p.Votes {
		total += n
	}
	return total
}

// Eligible reports whether the user received this poll.
func (p *Poll) Eligible(userID int64) bool {
	_, ok := p.MessageIDs[userID]
	return ok
}
