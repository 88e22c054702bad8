package domain

import "errors"

var (
	ErrPollNotFound     = errors.New("poll not found")
	ErrOwnerNotFound    = errors.New("owner not found")
	ErrInvalidOptions   = errors.New("poll needs 2 to 5 distinct, non-empty options")
	ErrInvalidSchedule  = errors.New("poll delay must be non-negative and duration positive")
	ErrIDSpaceExhausted = errors.New("could not allocate a free poll id")
	ErrVotesRecorded    = errors.New("poll already has votes")
)
