package repository

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrNotFound    = errors.New("record not found")
	ErrInvalidDuel = errors.New("duel winner and loser must be distinct")
	ErrClosed      = errors.New("ledger closed")
)
