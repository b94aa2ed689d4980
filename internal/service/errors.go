package service

import "errors"

var (
	// ErrNoText is returned when a document has nothing left to index after sanitizing.
	ErrNoText = errors.New("no text to index")
	// ErrEmptyMessage is returned when a chat message is blank.
	ErrEmptyMessage = errors.New("message content is required")
)
