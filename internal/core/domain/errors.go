package domain

import "errors"

var (
	ErrInvalidRoomID          = errors.New("invalid room id")
	ErrMessageNotFound        = errors.New("message not found")
	ErrNoteNotFound           = errors.New("note not found")
	ErrProgressNotFound       = errors.New("progress not found")
	ErrSequenceNotInitialized = errors.New("room sequence not initialized")
)
