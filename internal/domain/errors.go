package domain

import "errors"

var (
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrSessionActive      = errors.New("a sleep session is already being tracked")
	ErrNoActiveSession    = errors.New("no sleep session is being tracked")
	ErrInvalidAlarmConfig = errors.New("invalid smart alarm configuration")
	ErrTrackerClosed      = errors.New("tracker is shut down")
)
