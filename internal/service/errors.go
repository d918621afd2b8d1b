package service

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrQuizNotPublished = errors.New("quiz is not published")
	ErrSessionCompleted = errors.New("session already completed")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrInvalidInput     = errors.New("invalid input")
)
