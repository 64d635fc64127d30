package domain

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExists     = errors.New("session already exists")
	ErrConcurrentTurn    = errors.New("session was modified by a concurrent turn")
	ErrInvalidCustomer   = errors.New("invalid customer identity")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrTransport         = errors.New("transport failure")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrSecretNotFound    = errors.New("secret not found")
)
