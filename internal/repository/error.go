package repository

import "errors"

var (
	ErrRecordNotFound     = errors.New("player record not found")
	ErrMalformedRecord    = errors.New("malformed player record")
	ErrSubscriptionClosed = errors.New("subscription closed")
)
