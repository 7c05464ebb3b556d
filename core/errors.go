package core

import "errors"

var (
	ErrTokenExpired      = errors.New("token has expired")
	ErrTokenInvalidated  = errors.New("token has been invalidated")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidChallenge  = errors.New("invalid challenge")
	ErrChallengeConsumed = errors.New("challenge already used")
	ErrInvalidAddress    = errors.New("invalid ethereum address")
	ErrUserNotFound      = errors.New("user not found")
	ErrWalletLinked      = errors.New("wallet linked to another user")
)
