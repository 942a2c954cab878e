package game

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room full")
	ErrRoomClosed         = errors.New("room closed")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrCodeSpaceExhausted = errors.New("room code space exhausted")
	ErrReconnectionFailed = errors.New("reconnection failed")
)
