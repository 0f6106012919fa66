package websocket

import "errors"

var (
	ErrSendBufferFull = errors.New("client send buffer is full")
	ErrClientClosed   = errors.New("client is closed")
	ErrRoomNotFound   = errors.New("room not found")
)
