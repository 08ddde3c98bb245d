// Package domain contains the room/queue entities and the pure ordering
// logic. No transport or logging concerns live here.
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxUsernameLen = 36
	MaxRoomCodeLen = 36
)

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
	ErrRoomCodeEmpty   = errors.New("room code empty")
	ErrRoomCodeTooLong = errors.New("room code too long")
)

type UserID string

type User struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
}

// NewUser mints a fresh identity. Identity is self-asserted: the server
// never verifies the name, it only bounds it.
func NewUser(name string) (*User, error) {
	if len(name) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	return &User{ID: UserID(uuid.NewString()), Name: name}, nil
}

type RoomID string

// NormalizeRoomCode maps a client-chosen code onto the canonical room id.
// Codes are case-insensitive on the wire. Over-length codes are rejected
// outright, like usernames: truncating would let two distinct long codes
// collide into one room.
func NormalizeRoomCode(code string) (RoomID, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrRoomCodeEmpty
	}
	if len(code) > MaxRoomCodeLen {
		return "", ErrRoomCodeTooLong
	}
	return RoomID(strings.ToUpper(code)), nil
}
