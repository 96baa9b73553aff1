// Package domain contains entities without transport, just data and rules.
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxPeerIDLen = 36
	// shortPeerIDLen is the length of generated ids; short enough to read out loud.
	shortPeerIDLen = 8
)

var (
	ErrPeerIDEmpty   = errors.New("peer id empty")
	ErrPeerIDTooLong = errors.New("peer id too long")
	ErrPeerIDInvalid = errors.New("peer id has invalid characters")
)

// PeerID is the session-unique identifier the broker assigns to a peer.
// Another peer dials it to place a call.
type PeerID string

func (id PeerID) String() string { return string(id) }

// NewPeerID returns a fresh short random identifier.
func NewPeerID() PeerID {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return PeerID(raw[:shortPeerIDLen])
}

// ParsePeerID trims user input and validates it as a peer id.
func ParsePeerID(raw string) (PeerID, error) {
	s := strings.TrimSpace(raw)
	if len(s) == 0 {
		return "", ErrPeerIDEmpty
	}
	if len(s) > MaxPeerIDLen {
		return "", ErrPeerIDTooLong
	}
	for _, r := range s {
		if !isPeerIDRune(r) {
			return "", ErrPeerIDInvalid
		}
	}
	return PeerID(s), nil
}

func isPeerIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_':
		return true
	}
	return false
}

// ConnectionID identifies one media call or data link between two peers.
type ConnectionID string

func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.NewString())
}
