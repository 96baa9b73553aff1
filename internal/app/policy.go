package app

import "github.com/dkeye/Meet/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropSignal
	KickPeer
)

// Policy decides what happens to a peer whose send queue is full.
type Policy interface {
	OnBackpressure(dst domain.PeerID) BackpressureAction
}

// SimplePolicy disconnects slow peers; a peer that cannot take signaling
// messages cannot complete a call anyway.
type SimplePolicy struct{}

func (SimplePolicy) OnBackpressure(domain.PeerID) BackpressureAction {
	return KickPeer
}
