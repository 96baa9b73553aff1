package signal

import "github.com/dkeye/Meet/internal/core"

func (ctl *SignalWSController) handlePing(conn *wsSignalConn) {
	ctl.sendJSON(conn, core.Envelope{Type: core.SignalPong})
}
