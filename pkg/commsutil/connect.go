// Package commsutil provides the COMMS (NATS) binding of the dispatch transport.
package commsutil

import (
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"
)

const logPrefix = "commsutil:connect"

// ConnectOpts configures Connect. Zero values use defaults.
type ConnectOpts struct {
	Name           string
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	// NoReconnect disables reconnection; the daemon keeps reconnecting forever.
	NoReconnect bool
	// OnReconnect runs after every successful reconnect.
	OnReconnect func(url string)
}

func (o *ConnectOpts) withDefaults() ConnectOpts {
	out := ConnectOpts{
		Name:           "intent-dispatch",
		ConnectTimeout: 10 * time.Second,
		ReconnectWait:  2 * time.Second,
	}
	if o == nil {
		return out
	}
	if o.Name != "" {
		out.Name = o.Name
	}
	if o.ConnectTimeout > 0 {
		out.ConnectTimeout = o.ConnectTimeout
	}
	if o.ReconnectWait > 0 {
		out.ReconnectWait = o.ReconnectWait
	}
	out.NoReconnect = o.NoReconnect
	out.OnReconnect = o.OnReconnect
	return out
}

// Connect opens a COMMS connection. Pass nil for opts to use defaults.
func Connect(url string, opts *ConnectOpts) (*comms.Conn, error) {
	o := opts.withDefaults()
	slog.Info(fmt.Sprintf("%s - Connecting to COMMS at %s as %s", logPrefix, url, o.Name))

	options := []comms.Option{
		comms.Name(o.Name),
		comms.Timeout(o.ConnectTimeout),
		comms.ReconnectWait(o.ReconnectWait),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			if err != nil {
				slog.Warn(fmt.Sprintf("%s - COMMS disconnected: %v", logPrefix, err))
			}
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS reconnected to %s", logPrefix, nc.ConnectedUrl()))
			if o.OnReconnect != nil {
				o.OnReconnect(nc.ConnectedUrl())
			}
		}),
		comms.ClosedHandler(func(_ *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS connection closed", logPrefix))
		}),
	}
	if o.NoReconnect {
		options = append(options, comms.NoReconnect())
	} else {
		options = append(options, comms.MaxReconnects(-1))
	}

	nc, err := comms.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Connected to COMMS at %s", logPrefix, nc.ConnectedUrl()))
	return nc, nil
}
