package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/intent-dispatch/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// NotifySubject overrides the global notification subject (e.g. from DISPATCH_NOTIFY_SUBJECT).
	NotifySubject string
}

// CommsPublisher publishes actions to COMMS subjects.
type CommsPublisher struct {
	nc            *comms.Conn
	notifySubject string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	subject := commsutil.SubjectNotify
	if opts != nil && opts.NotifySubject != "" {
		subject = opts.NotifySubject
	}
	return &CommsPublisher{nc: nc, notifySubject: subject}
}

// Publish sends a notification to both its granular subject and the global
// notify subject. Any other action goes to the global subject only.
func (p *CommsPublisher) Publish(_ context.Context, action any) error {
	data, err := commsutil.EncodePayload(action)
	if err != nil {
		return fmt.Errorf("%s - failed to encode action: %w", commsPublisherLogPrefix, err)
	}

	if n, ok := AsNotification(action); ok {
		granularSubject := commsutil.BuildNotifySubject(p.notifySubject, n.Type)
		if err := p.nc.Publish(granularSubject, data); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, granularSubject, err))
			return err
		}
		slog.Debug(fmt.Sprintf("%s - Published %s", commsPublisherLogPrefix, n.Type))
	}

	if err := p.nc.Publish(p.notifySubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, p.notifySubject, err))
		return err
	}
	return nil
}
