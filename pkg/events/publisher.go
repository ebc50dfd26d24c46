package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

const publisherLogPrefix = "events:publisher"

// Publisher receives every action the host store is asked to dispatch.
type Publisher interface {
	Publish(ctx context.Context, action any) error
}

// NoOpPublisher is a Publisher that does nothing.
type NoOpPublisher struct{}

// Publish is a no-op.
func (p *NoOpPublisher) Publish(_ context.Context, _ any) error {
	return nil
}

// CallbackPublisher is a Publisher that calls a callback function (for testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, action any) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, action any) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// Publish calls the callback.
func (p *CallbackPublisher) Publish(ctx context.Context, action any) error {
	return p.callback(ctx, action)
}

// Journal persists notification records.
type Journal interface {
	InsertNotification(ctx context.Context, rec *Record) error
}

// JournalPublisher writes notifications to a Journal. Other actions are skipped.
type JournalPublisher struct {
	journal Journal
	source  string
}

// NewJournalPublisher creates a JournalPublisher tagging records with source.
func NewJournalPublisher(journal Journal, source string) *JournalPublisher {
	return &JournalPublisher{journal: journal, source: source}
}

// Publish journals action if it is a notification.
func (p *JournalPublisher) Publish(ctx context.Context, action any) error {
	n, ok := AsNotification(action)
	if !ok {
		return nil
	}
	rec, err := NewRecord(n, p.source)
	if err != nil {
		return err
	}
	if err := p.journal.InsertNotification(ctx, rec); err != nil {
		return fmt.Errorf("%s - failed to journal %s: %w", publisherLogPrefix, n.Type, err)
	}
	return nil
}

// MultiPublisher fans an action out to several publishers. Every publisher
// is called even when an earlier one fails.
type MultiPublisher []Publisher

// Publish publishes to every publisher and joins their errors.
func (m MultiPublisher) Publish(ctx context.Context, action any) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, action); err != nil {
			slog.Error(fmt.Sprintf("%s - %v", publisherLogPrefix, err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
