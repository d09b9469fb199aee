// Package publisher pushes ingested records to downstream consumers.
package publisher

import (
	"context"
	"fmt"

	"github.com/channelscan/channelscan/internal/repo"
)

// SubjectNewRecord is the subject every stored record is announced on.
const SubjectNewRecord = "messages.new"

// StreamName groups the record subjects under one JetStream stream.
const StreamName = "MESSAGES"

// JetStreamClient is the messaging surface we need, kept narrow for mocking.
type JetStreamClient interface {
	EnsureStream(ctx context.Context, name string, subjects []string) error
	Publish(ctx context.Context, subject string, data any) error
}

// NATSPublisher implements scraper.RecordPublisher over JetStream.
type NATSPublisher struct {
	client JetStreamClient
}

// NewNATSPublisher ensures the record stream exists and returns a publisher.
func NewNATSPublisher(ctx context.Context, client JetStreamClient) (*NATSPublisher, error) {
	if err := client.EnsureStream(ctx, StreamName, []string{SubjectNewRecord}); err != nil {
		return nil, fmt.Errorf("ensure record stream: %w", err)
	}
	return &NATSPublisher{client: client}, nil
}

// PublishRecord announces one stored record.
func (p *NATSPublisher) PublishRecord(ctx context.Context, doc repo.Doc) error {
	if err := p.client.Publish(ctx, SubjectNewRecord, doc); err != nil {
		return fmt.Errorf("publish record: %w", err)
	}
	return nil
}
