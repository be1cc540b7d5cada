package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"golang.org/x/sync/errgroup"

	wm "github.com/aretw0/funnel/pkg/adapters/watermill"
)

// eventLog publishes analytics through an in-process watermill channel and appends every
// message payload to a file as one JSON line, tagged with its topic.
type eventLog struct {
	Sink   *wm.Sink
	pubsub *gochannel.GoChannel
	group  *errgroup.Group
	cancel context.CancelFunc
	file   *os.File
}

func openEventLog(ctx context.Context, path string, logger *slog.Logger) (*eventLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}

	// Publishing blocks until the line is written, so closing the engine flushes the log.
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            64,
		BlockPublishUntilSubscriberAck: true,
	}, watermill.NewSlogLogger(logger))
	// Subscribers outlive ctx so events flushed during shutdown are still written.
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	group, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	for _, topic := range []string{wm.EventsTopic, wm.AnswersTopic} {
		msgs, err := pubsub.Subscribe(ctx, topic)
		if err != nil {
			cancel()
			_ = f.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		group.Go(func() error {
			for msg := range msgs {
				mu.Lock()
				_, err := fmt.Fprintf(f, "{\"topic\":%q,\"payload\":%s}\n", topic, msg.Payload)
				mu.Unlock()
				msg.Ack()
				if err != nil {
					return fmt.Errorf("failed to write event log: %w", err)
				}
			}
			return nil
		})
	}

	return &eventLog{
		Sink:   wm.NewSink(pubsub),
		pubsub: pubsub,
		group:  group,
		cancel: cancel,
		file:   f,
	}, nil
}

// Close stops the subscribers once published messages were written. Call it after the
// engine was closed, so nothing is published anymore.
func (l *eventLog) Close() error {
	pubErr := l.pubsub.Close()
	l.cancel()
	err := l.group.Wait()
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = pubErr
	}
	return err
}
