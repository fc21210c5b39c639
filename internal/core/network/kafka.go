package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"FitTrack-Bridge/internal/core/logger"
)

const kafkaSubscriptionBuffer = 64

// KafkaOptions configures the broker-relayed transport.
type KafkaOptions struct {
	Brokers      []string
	WriteTimeout time.Duration
	// GroupPrefix prefixes the per-subscription consumer group. Every
	// subscription gets its own group so it sees the full topic.
	GroupPrefix string
}

// KafkaPubSub relays channel traffic through a Kafka cluster for peers that
// cannot reach each other directly.
type KafkaPubSub struct {
	opts KafkaOptions
	log  *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers map[*kafka.Reader]struct{}
	wg      sync.WaitGroup
}

func NewKafkaPubSub(parent context.Context, opts KafkaOptions, log *logger.Logger) (*KafkaPubSub, error) {
	if len(opts.Brokers) == 0 {
		return nil, errors.New("kafka transport requires at least one broker")
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.GroupPrefix == "" {
		opts.GroupPrefix = "fitsync"
	}
	ctx, cancel := context.WithCancel(parent)
	return &KafkaPubSub{
		opts:    opts,
		log:     log.Component("kafka"),
		ctx:     ctx,
		cancel:  cancel,
		writers: make(map[string]*kafka.Writer),
		readers: make(map[*kafka.Reader]struct{}),
	}, nil
}

func (k *KafkaPubSub) Publish(topic string, payload []byte) error {
	w, err := k.writer(topic)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(k.ctx, k.opts.WriteTimeout)
	defer cancel()
	if err := w.WriteMessages(ctx, kafka.Message{Value: payload, Time: time.Now().UTC()}); err != nil {
		return fmt.Errorf("kafka write %q: %w", topic, err)
	}
	return nil
}

func (k *KafkaPubSub) Subscribe(topic string) (<-chan Message, func(), error) {
	k.mu.Lock()
	if k.ctx.Err() != nil {
		k.mu.Unlock()
		return nil, nil, ErrClosed
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     k.opts.Brokers,
		GroupID:     fmt.Sprintf("%s-%s", k.opts.GroupPrefix, uuid.NewString()),
		Topic:       topic,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    1e6,
		MaxWait:     250 * time.Millisecond,
	})
	k.readers[reader] = struct{}{}
	k.wg.Add(1)
	k.mu.Unlock()

	out := make(chan Message, kafkaSubscriptionBuffer)
	subCtx, subCancel := context.WithCancel(k.ctx)
	go func() {
		defer k.wg.Done()
		defer close(out)
		for {
			msg, err := reader.ReadMessage(subCtx)
			if err != nil {
				if subCtx.Err() == nil {
					k.log.Warn().Err(err).Str("topic", topic).Msg("kafka read stopped")
				}
				return
			}
			select {
			case out <- Message{Topic: topic, Payload: msg.Value}:
			default:
				k.log.Warn().Str("topic", topic).Msg("subscriber full, message dropped")
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			subCancel()
			k.mu.Lock()
			delete(k.readers, reader)
			k.mu.Unlock()
			_ = reader.Close()
		})
	}
	return out, cancel, nil
}

func (k *KafkaPubSub) Close() error {
	k.cancel()
	k.mu.Lock()
	var errs []error
	for topic, w := range k.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer %q: %w", topic, err))
		}
		delete(k.writers, topic)
	}
	for r := range k.readers {
		_ = r.Close()
		delete(k.readers, r)
	}
	k.mu.Unlock()
	k.wg.Wait()
	return errors.Join(errs...)
}

func (k *KafkaPubSub) writer(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.ctx.Err() != nil {
		return nil, ErrClosed
	}
	if w, ok := k.writers[topic]; ok {
		return w, nil
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(k.opts.Brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	k.writers[topic] = w
	return w, nil
}
