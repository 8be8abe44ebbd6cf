package service

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    q "github.com/iliyamo/event-checkin/internal/queue"
)

const (
    auditQueueSize   = 256             // events buffered while the broker is slow
    auditDialTimeout = 3 * time.Second // TCP connect plus AMQP handshake
)

// ErrAuditQueueFull is returned when the audit buffer cannot take another
// event; the event is dropped.
var ErrAuditQueueFull = errors.New("rabbitmq: audit queue full")

// AMQPAuditor publishes check-in audit events to RabbitMQ.  Events are
// queued in memory and sent by Run over one long-lived connection, so a
// slow or unreachable broker never holds up a scan.  Events still queued
// when Run stops are lost.
type AMQPAuditor struct {
    url         string
    events      chan q.CheckinRecordedEvent
    dialTimeout time.Duration
    logger      *slog.Logger

    // owned by Run
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewAMQPAuditor returns an auditor for the broker at url.  Call Run to
// start delivery.
func NewAMQPAuditor(url string, logger *slog.Logger) *AMQPAuditor {
    return newAMQPAuditor(url, logger, auditQueueSize)
}

func newAMQPAuditor(url string, logger *slog.Logger, size int) *AMQPAuditor {
    if logger == nil {
        logger = slog.Default()
    }
    return &AMQPAuditor{
        url:         url,
        events:      make(chan q.CheckinRecordedEvent, size),
        dialTimeout: auditDialTimeout,
        logger:      logger,
    }
}

// PublishCheckinRecorded queues ev for delivery.  It never blocks.
func (a *AMQPAuditor) PublishCheckinRecorded(_ context.Context, ev q.CheckinRecordedEvent) error {
    if a == nil || a.url == "" {
        return errors.New("rabbitmq: auditor not configured")
    }
    select {
    case a.events <- ev:
        return nil
    default:
        return ErrAuditQueueFull
    }
}

// Run delivers queued events until ctx is cancelled.  A failed delivery is
// logged and the event dropped; the next event reconnects.
func (a *AMQPAuditor) Run(ctx context.Context) {
    defer a.reset()
    for {
        select {
        case <-ctx.Done():
            return
        case ev := <-a.events:
            if err := a.send(ctx, ev); err != nil {
                a.logger.Warn("rabbitmq: audit event dropped", "participant_id", ev.ParticipantID, "error", err)
            }
        }
    }
}

// send publishes ev as a persistent message on the durable checkin.recorded
// queue, reopening the channel once if the first attempt fails.
func (a *AMQPAuditor) send(ctx context.Context, ev q.CheckinRecordedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    for attempt := 0; ; attempt++ {
        if err := a.connect(); err != nil {
            return err
        }
        pctx, cancel := context.WithTimeout(ctx, a.dialTimeout)
        err = a.ch.PublishWithContext(pctx, "", q.CheckinQueueName, false, false, pub)
        cancel()
        if err == nil {
            return nil
        }
        a.reset()
        if attempt > 0 {
            return fmt.Errorf("publish: %w", err)
        }
    }
}

// connect opens the connection and channel unless a live channel exists.
// Dialling and the AMQP handshake are bounded by dialTimeout.
func (a *AMQPAuditor) connect() error {
    if a.ch != nil && !a.ch.IsClosed() {
        return nil
    }
    a.reset()
    conn, err := amqp.DialConfig(a.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(a.dialTimeout),
    })
    if err != nil {
        return fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return fmt.Errorf("channel: %w", err)
    }
    if _, err := ch.QueueDeclare(
        q.CheckinQueueName, // name
        true,               // durable
        false,              // autoDelete
        false,              // exclusive
        false,              // noWait
        nil,                // args
    ); err != nil {
        _ = conn.Close()
        return fmt.Errorf("queue declare: %w", err)
    }
    a.conn, a.ch = conn, ch
    return nil
}

func (a *AMQPAuditor) reset() {
    if a.ch != nil {
        _ = a.ch.Close()
    }
    if a.conn != nil {
        _ = a.conn.Close()
    }
    a.conn, a.ch = nil, nil
}
