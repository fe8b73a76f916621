package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// JournalFile is the file, inside the journal directory, that consumed
// events are appended to.
const JournalFile = "booking.log"

// Journal consumes booking events and appends one line per event to
// <Dir>/booking.log.
type Journal struct {
	URL   string
	Queue string
	Dir   string
	Log   *logrus.Logger
}

// Run connects to RabbitMQ and consumes until ctx is cancelled, reconnecting
// with exponential backoff (capped at 30s) whenever the broker goes away.
// Undecodable messages are rejected without requeueing.
func (j Journal) Run(ctx context.Context) error {
	if j.Queue == "" {
		j.Queue = DefaultQueue
	}
	if j.Log == nil {
		j.Log = logrus.StandardLogger()
	}
	log := j.Log.WithField("component", "booking-journal")

	backoff := time.Second
	for {
		conn, err := amqp.Dial(j.URL)
		if err != nil {
			log.WithError(err).WithField("retry_in", backoff.String()).Warn("dial broker failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = j.consume(ctx, conn, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (j Journal) consume(ctx context.Context, conn *amqp.Connection, log *logrus.Entry) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("set QoS failed")
	}
	if _, err := ch.QueueDeclare(j.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(j.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := j.Handle(d.Body); err != nil {
				log.WithError(err).Error("handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and appends its journal line.
func (j Journal) Handle(body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Kind == "" || ev.BookingID == "" {
		return errors.New("event without kind or booking id")
	}
	dir := j.Dir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, JournalFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single newline-terminated journal line.
func FormatLine(ev BookingEvent) string {
	line := fmt.Sprintf("[%s] %s | booking_id=%s | user_id=%s | venue_id=%s | date=%s | slot=%s-%s | status=%s",
		ev.OccurredAt, ev.Kind, ev.BookingID, ev.UserID, ev.VenueID, ev.Date, ev.StartTime, ev.EndTime, ev.Status)
	if ev.Deleted {
		line += " | deleted=true"
	}
	return line + "\n"
}
