package notify

import (
	"context"
	"errors"
	"fmt"

	"weather-notifier/internal/weather"
)

// Sink delivers a rendered notification somewhere visible to the user.
type Sink interface {
	Notify(ctx context.Context, summary, body string) error
}

// NotificationError reports that a sink rejected a delivery.
type NotificationError struct {
	Sink string
	Err  error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s notification failed: %v", e.Sink, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Multi delivers to every sink and joins the failures.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, summary, body string) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Notify(ctx, summary, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Notifier renders reports and hands them to a sink.
type Notifier struct {
	sink Sink
}

func NewNotifier(sink Sink) *Notifier {
	return &Notifier{sink: sink}
}

// Deliver renders r and sends it with the fixed summary. It returns the
// rendered body alongside any delivery error.
func (n *Notifier) Deliver(ctx context.Context, r *weather.Report) (string, error) {
	body := Render(r)
	if n == nil || n.sink == nil {
		return body, nil
	}
	return body, n.sink.Notify(ctx, Summary, body)
}
