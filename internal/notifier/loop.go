package notifier

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"weather-notifier/internal/mqtt"
	"weather-notifier/internal/notify"
	"weather-notifier/internal/storage"
	"weather-notifier/internal/weather"

	"github.com/google/uuid"
)

const DefaultInterval = 300 * time.Second

// triggerStatus marks the unconditional delivery made at the end of every
// successful cycle.
const triggerStatus = "status"

type Store interface {
	RecordCycle(rec storage.CycleRecord) error
}

type Publisher interface {
	PublishReport(r *weather.Report) error
	PublishAlert(event mqtt.AlertEvent) error
}

type Loop struct {
	provider    weather.Provider
	notifier    *notify.Notifier
	store       Store
	publisher   Publisher
	locationKey string
	interval    time.Duration

	// sleep waits for d and reports false when ctx ends first.
	sleep func(ctx context.Context, d time.Duration) bool

	mu     sync.RWMutex
	status Status
}

type Config struct {
	Provider    weather.Provider
	Sink        notify.Sink
	Store       Store
	Publisher   Publisher
	LocationKey string
	Interval    time.Duration
}

// Status is a point-in-time view of the loop, safe to hand to other goroutines.
type Status struct {
	Running              bool            `json:"running"`
	LocationKey          string          `json:"location_key"`
	Interval             string          `json:"interval"`
	LastCycleID          string          `json:"last_cycle_id,omitempty"`
	LastCycleAt          *time.Time      `json:"last_cycle_at,omitempty"`
	NextCheckAt          *time.Time      `json:"next_check_at,omitempty"`
	LastReport           *weather.Report `json:"last_report,omitempty"`
	LastError            string          `json:"last_error,omitempty"`
	Cycles               int64           `json:"cycles"`
	FetchFailures        int64           `json:"fetch_failures"`
	Notifications        int64           `json:"notifications"`
	NotificationFailures int64           `json:"notification_failures"`
}

// CycleResult describes one fetch-evaluate-notify pass.
type CycleResult struct {
	ID        string
	At        time.Time
	Report    *weather.Report
	Err       error
	Triggered []weather.Condition
	Delivered int
	Failed    int
}

func NewLoop(cfg Config) (*Loop, error) {
	if cfg.Provider == nil {
		return nil, errors.New("notifier: weather provider is required")
	}
	if cfg.LocationKey == "" {
		return nil, errors.New("notifier: location key is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	return &Loop{
		provider:    cfg.Provider,
		notifier:    notify.NewNotifier(cfg.Sink),
		store:       cfg.Store,
		publisher:   cfg.Publisher,
		locationKey: cfg.LocationKey,
		interval:    cfg.Interval,
		sleep:       sleepContext,
		status: Status{
			LocationKey: cfg.LocationKey,
			Interval:    cfg.Interval.String(),
		},
	}, nil
}

// Run repeats cycles until ctx is cancelled. Fetch and delivery failures are
// logged and never stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	l.setRunning(true)
	defer l.setRunning(false)

	log.Println("Starting weather notifier...")

	for {
		l.RunCycle(ctx)
		if ctx.Err() != nil {
			break
		}

		log.Println("Waiting for the next check...")
		l.mu.Lock()
		next := time.Now().Add(l.interval)
		l.status.NextCheckAt = &next
		l.mu.Unlock()

		if !l.sleep(ctx, l.interval) {
			break
		}
	}

	log.Println("Weather notifier stopped")
	return nil
}

// RunCycle fetches once, then delivers one notification per triggered
// condition followed by one unconditional status notification.
func (l *Loop) RunCycle(ctx context.Context) CycleResult {
	result := CycleResult{
		ID: uuid.NewString(),
		At: time.Now(),
	}

	log.Println("Fetching weather data...")
	report, err := l.provider.Fetch(ctx, l.locationKey)
	if err != nil {
		result.Err = err
		// A fetch cut short by shutdown is not a failed cycle.
		if ctx.Err() != nil {
			log.Printf("Weather check cancelled: %v", ctx.Err())
			return result
		}
		log.Printf("Failed to fetch weather data: %v", err)
		l.record(result)
		return result
	}
	result.Report = report
	log.Printf("Weather data fetched successfully: %v", report)

	if l.publisher != nil {
		if err := l.publisher.PublishReport(report); err != nil {
			log.Printf("Error publishing report to MQTT: %v", err)
		}
	}

	result.Triggered = weather.Evaluate(report)
	for _, cond := range result.Triggered {
		log.Println(cond.Message())
		l.deliver(ctx, &result, string(cond))
	}
	l.deliver(ctx, &result, triggerStatus)

	l.record(result)
	return result
}

func (l *Loop) deliver(ctx context.Context, result *CycleResult, trigger string) {
	body, err := l.notifier.Deliver(ctx, result.Report)
	if err != nil {
		result.Failed++
		log.Printf("Error sending notification (%s): %v", trigger, err)
		return
	}
	result.Delivered++

	if l.publisher == nil {
		return
	}
	event := mqtt.AlertEvent{
		CycleID:    result.ID,
		Conditions: result.Triggered,
		Trigger:    trigger,
		Summary:    notify.Summary,
		Body:       body,
		SentAt:     time.Now(),
	}
	if err := l.publisher.PublishAlert(event); err != nil {
		log.Printf("Error publishing alert to MQTT: %v", err)
	}
}

func (l *Loop) record(result CycleResult) {
	l.mu.Lock()
	l.status.LastCycleID = result.ID
	at := result.At
	l.status.LastCycleAt = &at
	l.status.Cycles++
	l.status.Notifications += int64(result.Delivered)
	l.status.NotificationFailures += int64(result.Failed)
	if result.Err != nil {
		l.status.FetchFailures++
		l.status.LastError = result.Err.Error()
	} else {
		l.status.LastError = ""
		l.status.LastReport = result.Report
	}
	l.mu.Unlock()

	if l.store == nil {
		return
	}
	rec := storage.CycleRecord{
		CycleID:              result.ID,
		LocationKey:          l.locationKey,
		At:                   result.At,
		Report:               result.Report,
		Err:                  result.Err,
		Notifications:        result.Delivered,
		NotificationFailures: result.Failed,
	}
	if err := l.store.RecordCycle(rec); err != nil {
		log.Printf("Error saving notifier state: %v", err)
	}
}

func (l *Loop) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

func (l *Loop) IsRunning() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status.Running
}

func (l *Loop) setRunning(running bool) {
	l.mu.Lock()
	l.status.Running = running
	if !running {
		l.status.NextCheckAt = nil
	}
	l.mu.Unlock()
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
