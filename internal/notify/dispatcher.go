package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"safeher/internal/domain"
	"safeher/internal/metrics"
	"safeher/pkg/e"
)

// Dispatcher fans an alert out to every configured channel and recipient.
// Delivery is best effort: failures are logged and counted, never returned.
type Dispatcher struct {
	recipients []string
	channels   []Channel
	logger     *slog.Logger
}

// NewDispatcher builds the Twilio SMS and WhatsApp channels from cfg.
func NewDispatcher(cfg Config, logger *slog.Logger) *Dispatcher {
	return NewDispatcherWithChannels(cfg.Recipients, logger,
		NewSMSChannel(cfg.SMS),
		NewWhatsAppChannel(cfg.WhatsApp),
	)
}

func NewDispatcherWithChannels(recipients []string, logger *slog.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{
		recipients: append([]string(nil), recipients...),
		channels:   channels,
		logger:     logger,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, task domain.DispatchTask) Report {
	start := time.Now()
	body := ComposeMessage(task)

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report Report
	)

	for _, ch := range d.channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			r := d.safeDispatchChannel(ctx, ch, task, body)
			mu.Lock()
			report = report.add(r)
			mu.Unlock()
		}(ch)
	}
	wg.Wait()

	metrics.ObserveDispatch(time.Since(start).Seconds())
	d.logger.Info("notification dispatch finished",
		slog.String("alert_id", task.AlertID.String()),
		slog.Int("attempted", report.Attempted),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int("skipped", report.Skipped),
	)

	return report
}

// safeDispatchChannel counts a channel that panics outside Send as one failure.
func (d *Dispatcher) safeDispatchChannel(ctx context.Context, ch Channel, task domain.DispatchTask, body string) (r Report) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("notification channel panicked",
				slog.String("alert_id", task.AlertID.String()),
				slog.Any("panic", rec),
			)
			metrics.NotificationAttempt(metrics.ChannelUnknown, metrics.ResultFailure)
			r = Report{Attempted: 1, Failed: 1}
		}
	}()
	return d.dispatchChannel(ctx, ch, task, body)
}

func (d *Dispatcher) dispatchChannel(ctx context.Context, ch Channel, task domain.DispatchTask, body string) Report {
	if !ch.Configured() || len(d.recipients) == 0 {
		d.logger.Info("notification channel not configured, skipping",
			slog.String("channel", ch.Name()),
			slog.String("alert_id", task.AlertID.String()),
		)
		metrics.NotificationAttempt(ch.Name(), metrics.ResultSkipped)
		return Report{Skipped: 1}
	}

	var r Report
	for _, recipient := range d.recipients {
		attempt := NotificationAttempt{
			Channel:   ch.Name(),
			Recipient: recipient,
			AlertID:   task.AlertID.String(),
		}
		attempt.Err = d.send(ctx, ch, recipient, body)

		r.Attempted++
		if attempt.Err != nil {
			r.Failed++
		} else {
			r.Succeeded++
		}
		d.record(attempt)
	}
	return r
}

// send isolates one delivery so a panicking channel cannot take down the rest.
func (d *Dispatcher) send(ctx context.Context, ch Channel, recipient, body string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: channel panicked: %v", e.ErrNotification, rec)
		}
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", e.ErrNotification, err)
	}
	return ch.Send(ctx, recipient, body)
}

func (d *Dispatcher) record(a NotificationAttempt) {
	if a.Err != nil {
		metrics.NotificationAttempt(a.Channel, metrics.ResultFailure)
		d.logger.Error("notification send failed",
			slog.String("channel", a.Channel),
			slog.String("recipient", a.Recipient),
			slog.String("alert_id", a.AlertID),
			slog.Any("error", a.Err),
		)
		return
	}

	metrics.NotificationAttempt(a.Channel, metrics.ResultSuccess)
	d.logger.Info("notification sent",
		slog.String("channel", a.Channel),
		slog.String("recipient", a.Recipient),
		slog.String("alert_id", a.AlertID),
	)
}
