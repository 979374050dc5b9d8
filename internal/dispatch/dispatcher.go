// Package dispatch delivers pending reminders on a schedule. It only reads
// reminder records; completion stays a user action.
package dispatch

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/thanhpv/careminder/internal/model"
)

// ReminderSource lists pending reminders.
type ReminderSource interface {
	Reminders(pendingOnly bool) ([]model.Reminder, error)
}

// Dispatcher sends each morning's due reminders over the notifier.
type Dispatcher struct {
	source   ReminderSource
	notifier Notifier
	cron     *cron.Cron
	now      func() time.Time
	logger   *log.Logger
}

// NewDispatcher wires the scheduler. notifier may be nil, in which case
// Start is a no-op.
func NewDispatcher(source ReminderSource, notifier Notifier, loc *time.Location, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		source:   source,
		notifier: notifier,
		cron:     cron.New(cron.WithLocation(loc)),
		now:      time.Now,
		logger:   logger,
	}
}

// Start registers the 8AM delivery job and starts the scheduler loop.
func (d *Dispatcher) Start() error {
	if d.notifier == nil {
		d.logger.Printf("dispatch: no notifier configured, reminder delivery disabled")
		return nil
	}
	if _, err := d.cron.AddFunc("0 8 * * *", func() {
		go d.deliverDue()
	}); err != nil {
		return err
	}
	d.cron.Start()
	return nil
}

// Stop stops the cron scheduler gracefully.
func (d *Dispatcher) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
}

// deliverDue sends every pending reminder whose trigger time falls within
// the next 24 hours, earliest first.
func (d *Dispatcher) deliverDue() {
	reminders, err := d.source.Reminders(true)
	if err != nil {
		d.logger.Printf("dispatch: fetch reminders: %v", err)
		return
	}

	now := d.now()
	cutoff := now.Add(24 * time.Hour)
	for _, r := range reminders {
		if r.RemindAt.After(cutoff) {
			break
		}
		body := fmt.Sprintf("%s\n%s\nThời gian: %s", r.Title, r.Description, r.RemindAt.Format("15:04 02/01/2006"))
		if err := d.notifier.Send(body); err != nil {
			d.logger.Printf("dispatch: send reminder %s: %v", r.ID, err)
		}
	}
}
