package tca8418

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

const DefaultPollInterval = 10 * time.Millisecond

type PollResult struct {
	Status        byte    // INT_STAT_* bits that were set, and have been cleared
	Events        []Event // Drained from the FIFO, oldest first
	GpioIntStatus uint32  // Pins with a GPI interrupt (only read if INT_STAT_GPI_INT was set)
}

// Poll handles pending interrupts: drains the FIFO, reads (and thereby clears) the GPIO
// interrupt status and acknowledges all interrupt bits that were set.
func (d *Device) Poll() (res PollResult, err error) {
	res.Status, err = d.InterruptStatus()
	if err != nil || res.Status == 0 {
		return
	}
	if res.Status&INT_STAT_OVR_FLOW_INT != 0 {
		log.Warnf("TCA8418 at %#02x: event FIFO overflow, events have been lost", d.Addr)
	}
	if res.Events, err = d.DrainEvents(); err != nil {
		return
	}
	if res.Status&INT_STAT_GPI_INT != 0 {
		if res.GpioIntStatus, err = d.GpioIntStatus.ReadAll(); err != nil {
			return
		}
	}
	err = d.SetInterrupt(res.Status, true)
	return
}

// Watcher calls Poll whenever the INT line of the chip is asserted. Without an INT line,
// Poll is called periodically.
type Watcher struct {
	Device *Device

	// Optional, connected to the active-low INT output of the chip
	Irq          gpio.PinIn
	PollInterval time.Duration
}

// Run blocks until the context is cancelled or polling the device fails.
// The handler is called for every event in FIFO order.
func (w *Watcher) Run(ctx context.Context, handler func(Event)) error {
	interval := w.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if w.Irq != nil {
		if err := w.Irq.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			return err
		}
	}
	for {
		res, err := w.Device.Poll()
		if err != nil {
			return err
		}
		for _, event := range res.Events {
			handler(event)
		}
		if !w.wait(ctx, interval) {
			return nil
		}
	}
}

func (w *Watcher) wait(ctx context.Context, interval time.Duration) bool {
	if w.Irq != nil {
		// A timeout still leads to a Poll, in case an edge was missed
		w.Irq.WaitForEdge(interval)
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(interval):
		return true
	}
}
