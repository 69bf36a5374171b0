// Package uiloop provides the single execution context that owns map state.
// Work arriving from network goroutines is posted here and runs serially, in
// the order it was posted, on the goroutine that called Run.
package uiloop

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

const defaultQueueSize = 64

var ErrStopped = errors.New("ui loop stopped")

type Loop struct {
	tasks   chan func()
	stopped chan struct{}
	log     *logrus.Entry
}

func New(log *logrus.Logger) *Loop {
	return &Loop{
		tasks:   make(chan func(), defaultQueueSize),
		stopped: make(chan struct{}),
		log:     log.WithField("component", "uiloop"),
	}
}

// Run executes posted tasks until ctx is done. It must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)
	l.log.Debug("UI loop started")
	for {
		select {
		case <-ctx.Done():
			l.log.Debug("UI loop stopped")
			return nil
		case task := <-l.tasks:
			l.execute(task)
		}
	}
}

func (l *Loop) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Errorf("Recovered from panic in UI task: %v", r)
		}
	}()
	task()
}

// Post queues fn and returns without waiting for it. Tasks posted after the
// loop stopped are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.stopped:
		l.log.Warn("Unable to post task: UI loop stopped")
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	task := func() {
		defer close(done)
		fn()
	}

	select {
	case l.tasks <- task:
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-l.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
