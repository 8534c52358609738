package convert

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned when submitting to a closed Pool.
var ErrPoolClosed = errors.New("conversion pool is closed")

// Callback receives the outcome of an asynchronous conversion. Exactly one
// of result and err is non-nil.
type Callback func(result *Result, err error)

// Outcome is the value delivered on a Go result channel.
type Outcome struct {
	Result *Result
	Err    error
}

type job struct {
	ctx  context.Context
	opts Options
	done Callback
}

// Pool runs conversions on a fixed number of worker goroutines.
type Pool struct {
	conv *Converter
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool starts workers goroutines that run conversions with conv. A
// workers value below 1 starts a single worker.
func NewPool(conv *Converter, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		conv: conv,
		jobs: make(chan job, workers),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	conv.logger.Debug().Int("workers", workers).Msg("pool: started")
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.run(j)
	}
}

// run executes one job. A panic in the conversion is reported to the
// callback instead of killing the worker.
func (p *Pool) run(j job) {
	var (
		result *Result
		err    error
	)
	defer func() {
		if r := recover(); r != nil {
			p.conv.logger.Error().Interface("panic", r).Msg("pool: conversion panicked")
			result, err = nil, errors.New("conversion panicked")
		}
		j.done(result, err)
	}()

	if err = j.ctx.Err(); err != nil {
		return
	}
	result, err = p.conv.Convert(j.ctx, j.opts)
}

// Submit queues a conversion and returns once a worker has accepted it, or
// when ctx is done first. done is called exactly once from a worker
// goroutine when the conversion finishes. A job whose context is cancelled
// before a worker picks it up completes with the context error.
func (p *Pool) Submit(ctx context.Context, opts Options, done Callback) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- job{ctx: ctx, opts: opts, done: done}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Go queues a conversion and returns a channel that receives its single
// Outcome.
func (p *Pool) Go(ctx context.Context, opts Options) <-chan Outcome {
	ch := make(chan Outcome, 1)
	err := p.Submit(ctx, opts, func(result *Result, err error) {
		ch <- Outcome{Result: result, Err: err}
	})
	if err != nil {
		ch <- Outcome{Err: err}
	}
	return ch
}

// Close stops accepting jobs and waits for queued and running conversions
// to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.conv.logger.Debug().Msg("pool: stopped")
}
