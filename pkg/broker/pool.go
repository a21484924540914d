// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package broker

import "sync"

// connPool bounds the number of concurrent in-flight requests to one host,
// FIFO over waiters via a buffered channel acting as a counting semaphore:
// the first goroutine blocked on acquire is the first admitted once a slot
// frees, since channel sends/receives are served in send order.
type connPool struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	size  int
}

func newConnPool(perHost int) *connPool {
	return &connPool{slots: map[string]chan struct{}{}, size: perHost}
}

func (p *connPool) acquire(host string) chan struct{} {
	p.mu.Lock()
	ch, ok := p.slots[host]
	if !ok {
		ch = make(chan struct{}, p.size)
		for i := 0; i < p.size; i++ {
			ch <- struct{}{}
		}
		p.slots[host] = ch
	}
	p.mu.Unlock()
	return ch
}

// acquireSlot blocks until a slot for host is free and returns a release
// function the caller must call exactly once.
func (p *connPool) acquireSlot(host string) func() {
	ch := p.acquire(host)
	<-ch
	return func() { ch <- struct{}{} }
}
