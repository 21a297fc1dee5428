/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package notify

import (
	"context"
	"sync"
	"sync/atomic"
)

// EdgeLine is an in-process line that only wakes a waiter already blocked in
// Wait. A raise with no waiter is dropped, the way an unqueued OS signal
// is. It exists to reproduce lost-wakeup stalls.
type EdgeLine struct {
	mu      sync.Mutex
	waiters []chan struct{}
	dropped atomic.Int64
}

var _ Line = (*EdgeLine)(nil)

// NewEdgeLine returns a line with no waiters.
func NewEdgeLine() *EdgeLine {
	return &EdgeLine{}
}

func (l *EdgeLine) Raise() error {
	l.mu.Lock()
	waiters := l.waiters
	l.waiters = nil
	l.mu.Unlock()
	if len(waiters) == 0 {
		l.dropped.Add(1)
		return nil
	}
	for _, w := range waiters {
		close(w)
	}
	return nil
}

func (l *EdgeLine) Wait(ctx context.Context) error {
	w := make(chan struct{})
	l.mu.Lock()
	l.waiters = append(l.waiters, w)
	l.mu.Unlock()
	select {
	case <-w:
		return nil
	case <-ctx.Done():
		l.remove(w)
		return ctx.Err()
	}
}

func (l *EdgeLine) remove(w chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, c := range l.waiters {
		if c == w {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			return
		}
	}
}

// Waiting returns the number of goroutines blocked in Wait.
func (l *EdgeLine) Waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.waiters)
}

// Dropped returns how many raises found nobody waiting.
func (l *EdgeLine) Dropped() int64 { return l.dropped.Load() }

func (l *EdgeLine) Caps() Capability { return 0 }
