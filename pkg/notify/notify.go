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

// Package notify provides the one-way wake lines the two peers use to take
// turns on the shared slot.
//
// A Line is raised by one side and waited on by the other. Implementations
// differ in what happens to a raise that arrives before the waiter blocks:
// lines with CapQueued keep it, the others may lose it and stall the waiter.
package notify

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnsupported is returned when a line cannot work on this platform.
	ErrUnsupported = errors.New("notify: line not supported on this platform")
	// ErrNoPeer is returned by Raise on a line that has no target.
	ErrNoPeer = errors.New("notify: line has no peer to raise")
	// ErrClosed is returned by Wait on a closed line.
	ErrClosed = errors.New("notify: line closed")
)

// Capability describes the delivery guarantees of a Line.
type Capability uint32

const (
	// CapQueued means one raise issued before the waiter blocks is retained.
	CapQueued Capability = 1 << iota
	// CapCrossProcess means the two ends may live in different processes.
	CapCrossProcess
)

// Has reports whether c includes all of want.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

func (c Capability) String() string {
	var parts []string
	if c.Has(CapQueued) {
		parts = append(parts, "queued")
	}
	if c.Has(CapCrossProcess) {
		parts = append(parts, "cross-process")
	}
	if len(parts) == 0 {
		return "best-effort"
	}
	return strings.Join(parts, "|")
}

// Line is a directional, edge-triggered wake primitive.
type Line interface {
	// Raise wakes the other side. It never blocks.
	Raise() error
	// Wait blocks until the line is raised or ctx is done, in which case
	// ctx.Err() is returned.
	Wait(ctx context.Context) error
	// Caps reports the delivery guarantees of the line.
	Caps() Capability
}

// Pair is one peer's view of the two lines of a session. The consumer
// raises Ready and waits on Data; the producer does the opposite.
type Pair struct {
	// Ready carries "I am ready / I consumed the last fragment" from the consumer.
	Ready Line
	// Data carries "a fragment is in the slot" from the producer.
	Data Line
}

// Caps returns the capabilities both lines share.
func (p Pair) Caps() Capability {
	return p.Ready.Caps() & p.Data.Caps()
}
