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

//go:build unix

package notify

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// Classic signal pairing: the producer raises data with
// SIGUSR1, the consumer raises ready with SIGUSR2.
const (
	DataSignal  = unix.SIGUSR1
	ReadySignal = unix.SIGUSR2
)

// SignalLine is a best-effort cross-process line built on POSIX signals.
// Raise sends the signal to the target pid; Wait receives it through an
// os/signal registration. A signal sent before the waiter registered is
// handled by the default disposition instead, and a second signal sent
// while one is still undelivered is dropped.
type SignalLine struct {
	pid int
	sig unix.Signal
	ch  chan os.Signal
}

var _ Line = (*SignalLine)(nil)

// SignalRaiser returns a line that raises sig at pid and cannot be waited on.
func SignalRaiser(pid int, sig unix.Signal) *SignalLine {
	return &SignalLine{pid: pid, sig: sig}
}

// SignalWaiter registers for sig immediately and returns a line that can be
// waited on but not raised. Call Stop to unregister.
func SignalWaiter(sig unix.Signal) *SignalLine {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sig)
	return &SignalLine{sig: sig, ch: ch}
}

func (l *SignalLine) Raise() error {
	if l.pid <= 0 {
		return ErrNoPeer
	}
	return unix.Kill(l.pid, l.sig)
}

func (l *SignalLine) Wait(ctx context.Context) error {
	if l.ch == nil {
		return ErrClosed
	}
	select {
	case _, ok := <-l.ch:
		if !ok {
			return ErrClosed
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop unregisters a waiter. Later Waits fail with ErrClosed.
func (l *SignalLine) Stop() {
	if l.ch == nil {
		return
	}
	signal.Stop(l.ch)
	l.ch = nil
}

func (l *SignalLine) Caps() Capability { return CapCrossProcess }
