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
	"errors"
	"time"

	internalshm "github.com/srediag/shmsg/internal/shm"
)

// defaultFutexPoll bounds each futex sleep so a cancelled context without
// a deadline is still noticed.
const defaultFutexPoll = 100 * time.Millisecond

// FutexLine is a cross-process line on a sequence word in shared memory.
// Raise increments the word and wakes waiters; Wait returns once the word
// differs from the last value this end observed. Because the counter
// persists, a raise that lands before Wait is never lost.
//
// Each process builds its own FutexLine over the same word. The waiting end
// must be constructed before the peer can raise for the first time.
type FutexLine struct {
	word *uint32
	seen uint32
	poll time.Duration
}

var _ Line = (*FutexLine)(nil)

// NewFutexLine returns a line over word, treating its current value as seen.
func NewFutexLine(word *uint32) *FutexLine {
	return &FutexLine{
		word: word,
		seen: internalshm.AtomicLoadUint32(word),
		poll: defaultFutexPoll,
	}
}

func (l *FutexLine) Raise() error {
	if !internalshm.FutexSupported {
		return ErrUnsupported
	}
	internalshm.AtomicAddUint32(l.word, 1)
	_, err := internalshm.FutexWake(l.word, 1<<30)
	return err
}

func (l *FutexLine) Wait(ctx context.Context) error {
	if !internalshm.FutexSupported {
		return ErrUnsupported
	}
	for {
		if cur := internalshm.AtomicLoadUint32(l.word); cur != l.seen {
			l.seen = cur
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		timeout := l.poll
		if dl, ok := ctx.Deadline(); ok {
			if rem := time.Until(dl); rem < timeout {
				timeout = max(rem, time.Millisecond)
			}
		}
		err := internalshm.FutexWait(l.word, l.seen, timeout)
		if err != nil && !errors.Is(err, internalshm.ErrFutexTimeout) {
			return err
		}
	}
}

func (l *FutexLine) Caps() Capability { return CapQueued | CapCrossProcess }
