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

import "context"

// ChanLine is an in-process rendezvous line backed by a capacity-1 channel.
// A raise with nobody waiting stays pending until the next Wait; raises
// beyond the first pending one coalesce.
type ChanLine struct {
	ch chan struct{}
}

var _ Line = (*ChanLine)(nil)

// NewChanLine returns an empty line.
func NewChanLine() *ChanLine {
	return &ChanLine{ch: make(chan struct{}, 1)}
}

func (l *ChanLine) Raise() error {
	select {
	case l.ch <- struct{}{}:
	default:
	}
	return nil
}

func (l *ChanLine) Wait(ctx context.Context) error {
	select {
	case <-l.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *ChanLine) Caps() Capability { return CapQueued }
