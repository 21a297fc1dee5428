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

package relay

import (
	"context"
	"errors"
	"io"

	"github.com/panjf2000/ants/v2"

	"github.com/srediag/shmsg/pkg/notify"
	"github.com/srediag/shmsg/pkg/shm"
)

// Pump sends every message src yields and terminates the session once src
// returns io.EOF. If src fails, Pump still tries to terminate so the
// consumer can exit.
func Pump(ctx context.Context, src Source, f *Fragmenter) error {
	for {
		msg, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return f.Terminate(ctx)
		}
		if err != nil {
			return errors.Join(err, f.Terminate(ctx))
		}
		if err := f.Send(ctx, msg); err != nil {
			return err
		}
	}
}

// RunLoopback runs a producer and a consumer in this process over a heap
// channel and rendezvous lines. Each peer gets its own worker; it returns
// once both have finished.
func RunLoopback(ctx context.Context, cfg *Config, src Source, sink Sink, opts ...Option) error {
	if err := VerifyConfig(cfg); err != nil {
		return err
	}
	ch := shm.NewHeapChannel(cfg.FragmentSize)
	defer func() { _ = ch.Destroy() }()
	lines := notify.Pair{Ready: notify.NewChanLine(), Data: notify.NewChanLine()}

	pool, err := ants.NewPool(2)
	if err != nil {
		return err
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frag := NewFragmenter(ch, lines, cfg, opts...)
	reasm := NewReassembler(ch, lines, sink, cfg, opts...)

	errs := make(chan error, 2)
	run := func(fn func() error) func() {
		return func() {
			err := fn()
			if err != nil {
				cancel()
			}
			errs <- err
		}
	}
	if err := pool.Submit(run(func() error { return reasm.Run(ctx) })); err != nil {
		return err
	}
	if err := pool.Submit(run(func() error { return Pump(ctx, src, frag) })); err != nil {
		cancel()
		<-errs
		return err
	}

	// the peer that failed first cancels the other, whose context error
	// must not mask the cause
	var first error
	for i := 0; i < 2; i++ {
		err := <-errs
		if err == nil {
			continue
		}
		if first == nil || (errors.Is(first, context.Canceled) && !errors.Is(err, context.Canceled)) {
			first = err
		}
	}
	return first
}
