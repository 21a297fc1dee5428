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
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/shmsg/pkg/notify"
	"github.com/srediag/shmsg/pkg/shm"
)

// nextFragment returns the fragment of msg starting at off and the offset
// of the one after it. The last fragment (1..size bytes, or empty for an
// empty message) is Data; every other one is a full-size Continuation.
func nextFragment(msg []byte, off, size int) (shm.Descriptor, int) {
	if len(msg)-off <= size {
		return shm.Descriptor{Kind: shm.KindData, Payload: msg[off:]}, len(msg)
	}
	return shm.Descriptor{Kind: shm.KindContinuation, Payload: msg[off : off+size]}, off + size
}

// Split returns the fragments Send would transmit for msg. Payloads alias msg.
func Split(msg []byte, size int) []shm.Descriptor {
	if size <= 0 {
		panic(ErrFragmentSize)
	}
	frags := make([]shm.Descriptor, 0, len(msg)/size+1)
	for off := 0; ; {
		d, next := nextFragment(msg, off, size)
		frags = append(frags, d)
		if d.Kind == shm.KindData {
			return frags
		}
		off = next
	}
}

// Fragmenter is the producer's safe API: it splits logical messages into
// slot-sized fragments and paces them against the consumer.
type Fragmenter struct {
	p      *Producer
	size   int
	tracer trace.Tracer
}

// NewFragmenter returns a fragmenter writing cfg.FragmentSize byte fragments
// into slot.
func NewFragmenter(slot Slot, lines notify.Pair, cfg *Config, opts ...Option) *Fragmenter {
	o := buildOptions(cfg, "fragmenter", opts)
	return &Fragmenter{
		p:      newProducer(slot, lines, cfg, o),
		size:   cfg.FragmentSize,
		tracer: o.tracer,
	}
}

// Producer exposes the underlying handshake state machine.
func (f *Fragmenter) Producer() *Producer { return f.p }

// Send transmits msg. A message of at most FragmentSize bytes goes out as a
// single Data fragment. Longer messages go out as Continuation fragments,
// each acknowledged by the consumer before the next is written, followed by
// a final Data fragment. msg is never modified.
func (f *Fragmenter) Send(ctx context.Context, msg []byte) error {
	ctx, span := f.tracer.Start(ctx, "relay.Send", trace.WithAttributes(
		attribute.Int("relay.message.size", len(msg)),
	))
	defer span.End()

	if f.size <= 0 {
		err := fmt.Errorf("%w: got %d", ErrFragmentSize, f.size)
		span.RecordError(err)
		return err
	}
	for off := 0; ; {
		d, next := nextFragment(msg, off, f.size)
		if err := f.p.transmit(ctx, d); err != nil {
			span.RecordError(err)
			return err
		}
		if d.Kind == shm.KindData {
			break
		}
		off = next
	}
	f.p.metrics.messageSent()
	return nil
}

// Terminate sends the Terminate descriptor and closes the producer. It does
// not wait for any acknowledgement.
func (f *Fragmenter) Terminate(ctx context.Context) error {
	ctx, span := f.tracer.Start(ctx, "relay.Terminate")
	defer span.End()
	if err := f.p.transmit(ctx, shm.Descriptor{Kind: shm.KindTerminate}); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
