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
	"io"

	"github.com/valyala/bytebufferpool"

	"github.com/srediag/shmsg/pkg/notify"
	"github.com/srediag/shmsg/pkg/shm"
)

func labelFor(k shm.Kind) Label {
	switch k {
	case shm.KindContinuation:
		return LabelMoreToCome
	case shm.KindTerminate:
		return LabelShuttingDown
	}
	return LabelNewMessage
}

// Reassembler is the consumer loop: it renders every fragment as it arrives
// and ends the session on Terminate.
type Reassembler struct {
	c         *Consumer
	sink      Sink
	onMessage func([]byte)
}

// NewReassembler returns a reassembler reading from slot and rendering to sink.
func NewReassembler(slot Slot, lines notify.Pair, sink Sink, cfg *Config, opts ...Option) *Reassembler {
	o := buildOptions(cfg, "reassembler", opts)
	return &Reassembler{
		c:         newConsumer(slot, lines, cfg, o),
		sink:      sink,
		onMessage: o.onMessage,
	}
}

// Consumer exposes the underlying handshake state machine.
func (r *Reassembler) Consumer() *Consumer { return r.c }

// Run processes fragments until Terminate, returning nil, or until the
// session breaks. An unrecognized kind fails with ErrUnexpectedKind.
func (r *Reassembler) Run(ctx context.Context) error {
	var pending *bytebufferpool.ByteBuffer
	if r.onMessage != nil {
		pending = bytebufferpool.Get()
		defer bytebufferpool.Put(pending)
	}
	for {
		d, err := r.c.Next(ctx)
		if err != nil {
			return err
		}
		r.sink.Render(labelFor(d.Kind), d.Payload)
		switch d.Kind {
		case shm.KindContinuation:
			if pending != nil {
				_, _ = pending.Write(d.Payload)
			}
		case shm.KindData:
			r.c.metrics.messageReceived()
			if pending != nil {
				_, _ = pending.Write(d.Payload)
				r.onMessage(pending.B)
				pending.Reset()
			}
		case shm.KindTerminate:
			r.c.log.Infof("session terminated by producer")
			return nil
		}
	}
}

// Receiver is the consumer's pull API: Receive returns whole logical
// messages and io.EOF once the producer terminated the session.
type Receiver struct {
	c *Consumer
}

// NewReceiver returns a receiver reading from slot.
func NewReceiver(slot Slot, lines notify.Pair, cfg *Config, opts ...Option) *Receiver {
	o := buildOptions(cfg, "receiver", opts)
	return &Receiver{c: newConsumer(slot, lines, cfg, o)}
}

// Consumer exposes the underlying handshake state machine.
func (r *Receiver) Consumer() *Consumer { return r.c }

// Receive blocks until a complete logical message has arrived.
func (r *Receiver) Receive(ctx context.Context) ([]byte, error) {
	if r.c.state == ConsumerTerminated && r.c.broken == nil {
		return nil, io.EOF
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	for {
		d, err := r.c.Next(ctx)
		if err != nil {
			return nil, err
		}
		switch d.Kind {
		case shm.KindContinuation:
			_, _ = buf.Write(d.Payload)
		case shm.KindData:
			_, _ = buf.Write(d.Payload)
			r.c.metrics.messageReceived()
			return append([]byte{}, buf.B...), nil
		case shm.KindTerminate:
			return nil, io.EOF
		}
	}
}
