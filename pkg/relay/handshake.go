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
	"fmt"
	"time"

	"github.com/srediag/shmsg/internal/logging"
	"github.com/srediag/shmsg/pkg/notify"
	"github.com/srediag/shmsg/pkg/shm"
)

// Slot is raw, unsynchronized access to the single descriptor slot.
// *shm.Channel implements it.
type Slot interface {
	Read() (shm.Descriptor, error)
	Write(shm.Descriptor) error
}

var _ Slot = (*shm.Channel)(nil)

// ProducerState is the producer side of the handshake.
type ProducerState int

const (
	// ProducerAwaitingReady: blocked until the consumer raises ready.
	ProducerAwaitingReady ProducerState = iota
	// ProducerSending: owns the slot, writing one fragment.
	ProducerSending
	// ProducerClosed: Terminate was sent or the session broke.
	ProducerClosed
)

func (s ProducerState) String() string {
	switch s {
	case ProducerAwaitingReady:
		return "AwaitingReady"
	case ProducerSending:
		return "Sending"
	case ProducerClosed:
		return "Closed"
	}
	return fmt.Sprintf("ProducerState(%d)", int(s))
}

// ConsumerState is the consumer side of the handshake.
type ConsumerState int

const (
	// ConsumerAwaitingWork: ready was raised, blocked until data is raised.
	ConsumerAwaitingWork ConsumerState = iota
	// ConsumerProcessing: owns the slot, reading one fragment.
	ConsumerProcessing
	// ConsumerTerminated: Terminate was received or the session broke.
	ConsumerTerminated
)

func (s ConsumerState) String() string {
	switch s {
	case ConsumerAwaitingWork:
		return "AwaitingWork"
	case ConsumerProcessing:
		return "Processing"
	case ConsumerTerminated:
		return "Terminated"
	}
	return fmt.Sprintf("ConsumerState(%d)", int(s))
}

// turn holds what both sides of the handshake share.
type turn struct {
	slot    Slot
	lines   notify.Pair
	timeout time.Duration
	metrics *Metrics
	log     *logging.Logger
	// broken is the error that ended the session, if any
	broken error
}

func newTurn(slot Slot, lines notify.Pair, cfg *Config, o options) turn {
	t := turn{
		slot:    slot,
		lines:   lines,
		timeout: cfg.WaitTimeout,
		metrics: o.metrics,
		log:     o.logger,
	}
	if !lines.Caps().Has(notify.CapQueued) && t.timeout == 0 {
		t.log.Warnf("wake lines are %s and WaitTimeout is 0: a lost notification stalls forever", lines.Caps())
	}
	return t
}

// wait blocks on line, turning an expired WaitTimeout into ErrProtocolStall.
func (t *turn) wait(ctx context.Context, line notify.Line, what string) error {
	wctx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	err := line.Wait(wctx)
	if err == nil {
		return nil
	}
	if t.timeout > 0 && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		t.metrics.stall()
		return fmt.Errorf("%w: no %s notification within %s", ErrProtocolStall, what, t.timeout)
	}
	return fmt.Errorf("wait for %s: %w", what, err)
}

func (t *turn) closedErr() error {
	if t.broken != nil {
		return fmt.Errorf("%w: %w", ErrSessionClosed, t.broken)
	}
	return ErrSessionClosed
}

// Producer drives the producer side of the handshake: every write into the
// slot is preceded by a wait for the consumer's ready notification.
type Producer struct {
	turn
	state ProducerState
}

// NewProducer returns a producer in the AwaitingReady state.
func NewProducer(slot Slot, lines notify.Pair, cfg *Config, opts ...Option) *Producer {
	return newProducer(slot, lines, cfg, buildOptions(cfg, "producer", opts))
}

func newProducer(slot Slot, lines notify.Pair, cfg *Config, o options) *Producer {
	return &Producer{turn: newTurn(slot, lines, cfg, o), state: ProducerAwaitingReady}
}

// State returns the current handshake state.
func (p *Producer) State() ProducerState { return p.state }

// transmit waits for the consumer's turn, writes d and hands the turn back.
func (p *Producer) transmit(ctx context.Context, d shm.Descriptor) error {
	if p.state == ProducerClosed {
		return p.closedErr()
	}
	p.state = ProducerAwaitingReady
	if err := p.wait(ctx, p.lines.Ready, "ready"); err != nil {
		return p.fail(err)
	}
	p.state = ProducerSending
	if err := p.slot.Write(d); err != nil {
		return p.fail(fmt.Errorf("write %s fragment: %w", d.Kind, err))
	}
	if err := p.lines.Data.Raise(); err != nil {
		return p.fail(fmt.Errorf("raise data: %w", err))
	}
	p.metrics.fragmentSent(d.Kind)
	p.log.Tracef("sent %s fragment, %d bytes", d.Kind, len(d.Payload))
	if d.Kind == shm.KindTerminate {
		p.state = ProducerClosed
		return nil
	}
	p.state = ProducerAwaitingReady
	return nil
}

func (p *Producer) fail(err error) error {
	p.state = ProducerClosed
	p.broken = err
	p.log.Errorf("producer: session broken: %v", err)
	return err
}

// Consumer drives the consumer side of the handshake: it never waits for data
// without first raising ready.
type Consumer struct {
	turn
	state ConsumerState
	reads int
}

// NewConsumer returns a consumer that has not raised ready yet.
func NewConsumer(slot Slot, lines notify.Pair, cfg *Config, opts ...Option) *Consumer {
	return newConsumer(slot, lines, cfg, buildOptions(cfg, "consumer", opts))
}

func newConsumer(slot Slot, lines notify.Pair, cfg *Config, o options) *Consumer {
	return &Consumer{turn: newTurn(slot, lines, cfg, o), state: ConsumerAwaitingWork}
}

// State returns the current handshake state.
func (c *Consumer) State() ConsumerState { return c.state }

// Reads returns how many descriptors were read from the slot.
func (c *Consumer) Reads() int { return c.reads }

// Next acknowledges the previous fragment, waits for the next one and returns
// it. After a Terminate descriptor every call fails with ErrSessionClosed.
func (c *Consumer) Next(ctx context.Context) (shm.Descriptor, error) {
	if c.state == ConsumerTerminated {
		return shm.Descriptor{}, c.closedErr()
	}
	if err := c.lines.Ready.Raise(); err != nil {
		return shm.Descriptor{}, c.fail(fmt.Errorf("raise ready: %w", err))
	}
	c.state = ConsumerAwaitingWork
	if err := c.wait(ctx, c.lines.Data, "data"); err != nil {
		return shm.Descriptor{}, c.fail(err)
	}
	c.state = ConsumerProcessing
	d, err := c.slot.Read()
	if err != nil {
		return shm.Descriptor{}, c.fail(fmt.Errorf("read fragment: %w", err))
	}
	c.reads++
	if !d.Kind.Valid() {
		return shm.Descriptor{}, c.fail(fmt.Errorf("%w: %s", ErrUnexpectedKind, d.Kind))
	}
	c.metrics.fragmentReceived(d.Kind)
	c.log.Tracef("received %s fragment, %d bytes", d.Kind, len(d.Payload))
	if d.Kind == shm.KindTerminate {
		c.state = ConsumerTerminated
	}
	return d, nil
}

func (c *Consumer) fail(err error) error {
	c.state = ConsumerTerminated
	c.broken = err
	c.log.Errorf("consumer: session broken: %v", err)
	return err
}
