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

package shm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"unsafe"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	internalshm "github.com/srediag/shmsg/internal/shm"
)

const instrumentationName = "github.com/srediag/shmsg/pkg/shm"

// Options identifies a channel and sizes its slot.
type Options struct {
	// Name is the identity both peers agree on.
	Name string
	// Dir is the directory holding the region; defaults to /dev/shm.
	Dir string
	// Capacity is the slot's payload capacity in bytes.
	Capacity int
	Meter    metric.Meter
	Tracer   trace.Tracer
}

func (o Options) verify() error {
	if o.Name == "" {
		return errors.New("empty channel name")
	}
	if o.Capacity <= 0 {
		return fmt.Errorf("invalid slot capacity %d", o.Capacity)
	}
	return nil
}

func (o Options) mapOptions(create bool) internalshm.MapOptions {
	return internalshm.MapOptions{
		Name:   o.Name,
		Dir:    o.Dir,
		Size:   RegionSize(o.Capacity),
		Create: create,
	}
}

// Path returns where the region's backing file lives.
func (o Options) Path() string {
	return internalshm.RegionPath(o.mapOptions(false))
}

// Channel is a single-slot message channel backed by shared memory.
type Channel struct {
	name     string
	path     string
	region   *internalshm.MappedRegion // nil for heap channels
	mem      header
	capacity int
	owner    bool

	// mu is held shared across slot access and exclusively while unmapping.
	mu      sync.RWMutex
	closed  atomic.Bool
	removed bool

	tracer trace.Tracer
	reads  metric.Int64Counter
	writes metric.Int64Counter
}

func newChannel(opts Options, owner bool) *Channel {
	ch := &Channel{
		name:     opts.Name,
		capacity: opts.Capacity,
		owner:    owner,
		tracer:   opts.Tracer,
	}
	if ch.tracer == nil {
		ch.tracer = tracenoop.NewTracerProvider().Tracer(instrumentationName)
	}
	meter := opts.Meter
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter(instrumentationName)
	}
	var err error
	if ch.reads, err = meter.Int64Counter("shmsg.channel.reads",
		metric.WithDescription("Descriptors read from the slot.")); err != nil {
		ch.reads = metricnoop.Int64Counter{}
	}
	if ch.writes, err = meter.Int64Counter("shmsg.channel.writes",
		metric.WithDescription("Descriptors written to the slot.")); err != nil {
		ch.writes = metricnoop.Int64Counter{}
	}
	return ch
}

// Create allocates a new named region holding one descriptor slot. It must
// run before the consumer exists. Failures wrap ErrAllocation.
func Create(ctx context.Context, opts Options) (*Channel, error) {
	if err := opts.verify(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocation, err)
	}
	ch := newChannel(opts, true)
	ctx, span := ch.tracer.Start(ctx, "shm.Create", trace.WithAttributes(
		attribute.String("shm.name", opts.Name),
		attribute.Int("shm.capacity", opts.Capacity),
	))
	defer span.End()

	region, err := internalshm.MapRegion(ctx, opts.mapOptions(true))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %s: %w", ErrAllocation, opts.Name, err)
	}
	ch.region = region
	ch.path = region.Path
	ch.mem = header(region.Addr)
	ch.mem.init(opts.Capacity, os.Getpid())
	owned.Set(ch.path, ch)
	return ch, nil
}

// Attach maps a region created by the peer. A missing region, or one whose
// layout or capacity differs from opts, fails with an error wrapping ErrAttach.
func Attach(ctx context.Context, opts Options) (*Channel, error) {
	if err := opts.verify(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAttach, err)
	}
	ch := newChannel(opts, false)
	ctx, span := ch.tracer.Start(ctx, "shm.Attach", trace.WithAttributes(
		attribute.String("shm.name", opts.Name),
	))
	defer span.End()

	region, err := internalshm.MapRegion(ctx, opts.mapOptions(false))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %s: %w", ErrAttach, opts.Name, err)
	}
	mem := header(region.Addr)
	if err := checkHeader(mem, opts.Capacity); err != nil {
		_ = internalshm.UnmapRegion(region)
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %s: %w", ErrAttach, opts.Name, err)
	}
	ch.region = region
	ch.path = region.Path
	ch.mem = mem
	return ch, nil
}

func checkHeader(mem header, capacity int) error {
	m := mem.load(magicOffset)
	if m == 0 {
		return internalshm.ErrNotReady
	}
	if m != layoutMagic {
		return fmt.Errorf("bad magic %#x", m)
	}
	if v := mem.load(versionOffset); v != layoutVersion {
		return fmt.Errorf("unsupported layout version %d", v)
	}
	if c := mem.load(capacityOffset); int(c) != capacity {
		return fmt.Errorf("slot capacity is %d, want %d", c, capacity)
	}
	return nil
}

// NewHeapChannel returns a channel with the same layout on process-private
// memory. It is used when both peers run in one process.
func NewHeapChannel(capacity int) *Channel {
	if capacity <= 0 {
		panic(fmt.Sprintf("shm: invalid slot capacity %d", capacity))
	}
	size := RegionSize(capacity)
	// []uint32 backing keeps the header words aligned
	words := make([]uint32, (size+3)/4)
	ch := newChannel(Options{Name: "heap", Capacity: capacity}, true)
	ch.mem = header(unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size))
	ch.mem.init(capacity, os.Getpid())
	return ch
}

// Name returns the channel identity.
func (c *Channel) Name() string { return c.name }

// Path returns the backing file path, empty for heap channels.
func (c *Channel) Path() string { return c.path }

// Capacity returns the slot's payload capacity.
func (c *Channel) Capacity() int { return c.capacity }

// Owner reports whether this process created the channel.
func (c *Channel) Owner() bool { return c.owner }

// Closed reports whether the channel was detached or destroyed.
func (c *Channel) Closed() bool { return c.closed.Load() }

// OwnerPID returns the pid recorded by the creator.
func (c *Channel) OwnerPID() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed.Load() {
		return 0
	}
	return int(c.mem.load(ownerPIDOffset))
}

// ReadyWord is the consumer-to-producer notification word.
func (c *Channel) ReadyWord() *uint32 { return c.mem.word(readyOffset) }

// DataWord is the producer-to-consumer notification word.
func (c *Channel) DataWord() *uint32 { return c.mem.word(dataOffset) }

// Write stores d in the slot. The kind is not validated.
func (c *Channel) Write(d Descriptor) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed.Load() {
		return ErrChannelClosed
	}
	if len(d.Payload) > c.capacity {
		return fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(d.Payload), c.capacity)
	}
	n := copy(c.mem[payloadOffset:payloadOffset+c.capacity], d.Payload)
	c.mem.store(lengthOffset, uint32(n))
	c.mem.store(kindOffset, uint32(d.Kind))
	c.writes.Add(context.Background(), 1)
	return nil
}

// Read returns a copy of the slot's current descriptor.
func (c *Channel) Read() (Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed.Load() {
		return Descriptor{}, ErrChannelClosed
	}
	kind := Kind(c.mem.load(kindOffset))
	n := int(c.mem.load(lengthOffset))
	if n > c.capacity {
		return Descriptor{}, fmt.Errorf("%w: length %d > capacity %d", ErrCorruptDescriptor, n, c.capacity)
	}
	payload := make([]byte, n)
	copy(payload, c.mem[payloadOffset:payloadOffset+n])
	c.reads.Add(context.Background(), 1)
	return Descriptor{Kind: kind, Payload: payload}, nil
}

// Detach unmaps the region and leaves it in place for its owner.
func (c *Channel) Detach() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Swap(true) {
		return nil
	}
	if c.region == nil {
		return nil
	}
	return internalshm.UnmapRegion(c.region)
}

// Destroy unmaps and removes the region. Only the owner may call it, after
// both peers are done with the channel. It is safe to call more than once.
func (c *Channel) Destroy() error {
	if !c.owner {
		return ErrNotOwner
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	wasClosed := c.closed.Swap(true)
	if c.region == nil || c.removed {
		return nil
	}
	_, span := c.tracer.Start(context.Background(), "shm.Destroy", trace.WithAttributes(
		attribute.String("shm.name", c.name),
	))
	defer span.End()

	var errs []error
	if !wasClosed {
		errs = append(errs, internalshm.UnmapRegion(c.region))
	}
	errs = append(errs, internalshm.RemoveRegion(c.path))
	c.removed = true
	owned.Remove(c.path)
	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
	}
	return err
}
