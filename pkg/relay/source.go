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
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Workiva/go-datastructures/queue"
)

// QuitCommand typed on its own line ends the session.
const QuitCommand = "q"

// PromptText is printed before every line read by a LineSource.
const PromptText = "Please, input message: (q - quit)\n"

// Source is the input boundary: Next returns one logical message, or io.EOF
// when the session should end.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
}

// LineSource reads one message per line. A line holding only QuitCommand, or
// the end of input, ends the session. Lines longer than the staging capacity
// are reported on the prompt writer and skipped.
type LineSource struct {
	scanner  *bufio.Scanner
	prompt   io.Writer
	capacity int
}

// NewLineSource reads from in and prompts on prompt (which may be nil).
func NewLineSource(in io.Reader, prompt io.Writer, capacity int) *LineSource {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 4096), maxStagingCapacity+1)
	return &LineSource{scanner: sc, prompt: prompt, capacity: capacity}
}

func (s *LineSource) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.prompt != nil {
			_, _ = io.WriteString(s.prompt, PromptText)
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		line := bytes.TrimSuffix(s.scanner.Bytes(), []byte{'\r'})
		if string(line) == QuitCommand {
			return nil, io.EOF
		}
		if len(line) > s.capacity {
			if s.prompt != nil {
				fmt.Fprintf(s.prompt, "message is %d bytes, at most %d fit, try again\n", len(line), s.capacity)
			}
			continue
		}
		return append([]byte{}, line...), nil
	}
}

// queuePollInterval bounds how long QueueSource blocks before rechecking ctx.
const queuePollInterval = 50 * time.Millisecond

type endOfSession struct{}

// QueueSource is a programmatic Source fed through Push and Finish.
type QueueSource struct {
	q        *queue.Queue
	capacity int
	done     bool
}

// NewQueueSource returns an empty source accepting messages up to capacity bytes.
func NewQueueSource(capacity int) *QueueSource {
	return &QueueSource{q: queue.New(8), capacity: capacity}
}

// Push stages a copy of msg.
func (s *QueueSource) Push(msg []byte) error {
	if len(msg) > s.capacity {
		return fmt.Errorf("%w: %d > %d bytes", ErrStagingOverflow, len(msg), s.capacity)
	}
	return s.q.Put(append([]byte{}, msg...))
}

// Finish makes Next return io.EOF once every pushed message was taken.
func (s *QueueSource) Finish() error {
	return s.q.Put(endOfSession{})
}

// Close discards staged messages; Next returns io.EOF afterwards.
func (s *QueueSource) Close() {
	s.q.Dispose()
}

// Len returns the number of staged entries.
func (s *QueueSource) Len() int {
	return int(s.q.Len())
}

func (s *QueueSource) Next(ctx context.Context) ([]byte, error) {
	if s.done {
		return nil, io.EOF
	}
	for {
		items, err := s.q.Poll(1, queuePollInterval)
		switch {
		case err == nil && len(items) > 0:
			switch v := items[0].(type) {
			case []byte:
				return v, nil
			case endOfSession:
				s.done = true
				return nil, io.EOF
			}
			return nil, fmt.Errorf("unexpected queue item %T", items[0])
		case err == nil, errors.Is(err, queue.ErrTimeout):
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		case errors.Is(err, queue.ErrDisposed):
			s.done = true
			return nil, io.EOF
		default:
			return nil, err
		}
	}
}
