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
	"io"
	"sync"
	"time"

	"github.com/valyala/bytebufferpool"
)

// Label tells the display what a rendered fragment is.
type Label string

const (
	LabelNewMessage   Label = "new message"
	LabelMoreToCome   Label = "message, more to come"
	LabelShuttingDown Label = "shutting down"
)

// Sink is the display boundary. Render must not fail back into the protocol.
type Sink interface {
	Render(label Label, text []byte)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(label Label, text []byte)

func (f SinkFunc) Render(label Label, text []byte) { f(label, text) }

// WriterSink renders "[label] text" lines to a writer, then holds for a
// fixed time so a human can read them.
type WriterSink struct {
	mu     sync.Mutex
	out    io.Writer
	prefix string
	hold   time.Duration
}

// NewWriterSink returns a sink writing to out. prefix, when not empty, starts
// every line.
func NewWriterSink(out io.Writer, prefix string, hold time.Duration) *WriterSink {
	return &WriterSink{out: out, prefix: prefix, hold: hold}
}

func (s *WriterSink) Render(label Label, text []byte) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if s.prefix != "" {
		_, _ = buf.WriteString(s.prefix)
		_ = buf.WriteByte(' ')
	}
	_ = buf.WriteByte('[')
	_, _ = buf.WriteString(string(label))
	_, _ = buf.WriteString("] ")
	_, _ = buf.Write(text)
	_ = buf.WriteByte('\n')

	s.mu.Lock()
	_, _ = s.out.Write(buf.B)
	s.mu.Unlock()
	if s.hold > 0 {
		time.Sleep(s.hold)
	}
}
