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
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/srediag/shmsg/internal/logging"
)

type options struct {
	metrics   *Metrics
	logger    *logging.Logger
	tracer    trace.Tracer
	onMessage func([]byte)
}

// Option customizes a producer or consumer side.
type Option func(*options)

// WithMetrics records traffic in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger replaces the default logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracer records a span per sent message.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMessageHandler makes a Reassembler concatenate fragments and pass every
// complete logical message to fn. The slice is only valid during the call.
func WithMessageHandler(fn func(msg []byte)) Option {
	return func(o *options) { o.onMessage = fn }
}

func buildOptions(cfg *Config, name string, opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.New(name, cfg.LogOutput)
	}
	if o.tracer == nil {
		o.tracer = tracenoop.NewTracerProvider().Tracer("github.com/srediag/shmsg/pkg/relay")
	}
	return o
}
