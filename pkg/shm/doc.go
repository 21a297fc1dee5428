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

// Package shm implements the shared message slot: a region mapped into both
// peers that holds exactly one message descriptor next to the two
// notification words that guard it.
//
// The producer owns the region:
//
//	ch, err := shm.Create(ctx, shm.Options{Name: "shmsg.2007", Capacity: 30})
//	// ... spawn the consumer ...
//	defer ch.Destroy()
//
// The consumer attaches to it by the same name and capacity:
//
//	ch, err := shm.Attach(ctx, shm.Options{Name: "shmsg.2007", Capacity: 30})
//	defer ch.Detach()
//
// Read and Write are unsynchronized. Only pkg/relay should call them, and
// only when the handshake has granted the caller its turn.
//
// Channels are instrumented with OpenTelemetry spans and counters when a
// Meter or Tracer is supplied in Options.
package shm
