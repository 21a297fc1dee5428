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

//go:build !unix

package notify

import (
	"context"
	"syscall"
)

const (
	DataSignal  = syscall.Signal(0x1e)
	ReadySignal = syscall.Signal(0x1f)
)

// SignalLine is not available on this platform; every call fails.
type SignalLine struct{}

func SignalRaiser(pid int, sig syscall.Signal) *SignalLine { return &SignalLine{} }

func SignalWaiter(sig syscall.Signal) *SignalLine { return &SignalLine{} }

func (l *SignalLine) Raise() error { return ErrUnsupported }

func (l *SignalLine) Wait(ctx context.Context) error { return ErrUnsupported }

func (l *SignalLine) Stop() {}

func (l *SignalLine) Caps() Capability { return CapCrossProcess }
