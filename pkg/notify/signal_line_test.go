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

//go:build unix

package notify

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalLine_SelfDelivery(t *testing.T) {
	waiter := SignalWaiter(ReadySignal)
	defer waiter.Stop()
	raiser := SignalRaiser(os.Getpid(), ReadySignal)

	require.NoError(t, raiser.Raise())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, waiter.Wait(ctx))
	assert.Equal(t, CapCrossProcess, waiter.Caps())
}

func TestSignalLine_Misuse(t *testing.T) {
	raiser := SignalRaiser(0, DataSignal)
	assert.ErrorIs(t, raiser.Raise(), ErrNoPeer)
	assert.ErrorIs(t, raiser.Wait(context.Background()), ErrClosed)

	waiter := SignalWaiter(DataSignal)
	waiter.Stop()
	assert.ErrorIs(t, waiter.Wait(context.Background()), ErrClosed)
	assert.ErrorIs(t, waiter.Raise(), ErrNoPeer)
}
