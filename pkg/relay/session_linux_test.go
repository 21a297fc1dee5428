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

//go:build linux

package relay

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/shmsg/pkg/notify"
	"github.com/srediag/shmsg/pkg/shm"
)

func futexLines(ch *shm.Channel) notify.Pair {
	return notify.Pair{
		Ready: notify.NewFutexLine(ch.ReadyWord()),
		Data:  notify.NewFutexLine(ch.DataWord()),
	}
}

// Both ends map the same region separately, the way two processes would.
func TestFutexSessionOverSharedRegion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogOutput = io.Discard
	cfg.WaitTimeout = 5 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := shm.Options{
		Name:     "relay_test_" + strconv.FormatInt(time.Now().UnixNano(), 10),
		Dir:      t.TempDir(),
		Capacity: cfg.FragmentSize,
	}
	owner, err := shm.Create(ctx, opts)
	require.NoError(t, err)
	defer func() { assert.NoError(t, owner.Destroy()) }()
	peer, err := shm.Attach(ctx, opts)
	require.NoError(t, err)
	defer func() { assert.NoError(t, peer.Detach()) }()

	recv := NewReceiver(peer, futexLines(peer), cfg)
	frag := NewFragmenter(owner, futexLines(owner), cfg)

	msgs := []string{"HELLO", strings.Repeat("0123456789", 9), ""}
	sent := make(chan error, 1)
	go func() {
		for _, m := range msgs {
			if err := frag.Send(ctx, []byte(m)); err != nil {
				sent <- err
				return
			}
		}
		sent <- frag.Terminate(ctx)
	}()

	var got []string
	for {
		msg, err := recv.Receive(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, string(msg))
	}
	require.NoError(t, <-sent)
	assert.Equal(t, msgs, got)
	assert.Equal(t, 6, recv.Consumer().Reads())
}
