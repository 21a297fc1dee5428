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

package lifecycle

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/shmsg/pkg/relay"
)

func requireShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
}

func TestSpawnPeer_PassesConfig(t *testing.T) {
	requireShell(t)
	cfg := relay.DefaultConfig()
	cfg.ChannelName = "spawned"
	cfg.FragmentSize = 12

	p, err := SpawnPeer(cfg, "sh", "-c", `test "$SHMSG_CHANNEL" = spawned && test "$SHMSG_FRAGMENT_SIZE" = 12`)
	require.NoError(t, err)
	assert.Positive(t, p.PID())
	assert.NoError(t, p.Wait())
}

func TestSpawnPeer_ExitStatus(t *testing.T) {
	requireShell(t)
	p, err := SpawnPeer(relay.DefaultConfig(), "sh", "-c", "exit 3")
	require.NoError(t, err)
	err = p.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 3")
	assert.NoError(t, p.Kill())
}

func TestSpawnPeer_WaitTwice(t *testing.T) {
	requireShell(t)
	p, err := SpawnPeer(relay.DefaultConfig(), "sh", "-c", "exit 0")
	require.NoError(t, err)
	assert.NoError(t, p.Wait())
	assert.NoError(t, p.Wait())
	assert.True(t, p.Exited())
}

func TestSupervise_PeerExitCancels(t *testing.T) {
	requireShell(t)
	p, err := SpawnPeer(relay.DefaultConfig(), "sh", "-c", "exit 3")
	require.NoError(t, err)

	ctx, cancel := p.Supervise(context.Background())
	defer cancel()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context outlived the peer")
	}
	cause := context.Cause(ctx)
	assert.ErrorIs(t, cause, ErrPeerExited)
	assert.Contains(t, cause.Error(), "status 3")
}

func TestSupervise_CleanExitStillCancels(t *testing.T) {
	requireShell(t)
	p, err := SpawnPeer(relay.DefaultConfig(), "sh", "-c", "exit 0")
	require.NoError(t, err)

	ctx, cancel := p.Supervise(context.Background())
	defer cancel()
	<-ctx.Done()
	assert.ErrorIs(t, context.Cause(ctx), ErrPeerExited)
}

func TestSupervise_ParentCancel(t *testing.T) {
	requireShell(t)
	p, err := SpawnPeer(relay.DefaultConfig(), "sh", "-c", "sleep 5")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, p.Kill())
		_ = p.Wait()
	}()

	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := p.Supervise(parent)
	defer cancel()
	cancelParent()
	<-ctx.Done()
	assert.ErrorIs(t, context.Cause(ctx), context.Canceled)
	assert.False(t, p.Exited())
}

func TestSpawnPeer_Missing(t *testing.T) {
	_, err := SpawnPeer(relay.DefaultConfig(), "/nonexistent/shmsg-peer")
	assert.Error(t, err)
}
