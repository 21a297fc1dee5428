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

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/shmsg/internal/logging"
	"github.com/srediag/shmsg/pkg/lifecycle"
	"github.com/srediag/shmsg/pkg/relay"
	"github.com/srediag/shmsg/pkg/shm"
)

func peerTestConfig(t *testing.T) *relay.Config {
	cfg := relay.DefaultConfig()
	cfg.LogOutput = io.Discard
	cfg.ChannelName = "cmd_peer_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	cfg.ChannelDir = t.TempDir()
	return cfg
}

func TestRunProducer_ConsumerExitsFirst(t *testing.T) {
	cfg := peerTestConfig(t)
	ctx := context.Background()

	ch, err := shm.Create(ctx, channelOptions(cfg))
	require.NoError(t, err)
	defer func() { _ = ch.Destroy() }()
	ready, stop := producerReady(cfg, ch)
	defer stop()

	peer, err := lifecycle.SpawnPeer(cfg, "sh", "-c", "exit 3")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		in := strings.NewReader("nobody is listening\nq\n")
		done <- runProducer(ctx, cfg, ch, ready, peer, in, io.Discard, logging.New("producer", io.Discard))
	}()
	select {
	case err := <-done:
		require.ErrorIs(t, err, lifecycle.ErrPeerExited)
		assert.Contains(t, err.Error(), "status 3")
	case <-time.After(10 * time.Second):
		t.Fatal("producer kept waiting on a consumer that had exited")
	}
}

func TestProducerCommand_SpawnsConsumer(t *testing.T) {
	cfg := peerTestConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	long := strings.Repeat("0123456789", 4) + "abcde"
	cmd := exec.CommandContext(ctx, os.Args[0], "producer",
		"-channel", cfg.ChannelName,
		"-dir", cfg.ChannelDir,
		"-hold", "0",
		"-wait-timeout", "10s",
		"-log-level", strconv.Itoa(logging.LevelNoPrint),
	)
	cmd.Env = append(os.Environ(), envRunMain+"=1")
	cmd.Stdin = strings.NewReader("HELLO\n" + long + "\nq\n")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	require.NoError(t, cmd.Run(), out.String())

	got := out.String()
	assert.Contains(t, got, "consumer [new message] HELLO\n")
	assert.Contains(t, got, "consumer [message, more to come] "+long[:30]+"\n")
	assert.Contains(t, got, "consumer [new message] "+long[30:]+"\n")
	assert.Equal(t, 1, strings.Count(got, "[shutting down]"))

	_, err := os.Stat(channelOptions(cfg).Path())
	assert.True(t, os.IsNotExist(err), "the producer removes the channel on exit")
}
