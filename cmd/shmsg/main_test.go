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

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/shmsg/internal/logging"
	"github.com/srediag/shmsg/pkg/relay"
)

// envRunMain makes the test binary behave as shmsg itself, so a test can
// run it as producer and have it spawn its own consumer.
const envRunMain = "SHMSG_TEST_RUN_MAIN"

func TestMain(m *testing.M) {
	if os.Getenv(envRunMain) == "1" {
		main()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func TestParseFlags_Defaults(t *testing.T) {
	defer logging.SetLevel(logging.Level())
	cfg, rest, err := parseFlags("test", nil)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, relay.DefaultConfig().ChannelName, cfg.ChannelName)
	assert.Equal(t, 30, cfg.FragmentSize)
	assert.Equal(t, 90, cfg.StagingCapacity)
	assert.Equal(t, relay.NotifierFutex, cfg.Notifier)
}

func TestParseFlags_Overrides(t *testing.T) {
	defer logging.SetLevel(logging.Level())
	t.Setenv(relay.EnvChannel, "from-env")
	t.Setenv(relay.EnvFragmentSize, "16")
	t.Setenv(logging.EnvLogLevel, "3")

	cfg, rest, err := parseFlags("test", []string{
		"-fragment-size", "8",
		"-notifier", "signal",
		"-wait-timeout", "2s",
		"-log-level", "1",
		"/dev/shm/other",
	})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ChannelName)
	assert.Equal(t, 8, cfg.FragmentSize)
	assert.Equal(t, relay.NotifierSignal, cfg.Notifier)
	assert.Equal(t, 2*time.Second, cfg.WaitTimeout)
	assert.Equal(t, []string{"/dev/shm/other"}, rest)
	assert.Equal(t, logging.LevelDebug, logging.Level())
}

func TestParseFlags_Invalid(t *testing.T) {
	defer logging.SetLevel(logging.Level())
	_, _, err := parseFlags("test", []string{"-notifier", "pigeon"})
	assert.Error(t, err)

	_, _, err = parseFlags("test", []string{"-log-level", "9"})
	assert.Error(t, err)

	t.Setenv(relay.EnvWaitTimeout, "never")
	_, _, err = parseFlags("test", nil)
	assert.Error(t, err)
}

func TestParseFlags_Help(t *testing.T) {
	_, _, err := parseFlags("test", []string{"-h"})
	assert.True(t, errors.Is(err, flag.ErrHelp))
}

func TestRunLoopback(t *testing.T) {
	cfg := relay.DefaultConfig()
	cfg.LogOutput = io.Discard
	cfg.WaitTimeout = 5 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	long := strings.Repeat("0123456789", 4) + "abcde"
	in := strings.NewReader("HELLO\n" + long + "\nq\n")
	var out bytes.Buffer
	require.NoError(t, runLoopback(ctx, cfg, in, &out))

	got := out.String()
	assert.Contains(t, got, "consumer [new message] HELLO\n")
	assert.Contains(t, got, "consumer [message, more to come] "+long[:30]+"\n")
	assert.Contains(t, got, "consumer [new message] "+long[30:]+"\n")
	assert.Contains(t, got, "consumer [shutting down] \n")
	assert.Equal(t, 1, strings.Count(got, "[shutting down]"))
	assert.True(t, strings.Index(got, "[new message] HELLO") < strings.Index(got, "[message, more to come]"))
}
