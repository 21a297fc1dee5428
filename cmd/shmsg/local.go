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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/srediag/shmsg/internal/logging"
	"github.com/srediag/shmsg/pkg/relay"
	"github.com/srediag/shmsg/pkg/shm"
)

func notifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loopbackCommand runs both peers in this process, reading stdin.
func loopbackCommand(args []string) error {
	cfg, _, err := parseFlags("loopback", args)
	if err != nil {
		return err
	}
	ctx, cancel := notifyContext()
	defer cancel()
	return runLoopback(ctx, cfg, os.Stdin, os.Stdout)
}

func runLoopback(ctx context.Context, cfg *relay.Config, in io.Reader, out io.Writer) error {
	src := relay.NewLineSource(in, out, cfg.StagingCapacity)
	sink := relay.NewWriterSink(out, "consumer", cfg.RenderHold)
	return relay.RunLoopback(ctx, cfg, src, sink, relay.WithLogger(logging.New("loopback", cfg.LogOutput)))
}

// inspectCommand prints the region at the given path, or at the one the
// channel flags describe.
func inspectCommand(args []string) error {
	cfg, rest, err := parseFlags("inspect", args)
	if err != nil {
		return err
	}
	switch len(rest) {
	case 0:
		shm.DebugChannelDetail(channelOptions(cfg).Path())
	case 1:
		shm.DebugChannelDetail(rest[0])
	default:
		return fmt.Errorf("inspect takes at most one path, got %d", len(rest))
	}
	return nil
}
