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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/srediag/shmsg/internal/logging"
	"github.com/srediag/shmsg/pkg/health"
	"github.com/srediag/shmsg/pkg/lifecycle"
	"github.com/srediag/shmsg/pkg/notify"
	"github.com/srediag/shmsg/pkg/relay"
	"github.com/srediag/shmsg/pkg/shm"
)

// producerCommand creates the channel, starts the consumer and sends every
// line read from stdin until q or end of input.
func producerCommand(args []string) error {
	cfg, _, err := parseFlags("producer", args)
	if err != nil {
		return err
	}
	log := logging.New("producer", cfg.LogOutput)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// deferred first so it runs after Destroy
	stop := lifecycle.ReleaseOnInterrupt(log, cancel, lifecycle.DefaultReleaseGrace, os.Exit)
	defer stop()

	ch, err := shm.Create(ctx, channelOptions(cfg))
	if err != nil {
		return err
	}
	defer func() {
		if err := ch.Destroy(); err != nil {
			log.Errorf("destroy channel: %v", err)
		}
	}()

	ready, stopReady := producerReady(cfg, ch)
	defer stopReady()

	peer, err := lifecycle.SpawnSelf(cfg, "consumer")
	if err != nil {
		return err
	}
	log.Infof("channel %s created, consumer pid %d", ch.Path(), peer.PID())
	return runProducer(ctx, cfg, ch, ready, peer, os.Stdin, os.Stdout, log)
}

// runProducer drives the session against a spawned consumer. The session is
// cut short if the consumer exits first, since nothing would ever raise the
// ready line again.
func runProducer(ctx context.Context, cfg *relay.Config, ch *shm.Channel, ready notify.Line,
	peer *lifecycle.Peer, in io.Reader, out io.Writer, log *logging.Logger) error {
	ctx, cancel := peer.Supervise(ctx)
	defer cancel()

	reg := prometheus.NewRegistry()
	metrics := relay.NewMetrics(reg)
	if cfg.AdminAddr != "" {
		h := health.NewHandler(reg, ch, peer.PID)
		go func() {
			if err := health.Serve(ctx, cfg.AdminAddr, health.NewAdminMux(h, reg)); err != nil {
				log.Warnf("admin endpoint %s: %v", cfg.AdminAddr, err)
			}
		}()
	}

	lines := notify.Pair{Ready: ready, Data: producerData(cfg, ch, peer.PID())}
	frag := relay.NewFragmenter(ch, lines, cfg, relay.WithMetrics(metrics), relay.WithLogger(log))
	src := relay.NewLineSource(in, out, cfg.StagingCapacity)

	sessionErr := relay.Pump(ctx, src, frag)
	if sessionErr != nil {
		if cause := context.Cause(ctx); errors.Is(cause, lifecycle.ErrPeerExited) {
			log.Errorf("consumer pid %d is gone, abandoning session", peer.PID())
			return fmt.Errorf("consumer: %w", cause)
		}
		// the consumer may be blocked on a notification that never comes
		if err := peer.Kill(); err != nil {
			log.Warnf("kill consumer: %v", err)
		}
		_ = peer.Wait()
		return fmt.Errorf("session: %w", sessionErr)
	}
	if err := peer.Wait(); err != nil {
		return fmt.Errorf("consumer: %w", err)
	}
	return nil
}

// consumerCommand attaches to the producer's channel and renders fragments
// until the producer terminates the session.
func consumerCommand(args []string) error {
	cfg, _, err := parseFlags("consumer", args)
	if err != nil {
		return err
	}
	log := logging.New("consumer", cfg.LogOutput)

	ctx, cancel := notifyContext()
	defer cancel()

	dataSig := consumerDataSignal(cfg)
	if dataSig != nil {
		defer dataSig.Stop()
	}

	ch, err := lifecycle.AttachWithRetry(ctx, channelOptions(cfg), cfg.AttachRetries, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := ch.Detach(); err != nil {
			log.Errorf("detach channel: %v", err)
		}
	}()

	sink := relay.NewWriterSink(os.Stdout, "consumer", cfg.RenderHold)
	reasm := relay.NewReassembler(ch, consumerLines(cfg, ch, dataSig), sink, cfg, relay.WithLogger(log))
	if err := reasm.Run(ctx); err != nil {
		if errors.Is(err, relay.ErrUnexpectedKind) {
			log.Errorf("fatal: %v", err)
		}
		return err
	}
	return nil
}
