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

// Package health exposes liveness and readiness of a relay session over
// HTTP, together with the session's Prometheus metrics.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ErrNoPeer is reported while the peer process is not known yet.
var ErrNoPeer = errors.New("health: no peer process")

// ErrChannelReleased is reported once the shared channel was released.
var ErrChannelReleased = errors.New("health: channel released")

// peerProbeTimeout bounds a single peer probe.
const peerProbeTimeout = time.Second

// Channel is the part of a shared channel the probes look at.
type Channel interface {
	Name() string
	Closed() bool
}

// PeerAlive returns a check that fails when the process pid() no longer
// exists. pid may change over the session; zero means not spawned yet.
func PeerAlive(pid func() int) healthcheck.Check {
	return func() error {
		p := pid()
		if p <= 0 {
			return ErrNoPeer
		}
		return processAlive(p)
	}
}

// ChannelMapped returns a check that fails once ch has been released.
func ChannelMapped(ch Channel) healthcheck.Check {
	return func() error {
		if ch.Closed() {
			return fmt.Errorf("%w: %s", ErrChannelReleased, ch.Name())
		}
		return nil
	}
}

// NewHandler returns the probes of one session. Check results are also
// exported as gauges through reg.
func NewHandler(reg prometheus.Registerer, ch Channel, peerPID func() int) healthcheck.Handler {
	h := healthcheck.NewMetricsHandler(reg, "shmsg")
	h.AddLivenessCheck("peer-process", healthcheck.Timeout(PeerAlive(peerPID), peerProbeTimeout))
	h.AddReadinessCheck("channel-mapped", ChannelMapped(ch))
	return h
}

// NewAdminMux serves /live and /ready from h and /metrics from g.
func NewAdminMux(h healthcheck.Handler, g prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/live", h.LiveEndpoint)
	mux.HandleFunc("/ready", h.ReadyEndpoint)
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}

// Serve runs handler on addr until ctx is done.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
