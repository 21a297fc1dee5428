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

package health

import (
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"runtime"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/shmsg/pkg/shm"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, path, nil))
	return rw
}

func TestPeerAlive(t *testing.T) {
	assert.NoError(t, PeerAlive(os.Getpid)())
	assert.ErrorIs(t, PeerAlive(func() int { return 0 })(), ErrNoPeer)

	if runtime.GOOS != "linux" {
		t.Skip("reaped pid probe is only checked on linux")
	}
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())
	assert.Error(t, PeerAlive(func() int { return cmd.Process.Pid })())
}

func TestChannelMapped(t *testing.T) {
	ch := shm.NewHeapChannel(30)
	check := ChannelMapped(ch)
	assert.NoError(t, check())
	require.NoError(t, ch.Detach())
	assert.ErrorIs(t, check(), ErrChannelReleased)
}

func TestAdminMux(t *testing.T) {
	reg := prometheus.NewRegistry()
	ch := shm.NewHeapChannel(30)
	pid := 0
	mux := NewAdminMux(NewHandler(reg, ch, func() int { return pid }), reg)

	// readiness includes the liveness checks
	assert.Equal(t, http.StatusServiceUnavailable, get(t, mux, "/live").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, mux, "/ready").Code)

	pid = os.Getpid()
	assert.Equal(t, http.StatusOK, get(t, mux, "/live").Code)
	assert.Equal(t, http.StatusOK, get(t, mux, "/ready").Code)

	metrics := get(t, mux, "/metrics")
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "shmsg_healthcheck_status")

	require.NoError(t, ch.Detach())
	assert.Equal(t, http.StatusServiceUnavailable, get(t, mux, "/ready").Code)
	assert.Equal(t, http.StatusOK, get(t, mux, "/live").Code)
}
