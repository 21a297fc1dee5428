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
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/srediag/shmsg/internal/logging"
	"github.com/srediag/shmsg/pkg/shm"
)

// InterruptExitCode is passed to exit after an interrupt was handled.
const InterruptExitCode = 130

// DefaultReleaseGrace bounds how long an interrupted session may take to
// unwind before its owned channels are destroyed from the signal handler.
const DefaultReleaseGrace = 2 * time.Second

// ReleaseOnInterrupt cancels the session when SIGINT or SIGTERM arrives and
// gives it grace to unwind and destroy its channels on its own goroutine.
// Whatever the process still owns after that is destroyed here, then exit
// is called. The returned stop function removes the handler; the session
// calls it once its channels are released. After an interrupt, stop blocks
// until exit has been called.
func ReleaseOnInterrupt(log *logging.Logger, cancel context.CancelFunc, grace time.Duration, exit func(code int)) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	finished := make(chan struct{})
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer close(finished)
		select {
		case sig := <-sigCh:
			log.Warnf("received %s, stopping session", sig)
			cancel()
			select {
			case <-done:
			case <-time.After(grace):
				log.Warnf("session did not unwind within %s", grace)
			}
			if n := shm.OwnedCount(); n > 0 {
				log.Warnf("releasing %d owned channel(s)", n)
				if err := shm.ReleaseOwned(); err != nil {
					log.Errorf("release owned channels: %v", err)
				}
			}
			exit(InterruptExitCode)
		case <-done:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(done)
		})
		<-finished
	}
}
