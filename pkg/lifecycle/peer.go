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

// Package lifecycle bootstraps a relay session across two processes: the
// producer spawns its consumer peer, the consumer attaches to the channel
// the producer created, and both release what they own when interrupted.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/srediag/shmsg/pkg/relay"
)

// ErrPeerExited is the cancellation cause of a supervised context whose
// peer exited first.
var ErrPeerExited = errors.New("lifecycle: peer exited")

// Peer is a spawned consumer process. It is reaped in the background from
// the moment it starts.
type Peer struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// SpawnPeer starts name with args. The child inherits this process's
// environment and standard streams, plus cfg rendered by Config.Environ.
func SpawnPeer(cfg *relay.Config, name string, args ...string) (*Peer, error) {
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), cfg.Environ()...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn peer %s: %w", name, err)
	}
	p := &Peer{cmd: cmd, done: make(chan struct{})}
	go p.reap()
	return p, nil
}

// SpawnSelf re-executes the running binary with args.
func SpawnSelf(cfg *relay.Config, args ...string) (*Peer, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	return SpawnPeer(cfg, exe, args...)
}

func (p *Peer) reap() {
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		err = fmt.Errorf("peer %d exited with status %d", p.PID(), exitErr.ExitCode())
	}
	p.err = err
	close(p.done)
}

// PID returns the peer's process id.
func (p *Peer) PID() int {
	return p.cmd.Process.Pid
}

// Done is closed once the peer has exited and been reaped.
func (p *Peer) Done() <-chan struct{} { return p.done }

// Exited reports whether the peer is gone.
func (p *Peer) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the peer exits. A non-zero exit status is an error.
// It may be called any number of times.
func (p *Peer) Wait() error {
	<-p.done
	return p.err
}

// Supervise returns a context that is cancelled when parent is, or when the
// peer exits. In the latter case context.Cause wraps ErrPeerExited and,
// for a non-zero status, the exit error.
func (p *Peer) Supervise(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	go func() {
		select {
		case <-p.done:
			if p.err != nil {
				cancel(fmt.Errorf("%w: %w", ErrPeerExited, p.err))
			} else {
				cancel(fmt.Errorf("%w before the session ended", ErrPeerExited))
			}
		case <-ctx.Done():
		}
	}()
	return ctx, func() { cancel(context.Canceled) }
}

// Kill stops the peer without waiting for it.
func (p *Peer) Kill() error {
	if p.Exited() {
		return nil
	}
	err := p.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
