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

package relay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// NotifierKind selects the wake line implementation used between processes.
type NotifierKind string

const (
	// NotifierFutex uses futex words inside the shared region. It never loses
	// an early notification.
	NotifierFutex NotifierKind = "futex"
	// NotifierSignal uses SIGUSR1/SIGUSR2 between the two processes. A
	// notification raised before the peer waits can be lost.
	NotifierSignal NotifierKind = "signal"
)

const (
	defaultChannelName     = "shmsg.2007"
	defaultFragmentSize    = 30
	defaultStagingCapacity = 3 * defaultFragmentSize
	defaultAttachRetries   = 3

	maxFragmentSize    = 1 << 20
	maxStagingCapacity = 64 << 20
)

// Environment variables read by ConfigFromEnv and written by Environ.
const (
	EnvChannel         = "SHMSG_CHANNEL"
	EnvChannelDir      = "SHMSG_CHANNEL_DIR"
	EnvFragmentSize    = "SHMSG_FRAGMENT_SIZE"
	EnvStagingCapacity = "SHMSG_STAGING_CAPACITY"
	EnvNotifier        = "SHMSG_NOTIFIER"
	EnvWaitTimeout     = "SHMSG_WAIT_TIMEOUT"
	EnvAttachRetries   = "SHMSG_ATTACH_RETRIES"
	EnvRenderHold      = "SHMSG_RENDER_HOLD"
	EnvAdminAddr       = "SHMSG_ADMIN_ADDR"
)

// Config is used to tune a relay session. Both peers must agree on
// ChannelName, ChannelDir, FragmentSize and Notifier.
type Config struct {
	// ChannelName is the identity of the shared region.
	ChannelName string

	// ChannelDir holds the region's backing file. Empty means /dev/shm.
	ChannelDir string

	// FragmentSize is the slot payload capacity L.
	FragmentSize int

	// StagingCapacity bounds one logical message at the input boundary.
	// It is independent of FragmentSize.
	StagingCapacity int

	// Notifier selects the cross-process wake lines.
	Notifier NotifierKind

	// WaitTimeout bounds every handshake wait. Zero blocks forever.
	WaitTimeout time.Duration

	// AttachRetries is how many times the consumer retries attaching at
	// startup before giving up.
	AttachRetries uint64

	// RenderHold is how long the display sink keeps each fragment on screen.
	RenderHold time.Duration

	// AdminAddr serves health and metrics endpoints when not empty.
	AdminAddr string

	// LogOutput is where the session logs go. Nil means os.Stdout.
	LogOutput io.Writer
}

// DefaultConfig returns the classic sizing: 30 byte fragments, 90 byte
// staging capacity, futex notification and no wait timeout.
func DefaultConfig() *Config {
	return &Config{
		ChannelName:     defaultChannelName,
		FragmentSize:    defaultFragmentSize,
		StagingCapacity: defaultStagingCapacity,
		Notifier:        NotifierFutex,
		AttachRetries:   defaultAttachRetries,
		LogOutput:       os.Stdout,
	}
}

// VerifyConfig is used to verify the sanity of configuration
func VerifyConfig(config *Config) error {
	if config == nil {
		return errors.New("nil config")
	}
	if config.ChannelName == "" {
		return errors.New("ChannelName must not be empty")
	}
	if strings.ContainsRune(config.ChannelName, '/') {
		return fmt.Errorf("ChannelName %q must not contain '/'", config.ChannelName)
	}
	if config.FragmentSize <= 0 || config.FragmentSize > maxFragmentSize {
		return fmt.Errorf("FragmentSize must be in (0, %d], got %d", maxFragmentSize, config.FragmentSize)
	}
	if config.StagingCapacity <= 0 || config.StagingCapacity > maxStagingCapacity {
		return fmt.Errorf("StagingCapacity must be in (0, %d], got %d", maxStagingCapacity, config.StagingCapacity)
	}
	switch config.Notifier {
	case NotifierFutex, NotifierSignal:
	default:
		return fmt.Errorf("unknown Notifier %q", config.Notifier)
	}
	if config.WaitTimeout < 0 {
		return fmt.Errorf("WaitTimeout must not be negative, got %s", config.WaitTimeout)
	}
	if config.RenderHold < 0 {
		return fmt.Errorf("RenderHold must not be negative, got %s", config.RenderHold)
	}
	return nil
}

// ConfigFromEnv returns DefaultConfig overridden by SHMSG_* environment variables.
func ConfigFromEnv() (*Config, error) {
	return configFromLookup(os.LookupEnv)
}

func configFromLookup(lookup func(string) (string, bool)) (*Config, error) {
	c := DefaultConfig()
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str(EnvChannel, &c.ChannelName)
	str(EnvChannelDir, &c.ChannelDir)
	integer(EnvFragmentSize, &c.FragmentSize)
	integer(EnvStagingCapacity, &c.StagingCapacity)
	if v, ok := lookup(EnvNotifier); ok {
		c.Notifier = NotifierKind(v)
	}
	duration(EnvWaitTimeout, &c.WaitTimeout)
	if v, ok := lookup(EnvAttachRetries); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvAttachRetries, err))
		} else {
			c.AttachRetries = n
		}
	}
	duration(EnvRenderHold, &c.RenderHold)
	str(EnvAdminAddr, &c.AdminAddr)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// Environ renders the peer-relevant part of c as KEY=value pairs, the form
// the producer hands to the consumer process it spawns.
func (c *Config) Environ() []string {
	return []string{
		EnvChannel + "=" + c.ChannelName,
		EnvChannelDir + "=" + c.ChannelDir,
		EnvFragmentSize + "=" + strconv.Itoa(c.FragmentSize),
		EnvStagingCapacity + "=" + strconv.Itoa(c.StagingCapacity),
		EnvNotifier + "=" + string(c.Notifier),
		EnvWaitTimeout + "=" + c.WaitTimeout.String(),
		EnvAttachRetries + "=" + strconv.FormatUint(c.AttachRetries, 10),
		EnvRenderHold + "=" + c.RenderHold.String(),
	}
}
