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
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/srediag/shmsg/internal/logging"
	"github.com/srediag/shmsg/pkg/relay"
)

// parseFlags layers command line flags over the SHMSG_* environment.
func parseFlags(name string, args []string) (*relay.Config, []string, error) {
	cfg, err := relay.ConfigFromEnv()
	if err != nil {
		return nil, nil, err
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.ChannelName, "channel", cfg.ChannelName, "channel name shared by both peers ("+relay.EnvChannel+")")
	fs.StringVar(&cfg.ChannelDir, "dir", cfg.ChannelDir, "directory holding the channel, /dev/shm when empty ("+relay.EnvChannelDir+")")
	fs.IntVar(&cfg.FragmentSize, "fragment-size", cfg.FragmentSize, "slot payload capacity in bytes ("+relay.EnvFragmentSize+")")
	fs.IntVar(&cfg.StagingCapacity, "staging", cfg.StagingCapacity, "longest accepted message in bytes ("+relay.EnvStagingCapacity+")")
	notifier := fs.String("notifier", string(cfg.Notifier), "wake lines between processes: futex or signal ("+relay.EnvNotifier+")")
	fs.DurationVar(&cfg.WaitTimeout, "wait-timeout", cfg.WaitTimeout, "fail a handshake wait after this long, 0 waits forever ("+relay.EnvWaitTimeout+")")
	fs.Uint64Var(&cfg.AttachRetries, "attach-retries", cfg.AttachRetries, "consumer attach retries at startup ("+relay.EnvAttachRetries+")")
	fs.DurationVar(&cfg.RenderHold, "hold", cfg.RenderHold, "how long each displayed fragment stays on screen ("+relay.EnvRenderHold+")")
	fs.StringVar(&cfg.AdminAddr, "admin", cfg.AdminAddr, "serve /live, /ready and /metrics on this address ("+relay.EnvAdminAddr+")")
	logLevel := fs.Int("log-level", logging.Level(), "0 trace, 1 debug, 2 info, 3 warn, 4 error, 5 silent ("+logging.EnvLogLevel+")")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	cfg.Notifier = relay.NotifierKind(*notifier)
	if *logLevel < logging.LevelTrace || *logLevel > logging.LevelNoPrint {
		return nil, nil, fmt.Errorf("invalid log level %d", *logLevel)
	}
	logging.SetLevel(*logLevel)
	// a spawned peer inherits the level
	_ = os.Setenv(logging.EnvLogLevel, strconv.Itoa(*logLevel))

	if err := relay.VerifyConfig(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}
