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
	"github.com/srediag/shmsg/pkg/notify"
	"github.com/srediag/shmsg/pkg/relay"
	"github.com/srediag/shmsg/pkg/shm"
)

// producerReady must run before the consumer is spawned: the futex line
// snapshots the ready word and the signal handler has to be installed
// before the consumer can raise.
func producerReady(cfg *relay.Config, ch *shm.Channel) (notify.Line, func()) {
	if cfg.Notifier == relay.NotifierSignal {
		w := notify.SignalWaiter(notify.ReadySignal)
		return w, w.Stop
	}
	return notify.NewFutexLine(ch.ReadyWord()), func() {}
}

func producerData(cfg *relay.Config, ch *shm.Channel, peerPID int) notify.Line {
	if cfg.Notifier == relay.NotifierSignal {
		return notify.SignalRaiser(peerPID, notify.DataSignal)
	}
	return notify.NewFutexLine(ch.DataWord())
}

// consumerDataSignal installs the data signal handler ahead of attaching,
// so a raise can never hit the default disposition. It is nil for futex.
func consumerDataSignal(cfg *relay.Config) *notify.SignalLine {
	if cfg.Notifier == relay.NotifierSignal {
		return notify.SignalWaiter(notify.DataSignal)
	}
	return nil
}

func consumerLines(cfg *relay.Config, ch *shm.Channel, dataSig *notify.SignalLine) notify.Pair {
	if cfg.Notifier == relay.NotifierSignal {
		return notify.Pair{
			Ready: notify.SignalRaiser(ch.OwnerPID(), notify.ReadySignal),
			Data:  dataSig,
		}
	}
	return notify.Pair{
		Ready: notify.NewFutexLine(ch.ReadyWord()),
		Data:  notify.NewFutexLine(ch.DataWord()),
	}
}

func channelOptions(cfg *relay.Config) shm.Options {
	return shm.Options{
		Name:     cfg.ChannelName,
		Dir:      cfg.ChannelDir,
		Capacity: cfg.FragmentSize,
	}
}
