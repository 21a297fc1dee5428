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

package shm

import (
	"errors"

	internalshm "github.com/srediag/shmsg/internal/shm"
)

var (
	// ErrAllocation is returned when a channel cannot be created.
	ErrAllocation = errors.New("shm: channel allocation failed")
	// ErrAttach is returned when an existing channel cannot be mapped.
	ErrAttach = errors.New("shm: channel attach failed")
	// ErrChannelClosed is returned by slot access after Detach or Destroy.
	ErrChannelClosed = errors.New("shm: channel closed")
	// ErrPayloadTooLarge is returned when a payload exceeds the slot capacity.
	ErrPayloadTooLarge = errors.New("shm: payload exceeds slot capacity")
	// ErrCorruptDescriptor is returned when the stored length exceeds the slot capacity.
	ErrCorruptDescriptor = errors.New("shm: corrupt descriptor")
	// ErrNotOwner is returned when a non-owner tries to destroy a channel.
	ErrNotOwner = errors.New("shm: only the owner may destroy a channel")
)

// Retryable reports whether an Attach failure can go away on its own: the
// region is missing or its owner is still initialising it. Layout and
// capacity mismatches are not retryable.
func Retryable(err error) bool {
	return errors.Is(err, internalshm.ErrNotExist) || errors.Is(err, internalshm.ErrNotReady)
}
