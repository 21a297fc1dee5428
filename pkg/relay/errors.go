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

import "errors"

var (
	// ErrProtocolStall is returned when a notification does not arrive
	// within Config.WaitTimeout.
	ErrProtocolStall = errors.New("relay: protocol stall")
	// ErrUnexpectedKind is returned when the slot holds an unrecognized kind.
	ErrUnexpectedKind = errors.New("relay: unexpected descriptor kind")
	// ErrSessionClosed is returned by operations on a terminated or broken session.
	ErrSessionClosed = errors.New("relay: session closed")
	// ErrStagingOverflow is returned when a message exceeds the staging capacity.
	ErrStagingOverflow = errors.New("relay: message exceeds staging capacity")
	// ErrFragmentSize is returned by Send when the fragment size is not positive.
	ErrFragmentSize = errors.New("relay: fragment size must be positive")
)
