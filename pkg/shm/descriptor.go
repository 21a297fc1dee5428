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

import "strconv"

// Kind tags a descriptor. The numeric values are what is stored in the slot.
type Kind uint32

const (
	// KindData is the final (or only) fragment of a logical message.
	KindData Kind = 0
	// KindContinuation is a non-final fragment; more follow.
	KindContinuation Kind = 1
	// KindTerminate ends the session. Its payload is empty.
	KindTerminate Kind = 2
)

// Valid reports whether k is one of the recognized kinds.
func (k Kind) Valid() bool {
	return k <= KindTerminate
}

func (k Kind) String() string {
	switch k {
	case KindData:
		return "Data"
	case KindContinuation:
		return "Continuation"
	case KindTerminate:
		return "Terminate"
	}
	return "Kind(" + strconv.FormatUint(uint64(k), 10) + ")"
}

// Descriptor is the sole content of the slot.
type Descriptor struct {
	Kind    Kind
	Payload []byte
}
