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
	internalshm "github.com/srediag/shmsg/internal/shm"
)

// Region layout. Every header field is a 4-byte word.
//
//	magic | version | capacity | owner pid | ready seq | data seq | kind | length | payload[capacity]
const (
	magicOffset    = 0
	versionOffset  = magicOffset + 4
	capacityOffset = versionOffset + 4
	ownerPIDOffset = capacityOffset + 4
	readyOffset    = ownerPIDOffset + 4
	dataOffset     = readyOffset + 4
	kindOffset     = dataOffset + 4
	lengthOffset   = kindOffset + 4
	payloadOffset  = lengthOffset + 4

	// HeaderSize is the number of bytes in front of the payload.
	HeaderSize = payloadOffset

	layoutMagic   uint32 = 0x47534d53 // "SMSG"
	layoutVersion uint32 = 1
)

// RegionSize is the size of a region whose slot holds capacity payload bytes.
func RegionSize(capacity int) int {
	return HeaderSize + capacity
}

type header []byte

func (h header) word(off int) *uint32 {
	return internalshm.Word(h, off)
}

func (h header) load(off int) uint32 {
	return internalshm.AtomicLoadUint32(h.word(off))
}

func (h header) store(off int, v uint32) {
	internalshm.AtomicStoreUint32(h.word(off), v)
}

func (h header) init(capacity int, ownerPID int) {
	h.store(versionOffset, layoutVersion)
	h.store(capacityOffset, uint32(capacity))
	h.store(ownerPIDOffset, uint32(ownerPID))
	h.store(readyOffset, 0)
	h.store(dataOffset, 0)
	h.store(kindOffset, uint32(KindData))
	h.store(lengthOffset, 0)
	// magic last: a peer that sees it sees the rest
	h.store(magicOffset, layoutMagic)
}
