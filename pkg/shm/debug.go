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
	"fmt"
	"os"
	"unsafe"
)

// Detail is a snapshot of a region's header and slot.
type Detail struct {
	Magic    uint32
	Version  uint32
	Capacity uint32
	OwnerPID uint32
	ReadySeq uint32
	DataSeq  uint32
	Kind     Kind
	Length   uint32
	Payload  []byte
}

// ReadDetail decodes a region image, such as the content of its backing file.
func ReadDetail(mem []byte) (Detail, error) {
	if len(mem) < HeaderSize {
		return Detail{}, fmt.Errorf("region image is %d bytes, header needs %d", len(mem), HeaderSize)
	}
	// copy into aligned storage before reading words
	words := make([]uint32, (len(mem)+3)/4)
	img := header(unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(mem)))
	copy(img, mem)

	d := Detail{
		Magic:    img.load(magicOffset),
		Version:  img.load(versionOffset),
		Capacity: img.load(capacityOffset),
		OwnerPID: img.load(ownerPIDOffset),
		ReadySeq: img.load(readyOffset),
		DataSeq:  img.load(dataOffset),
		Kind:     Kind(img.load(kindOffset)),
		Length:   img.load(lengthOffset),
	}
	n := int(d.Length)
	if n > len(mem)-HeaderSize {
		n = len(mem) - HeaderSize
	}
	d.Payload = append([]byte(nil), img[payloadOffset:payloadOffset+n]...)
	return d, nil
}

// DebugChannelDetail prints the header and slot of the region stored at path.
func DebugChannelDetail(path string) {
	mem, err := os.ReadFile(path)
	if err != nil {
		fmt.Println(err)
		return
	}
	d, err := ReadDetail(mem)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("path:%s magic:%#x version:%d cap:%d owner:%d ready:%d data:%d kind:%s len:%d payload:%q\n",
		path, d.Magic, d.Version, d.Capacity, d.OwnerPID, d.ReadySeq, d.DataSeq, d.Kind, d.Length, d.Payload)
}
