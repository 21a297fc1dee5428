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

// Package shm contains platform-specific helpers behind pkg/shm: region
// mapping, atomics on mapped words and the futex wait/wake syscalls.
package shm

import (
	"errors"
	"path/filepath"
)

// DefaultDir is where named regions live unless MapOptions.Dir says otherwise.
const DefaultDir = "/dev/shm"

var (
	// ErrExists is returned when creating a region whose name is taken.
	ErrExists = errors.New("shared memory region already exists")
	// ErrNotExist is returned when attaching to a region nobody created.
	ErrNotExist = errors.New("shared memory region does not exist")
	// ErrSizeMismatch is returned when an existing region has an unexpected size.
	ErrSizeMismatch = errors.New("shared memory region size mismatch")
	// ErrNotReady is returned when a region exists but its creator has not
	// sized or initialised it yet.
	ErrNotReady = errors.New("shared memory region not initialised yet")
	// ErrNoSpace is returned when the backing filesystem cannot hold the region.
	ErrNoSpace = errors.New("not enough space left for shared memory region")
	// ErrUnsupported is returned on platforms without an implementation.
	ErrUnsupported = errors.New("shared memory not supported on this platform")
)

// MappedRegion represents a memory-mapped shared region.
type MappedRegion struct {
	Addr []byte
	Path string
	fd   int
}

// MapOptions defines options for mapping shared memory.
type MapOptions struct {
	Name string
	// Dir defaults to DefaultDir.
	Dir    string
	Size   int
	Create bool
}

// RegionPath returns the filesystem path of the region described by opts.
func RegionPath(opts MapOptions) string {
	dir := opts.Dir
	if dir == "" {
		dir = DefaultDir
	}
	return filepath.Join(dir, opts.Name)
}

// Function implementations are provided in platform-specific files (platform_linux.go, platform_other.go).
