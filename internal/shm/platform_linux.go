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

//go:build linux

package shm

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// MapRegion creates (opts.Create) or attaches to a shared memory region.
// Creation is exclusive: an existing region with the same name is an error.
func MapRegion(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Size <= 0 {
		return nil, fmt.Errorf("invalid region size %d", opts.Size)
	}
	path := RegionPath(opts)

	flags := unix.O_RDWR | unix.O_CLOEXEC
	if opts.Create {
		if !canCreateOnDevShm(uint64(opts.Size), path) {
			return nil, fmt.Errorf("%w: path:%s size:%d", ErrNoSpace, path, opts.Size)
		}
		flags |= unix.O_CREAT | unix.O_EXCL
	}
	fd, err := unix.Open(path, flags, 0600)
	if err != nil {
		switch {
		case errors.Is(err, unix.EEXIST):
			return nil, fmt.Errorf("%w: %s", ErrExists, path)
		case errors.Is(err, unix.ENOENT):
			return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	cleanup := func() {
		_ = unix.Close(fd)
		if opts.Create {
			_ = unix.Unlink(path)
		}
	}

	if opts.Create {
		if err := unix.Ftruncate(fd, int64(opts.Size)); err != nil {
			cleanup()
			return nil, fmt.Errorf("ftruncate: %w", err)
		}
	} else {
		var st unix.Stat_t
		if err := unix.Fstat(fd, &st); err != nil {
			cleanup()
			return nil, fmt.Errorf("fstat: %w", err)
		}
		if st.Size == 0 {
			cleanup()
			return nil, fmt.Errorf("%w: %s is empty", ErrNotReady, path)
		}
		if st.Size != int64(opts.Size) {
			cleanup()
			return nil, fmt.Errorf("%w: %s is %d bytes, want %d", ErrSizeMismatch, path, st.Size, opts.Size)
		}
	}

	addr, err := unix.Mmap(fd, 0, opts.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("mmap: %w", err)
	}
	if opts.Create {
		for i := range addr {
			addr[i] = 0
		}
	}
	return &MappedRegion{
		Addr: addr,
		Path: path,
		fd:   fd,
	}, nil
}

// UnmapRegion unmaps and closes the shared memory region. The backing file stays.
func UnmapRegion(region *MappedRegion) error {
	if region == nil || region.Addr == nil {
		return nil
	}
	var errs []error
	if err := unix.Munmap(region.Addr); err != nil {
		errs = append(errs, fmt.Errorf("munmap: %w", err))
	}
	region.Addr = nil
	if err := unix.Close(region.fd); err != nil {
		errs = append(errs, fmt.Errorf("close fd %d: %w", region.fd, err))
	}
	return errors.Join(errs...)
}

// RemoveRegion unlinks the backing file of a region.
func RemoveRegion(path string) error {
	if err := unix.Unlink(path); err != nil && !errors.Is(err, unix.ENOENT) {
		return fmt.Errorf("unlink %s: %w", path, err)
	}
	return nil
}
