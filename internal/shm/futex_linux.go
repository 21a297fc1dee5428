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
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Shared (non-private) futex ops: the words live in MAP_SHARED memory and
// the waiter and waker are different processes.
const (
	futexWaitOp = 0 // FUTEX_WAIT
	futexWakeOp = 1 // FUTEX_WAKE
)

// FutexSupported reports whether FutexWait/FutexWake are implemented.
const FutexSupported = true

// FutexWait blocks while *addr == val, for at most timeout (<= 0 means forever).
// It returns nil on wake, value mismatch, or signal interruption; callers
// re-check their condition. ErrFutexTimeout is returned when timeout elapses.
func FutexWait(addr *uint32, val uint32, timeout time.Duration) error {
	if AtomicLoadUint32(addr) != val {
		return nil
	}
	var tsp *unix.Timespec
	if timeout > 0 {
		ts := unix.NsecToTimespec(timeout.Nanoseconds())
		tsp = &ts
	}
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		futexWaitOp,
		uintptr(val),
		uintptr(unsafe.Pointer(tsp)),
		0,
		0,
	)
	switch errno {
	case 0, unix.EAGAIN, unix.EINTR:
		return nil
	case unix.ETIMEDOUT:
		return ErrFutexTimeout
	}
	return fmt.Errorf("futex wait: %w", errno)
}

// FutexWake wakes up to n waiters on addr and returns how many were woken.
func FutexWake(addr *uint32, n int) (int, error) {
	r1, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		futexWakeOp,
		uintptr(n),
		0,
		0,
		0,
	)
	if errno != 0 {
		return 0, fmt.Errorf("futex wake: %w", errno)
	}
	return int(r1), nil
}
