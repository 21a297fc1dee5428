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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapRegion_CreateAttach(t *testing.T) {
	ctx := context.Background()
	opts := MapOptions{Name: "region.test", Dir: t.TempDir(), Size: 64, Create: true}

	owner, err := MapRegion(ctx, opts)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, UnmapRegion(owner))
		assert.NoError(t, RemoveRegion(owner.Path))
	}()
	assert.Equal(t, 64, len(owner.Addr))

	opts.Create = false
	peer, err := MapRegion(ctx, opts)
	require.NoError(t, err)
	defer func() { assert.NoError(t, UnmapRegion(peer)) }()

	owner.Addr[10] = 'x'
	assert.Equal(t, byte('x'), peer.Addr[10])
}

func TestMapRegion_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := MapRegion(ctx, MapOptions{Name: "missing", Dir: dir, Size: 64})
	assert.ErrorIs(t, err, ErrNotExist)

	_, err = MapRegion(ctx, MapOptions{Name: "zero", Dir: dir, Size: 0, Create: true})
	assert.Error(t, err)

	opts := MapOptions{Name: "dup", Dir: dir, Size: 64, Create: true}
	r, err := MapRegion(ctx, opts)
	require.NoError(t, err)
	defer func() {
		_ = UnmapRegion(r)
		_ = RemoveRegion(r.Path)
	}()

	_, err = MapRegion(ctx, opts)
	assert.ErrorIs(t, err, ErrExists)

	_, err = MapRegion(ctx, MapOptions{Name: "dup", Dir: dir, Size: 128})
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestUnmapRegionTwice(t *testing.T) {
	r, err := MapRegion(context.Background(), MapOptions{Name: "twice", Dir: t.TempDir(), Size: 32, Create: true})
	require.NoError(t, err)
	require.NoError(t, UnmapRegion(r))
	assert.NoError(t, UnmapRegion(r))
	assert.NoError(t, RemoveRegion(r.Path))
	assert.NoError(t, RemoveRegion(r.Path))
}

func TestFutex_WakeAcrossMappings(t *testing.T) {
	ctx := context.Background()
	opts := MapOptions{Name: "futex.test", Dir: t.TempDir(), Size: 16, Create: true}
	a, err := MapRegion(ctx, opts)
	require.NoError(t, err)
	defer func() {
		_ = UnmapRegion(a)
		_ = RemoveRegion(a.Path)
	}()
	opts.Create = false
	b, err := MapRegion(ctx, opts)
	require.NoError(t, err)
	defer func() { _ = UnmapRegion(b) }()

	waitWord := Word(a.Addr, 4)
	wakeWord := Word(b.Addr, 4)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for AtomicLoadUint32(waitWord) == 0 {
			assert.NoError(t, FutexWait(waitWord, 0, 0))
		}
	}()

	time.Sleep(20 * time.Millisecond)
	AtomicAddUint32(wakeWord, 1)
	_, err = FutexWake(wakeWord, 1)
	require.NoError(t, err)
	wg.Wait()
	assert.Equal(t, uint32(1), AtomicLoadUint32(waitWord))
}

func TestFutex_Timeout(t *testing.T) {
	word := new(uint32)
	start := time.Now()
	err := FutexWait(word, 0, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrFutexTimeout)
	assert.True(t, time.Since(start) >= 10*time.Millisecond)

	// value mismatch returns immediately
	assert.NoError(t, FutexWait(word, 7, time.Second))
}
