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
	"math"
	"testing"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
)

func TestCanCreateOnDevShm(t *testing.T) {
	// only /dev/shm is checked, everything else is allowed
	assert.True(t, canCreateOnDevShm(math.MaxUint64, "/tmp/sdffafds"))

	stat, err := disk.Usage(DefaultDir)
	if err != nil {
		t.Skipf("%s not available: %v", DefaultDir, err)
	}
	assert.True(t, canCreateOnDevShm(stat.Free/2, "/dev/shm/xxx"))
	assert.False(t, canCreateOnDevShm(math.MaxUint64, "/dev/shm/yyy"))
}

func TestRegionPath(t *testing.T) {
	assert.Equal(t, "/dev/shm/chan", RegionPath(MapOptions{Name: "chan"}))
	assert.Equal(t, "/tmp/x/chan", RegionPath(MapOptions{Name: "chan", Dir: "/tmp/x"}))
}

func TestWordAtomics(t *testing.T) {
	mem := make([]byte, 16)
	w := Word(mem, 8)
	AtomicStoreUint32(w, 41)
	assert.Equal(t, uint32(42), AtomicAddUint32(w, 1))
	assert.Equal(t, uint32(42), AtomicLoadUint32(w))
}
