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
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
)

// canCreateOnDevShm reports whether size bytes fit on the filesystem
// holding path. Only paths under /dev/shm are checked; a failed probe
// lets creation go ahead and fail on its own.
func canCreateOnDevShm(size uint64, path string) bool {
	dir := filepath.Dir(path)
	if dir != DefaultDir {
		return true
	}
	stat, err := disk.Usage(dir)
	if err != nil {
		return true
	}
	return stat.Free >= size
}
