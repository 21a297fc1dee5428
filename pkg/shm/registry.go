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
	"errors"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// owned tracks every channel this process created and has not destroyed,
// keyed by region path.
var owned = cmap.New[*Channel]()

// ReleaseOwned destroys every channel created by this process. It is the
// interrupt handler's fallback for a session that did not unwind; regular
// shutdown calls Destroy directly.
func ReleaseOwned() error {
	var errs []error
	for item := range owned.IterBuffered() {
		if err := item.Val.Destroy(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OwnedCount returns the number of live channels created by this process.
func OwnedCount() int {
	return owned.Count()
}
