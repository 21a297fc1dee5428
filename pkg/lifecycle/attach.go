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

package lifecycle

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/srediag/shmsg/internal/logging"
	"github.com/srediag/shmsg/pkg/shm"
)

const (
	attachInitialInterval = 20 * time.Millisecond
	attachMaxInterval     = time.Second
)

// AttachWithRetry attaches to the channel described by opts. While the
// region is missing or still being initialised it retries up to retries
// times with exponential backoff. Any other failure, or running out of
// retries, returns the last error, which wraps shm.ErrAttach.
func AttachWithRetry(ctx context.Context, opts shm.Options, retries uint64, log *logging.Logger) (*shm.Channel, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = attachInitialInterval
	b.MaxInterval = attachMaxInterval
	b.MaxElapsedTime = 0

	var ch *shm.Channel
	op := func() error {
		c, err := shm.Attach(ctx, opts)
		if err != nil {
			if !shm.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		ch = c
		return nil
	}
	notify := func(err error, next time.Duration) {
		log.Debugf("attach %s: %v, retrying in %s", opts.Name, err, next)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return ch, nil
}
