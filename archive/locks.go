// Copyright (C) 2026 The LSL Archive Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package archive

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	initLockName = ".zarr_init.lock"
	metaLockName = ".zarr_metadata.lock"

	initLockRetries = 2
	initLockMinWait = 10 * time.Millisecond
	initLockMaxWait = 30 * time.Millisecond
)

// withInitLock runs fn while holding an exclusive lock on
// <root>/.zarr_init.lock, retrying acquisition with jittered sleep on
// collision. It is used only during root-group creation.
func withInitLock(root string, fn func() error) error {
	lk := flock.New(filepath.Join(root, initLockName))
	defer lk.Close()

	var locked bool
	var err error
	for attempt := 0; attempt <= initLockRetries; attempt++ {
		locked, err = lk.TryLock()
		if err == nil && locked {
			break
		}
		if attempt == initLockRetries {
			if err == nil {
				err = fmt.Errorf("archive: could not acquire init lock after %d attempts", initLockRetries+1)
			}
			return fmt.Errorf("%w: %v", ErrInitFailed, err)
		}
		time.Sleep(initLockMinWait + time.Duration(rand.Intn(int(initLockMaxWait-initLockMinWait))))
	}
	defer lk.Unlock()
	return fn()
}

// withMetadataLock runs fn while holding an exclusive lock on
// <root>/.zarr_metadata.lock. The lock is contended but held only for
// the duration of a paired store_metadata(data)+store_metadata(time)
// call, so this polls for the lock every 5ms until it is acquired,
// with no timeout, rather than failing fast.
func withMetadataLock(root string, fn func() error) error {
	lk := flock.New(filepath.Join(root, metaLockName))
	defer lk.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	locked, err := lk.TryLockContext(ctx, 5*time.Millisecond)
	if err != nil || !locked {
		return fmt.Errorf("archive: acquire metadata lock: %w", err)
	}
	defer lk.Unlock()
	return fn()
}
