// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import "time"

// Clock abstracts the monotonic seconds source used to stamp HTLC
// records and evaluate their expiry. Tests inject a mock implementation
// instead of depending on wall-clock time.
type Clock interface {
	Now() uint64
}

// SystemClock reads the host's wall clock as uint64(time.Now().Unix()).
type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}
