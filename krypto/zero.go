package krypto

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// WithLockedKey pins key in RAM for the duration of fn where the platform
// allows it, then zeroes and unpins it. Locking is best effort: RLIMIT_MEMLOCK
// may refuse it, in which case fn still runs.
func WithLockedKey(key []byte, fn func([]byte) error) error {
	locked := lockMemory(key) == nil
	defer func() {
		Zero(key)
		if locked {
			_ = unlockMemory(key)
		}
	}()
	return fn(key)
}
