//go:build !(linux || darwin || freebsd || openbsd || netbsd)

package krypto

func lockMemory([]byte) error   { return nil }
func unlockMemory([]byte) error { return nil }
