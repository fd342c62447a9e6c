//go:build !linux

package logger

// isTerminal reports false on non-Linux platforms. davprov only
// provisions Linux hosts; color detection elsewhere is not worth a cgo or
// syscall dependency.
func isTerminal(fd uintptr) bool {
	return false
}
