//go:build !unix && !windows

package cache

// Lock is a no-op on platforms without file locking.
func Lock(string) (func() error, error) {
	return func() error { return nil }, nil
}
