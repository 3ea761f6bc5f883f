//go:build !darwin

package permissions

// EnsurePermissions is a no-op on non-macOS platforms; X11 key state can be
// polled without a grant.
func EnsurePermissions() error {
	return nil
}
