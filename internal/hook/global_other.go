//go:build !linux || !cgo

package hook

// NewGlobal reports ErrUnsupported; the app falls back to tray controls only
func NewGlobal() (Source, error) {
	return nil, ErrUnsupported
}
