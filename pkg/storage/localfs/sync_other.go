//go:build !unix

package localfs

// directories cannot be opened for sync on these platforms
func isUnsupportedSync(err error) bool {
	return true
}
