//go:build !unix

package fortune

import "github.com/spf13/afero"

// lockFile is a no-op where flock is not available. The atomic rename of the
// sidecar still keeps readers from seeing a partial index.
func lockFile(_ afero.File) (func(), error) {
	return func() {}, nil
}
