//go:build unix

package fortune

import (
	"os"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// lockFile takes an exclusive advisory lock on f and returns its release.
// Files that are not backed by the OS filesystem are not locked.
func lockFile(f afero.File) (func(), error) {
	osFile, ok := f.(*os.File)
	if !ok {
		return func() {}, nil
	}

	fd := int(osFile.Fd())
	for {
		err := unix.Flock(fd, unix.LOCK_EX)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}
	return func() { _ = unix.Flock(fd, unix.LOCK_UN) }, nil
}
