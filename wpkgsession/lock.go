package wpkgsession

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	flock "github.com/theckman/go-flock"
)

// ErrLockHeld is returned by AcquireLock when another process already
// holds the database lock (§5 Lock discipline).
var ErrLockHeld = fmt.Errorf("wpkg: database is locked by another process")

// DatabaseLock wraps the advisory <admindir>/core/wpkg.lck file.
type DatabaseLock struct {
	fl   *flock.Flock
	path string
}

// AcquireLock takes the first mutating operation's exclusive lock on the
// admindir. The lock is scoped to the operation: callers must Release on
// every exit path, including error (Design notes "Scoped resources").
func AcquireLock(path string) (*DatabaseLock, error) {
	fl := flock.NewFlock(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "wpkg: acquiring lock %s", path)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &DatabaseLock{fl: fl, path: path}, nil
}

// Release unlocks the database. It is safe to call multiple times.
func (l *DatabaseLock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}

// RemoveLock forcibly deletes a stale lock file left by a crashed holder,
// implementing the "remove-lock" recovery command of §5.
func RemoveLock(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
