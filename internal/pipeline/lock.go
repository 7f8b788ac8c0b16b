package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"video2srt/internal/services"
)

// workLock guards a scratch directory against concurrent runs.
type workLock struct {
	path string
	lock *flock.Flock
}

func acquireWorkLock(path string) (*workLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "lock", "work dir", filepath.Dir(path), err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrBusy, "lock", "acquire", path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrBusy, "lock", "acquire",
			fmt.Sprintf("another video2srt run is using %s", filepath.Dir(path)), nil)
	}
	return &workLock{path: path, lock: lock}, nil
}

func (l *workLock) release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
