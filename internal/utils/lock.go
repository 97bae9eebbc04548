package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockPoll is how often a waiting upload retries the journal lock.
const lockPoll = 250 * time.Millisecond

// JournalPath returns the absolute path of the upload journal. An empty path
// selects ~/.config/landedcost/uploads.sqlite.
func JournalPath(path string) (string, error) {
	if path != "" {
		return filepath.Abs(path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "landedcost", "uploads.sqlite"), nil
}

// LockJournal serialises uploads that share a journal. It holds an exclusive
// lock on <path>.lock, waiting for another upload until ctx is done, and
// returns the function that releases it.
func LockJournal(ctx context.Context, path string) (func() error, error) {
	fl := flock.New(path + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking journal %s: %w", path, err)
	}
	if !ok {
		Log.Infof("Journal %s is busy with another upload, waiting", path)
		if _, err := fl.TryLockContext(ctx, lockPoll); err != nil {
			return nil, fmt.Errorf("waiting for journal %s: %w", path, err)
		}
	}
	return fl.Unlock, nil
}
