package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pyrowatch/pyrowatch/internal/utils"
	"github.com/pyrowatch/pyrowatch/pkg/storage"
)

// openState resolves the DB path, takes the cross-process lock, and opens
// the state database, falling back to an empty baseline if the file is
// unreadable. Callers must Unlock the returned lock and Close the DB.
func openState(dbPath string) (*storage.DB, *utils.DBLock, error) {
	absPath, err := utils.GetAbsDBPath(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create state directory: %w", err)
	}

	lock, err := utils.NewDBLock(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, nil, err
	}

	db, reset, err := storage.OpenOrReset(absPath)
	if err != nil {
		lock.Unlock()
		return nil, nil, err
	}
	if reset {
		utils.Log.Errorf("State database %s was unreadable and has been moved aside; starting from an empty baseline. Stock history before this point is lost.", absPath)
	}
	return db, lock, nil
}
