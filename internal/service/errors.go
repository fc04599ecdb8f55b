package service

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable wraps any backing store failure that is not a
	// simple not-found.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrArchiveFailed means the settlement archive write failed. No
	// state changed: the active rows were never touched.
	ErrArchiveFailed = errors.New("settlement archive failed")

	// ErrDeleteAfterArchiveFailed means the archive is durable but the
	// active rows could not be removed. This is the preferred partial
	// failure: nothing is lost, a later retry can drain the stale rows.
	ErrDeleteAfterArchiveFailed = errors.New("active rows not deleted after archive")

	// ErrInvalidViewMode is returned when a caller supplies a mode
	// outside the two known values.
	ErrInvalidViewMode = errors.New("invalid view mode")
)

// DeleteAfterArchiveError carries the archive id so callers can verify
// the settled record survived the partial failure.
type DeleteAfterArchiveError struct {
	PersonID  string
	ArchiveID string
	Err       error
}

func (e *DeleteAfterArchiveError) Error() string {
	return fmt.Sprintf("settlement of person %s: archive %s written but delete failed: %v",
		e.PersonID, e.ArchiveID, e.Err)
}

func (e *DeleteAfterArchiveError) Unwrap() error {
	return ErrDeleteAfterArchiveFailed
}

// storeErr translates a storage failure into the caller-facing
// taxonomy, passing not-found through untouched.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
