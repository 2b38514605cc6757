package roster

import (
	"errors"
	"fmt"
)

// Expected, user-facing conditions. Operations that return them leave the
// roster unchanged.
var (
	ErrDuplicate              = errors.New("roster: already in team")
	ErrFull                   = errors.New("roster: team is full")
	ErrEmpty                  = errors.New("roster: team is empty")
	ErrInsufficientCandidates = errors.New("roster: not enough candidates")
	ErrInvalidSize            = errors.New("roster: invalid team size")
	ErrInvalidName            = errors.New("roster: invalid name")
	ErrNotLoaded              = errors.New("roster: not loaded")
)

var (
	// ErrCorruptState is returned by Load when the stored value cannot be
	// used. The roster is reset to empty and stays usable.
	ErrCorruptState = errors.New("roster: corrupt stored team")
	// ErrPersistenceWriteFailed matches every *PersistError.
	ErrPersistenceWriteFailed = errors.New("roster: persist failed")
)

// PersistError reports a failed write-through. The in-memory change it
// accompanies has been applied and is not rolled back.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("roster: %s: persist: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

func (e *PersistError) Is(target error) bool { return target == ErrPersistenceWriteFailed }

// IsWarning reports whether err only signals that durable state lags memory.
func IsWarning(err error) bool {
	return errors.Is(err, ErrPersistenceWriteFailed) || errors.Is(err, ErrCorruptState)
}
