package markov

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompatibleModel is returned when chains of different orders
	// are merged, or a persisted artifact declares a nonsense order.
	ErrIncompatibleModel = errors.New("chains have incompatible orders")

	// ErrUnknownState is returned when sampling from a state the chain
	// has never observed.
	ErrUnknownState = errors.New("state has no recorded transitions")
)

// TrainingError wraps a failure to build a chain from a batch of text.
type TrainingError struct {
	Err error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed: %v", e.Err)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failure to read or write the persisted chain
// artifact. Op names the step that failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("chain storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
