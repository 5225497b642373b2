package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrSeedFailure is returned when the catalog seed transaction rolls back.
	ErrSeedFailure = errors.New("catalog seed failed")
	// ErrDuplicateIdentifier marks a patient identifier collision. The registry
	// absorbs it and retries; it only escapes wrapped in ErrRegistrationExhausted.
	ErrDuplicateIdentifier = errors.New("duplicate patient identifier")
	// ErrRegistrationExhausted is returned after every identifier attempt collided.
	ErrRegistrationExhausted = errors.New("patient registration exhausted")
	// ErrReferential is returned when a patient or service does not resolve.
	ErrReferential = errors.New("referential error")
	// ErrInvalidSchedule is returned when an entry's time is on the wrong side of now.
	ErrInvalidSchedule = errors.New("invalid schedule")
	// ErrStorageFailure wraps any error coming from the relational store.
	ErrStorageFailure = errors.New("storage failure")
	// ErrInvalidInput is returned for malformed operator input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned by single-row lookups.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned when an attendance change is not allowed.
	ErrInvalidTransition = errors.New("invalid attendance transition")
)

// ledgerSentinels are passed through untouched by asStorageFailure.
var ledgerSentinels = []error{
	ErrSeedFailure, ErrDuplicateIdentifier, ErrRegistrationExhausted, ErrReferential,
	ErrInvalidSchedule, ErrStorageFailure, ErrInvalidInput, ErrNotFound, ErrInvalidTransition,
}

func isLedgerError(err error) bool {
	for _, s := range ledgerSentinels {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

// asStorageFailure tags store errors with ErrStorageFailure, keeping the cause.
func asStorageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if isLedgerError(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageFailure, err)
}
