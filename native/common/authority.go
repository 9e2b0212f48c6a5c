package common

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnauthorized rejects a mutator invoked by anyone other than the owner.
var ErrUnauthorized = errors.New("caller is not the owner")

// Authority is the authorization context threaded through every mutating
// engine call. It replaces scattered modifier-style owner checks with a single
// guard evaluated at the top of each mutator.
type Authority struct {
	Owner common.Address
}

// Check returns ErrUnauthorized unless the caller is the configured owner.
func (a Authority) Check(caller common.Address) error {
	if caller != a.Owner || a.Owner == (common.Address{}) {
		return ErrUnauthorized
	}
	return nil
}

// TransferOwnership rotates the owner. The zero address is rejected so an
// authority can never be bricked by accident.
func (a *Authority) TransferOwnership(caller, next common.Address) error {
	if err := a.Check(caller); err != nil {
		return err
	}
	if next == (common.Address{}) {
		return ComptrollerZeroAddress
	}
	a.Owner = next
	return nil
}
