package usecase

import "fmt"

type ErrNotFound struct {
	ID      string
	Code    string
	Message string
}

func (e ErrNotFound) Error() string {
	return e.Message
}

type ErrNotForSale struct {
	TargetID string
}

func (e ErrNotForSale) Error() string {
	return fmt.Sprintf("%s is not for sale", e.TargetID)
}

type ErrAlreadyOwner struct {
	Address  string
	TargetID string
}

func (e ErrAlreadyOwner) Error() string {
	return fmt.Sprintf("buyer %s already owns %s", e.Address, e.TargetID)
}

type ErrInvalidShare struct {
	Message string
}

func (e ErrInvalidShare) Error() string {
	return e.Message
}

// ErrConflict covers duplicate records and optimistic-lock rejections.
// Callers may retry; SaveWriteSet guarantees no partial write happened.
type ErrConflict struct {
	Code    string
	Message string
}

func (e ErrConflict) Error() string {
	return e.Message
}

type ErrChain struct {
	Op  string
	Err error
}

func (e ErrChain) Error() string {
	return fmt.Sprintf("chain %s: %v", e.Op, e.Err)
}

func (e ErrChain) Unwrap() error {
	return e.Err
}
