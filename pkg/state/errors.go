package state

import "github.com/pkg/errors"

var (
	ErrNoRoot        = errors.New("no root block")
	ErrMultipleRoots = errors.New("multiple root blocks")
	ErrIDMismatch    = errors.New("block id does not match its key")
	ErrNilBlock      = errors.New("nil block record")
	ErrTreeBroken    = errors.New("tree is broken by a failed apply")
)
