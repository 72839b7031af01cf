package fem

import "errors"

var (
	// ErrUnknownSlot indicates a coefficient was supplied for a slot the form does not declare.
	ErrUnknownSlot = errors.New("fem: unknown coefficient slot")
	// ErrUnboundSlot indicates a declared slot was left without a coefficient.
	ErrUnboundSlot = errors.New("fem: coefficient slot not bound")
	// ErrSlotConflict indicates a slot was supplied both at construction and per call.
	ErrSlotConflict = errors.New("fem: coefficient slot bound twice")
	// ErrSlotKind indicates a coefficient whose kind or space does not match its slot.
	ErrSlotKind = errors.New("fem: coefficient does not match slot")
	// ErrShape indicates mismatched value shapes or dimensions.
	ErrShape = errors.New("fem: shape mismatch")
	// ErrSingular indicates a singular global system.
	ErrSingular = errors.New("fem: singular system")
	// ErrOutsideMesh indicates point evaluation outside of the mesh.
	ErrOutsideMesh = errors.New("fem: point is outside of the mesh")
	// ErrExtrapolation indicates a patch that cannot support the requested degree.
	ErrExtrapolation = errors.New("fem: extrapolation failed")
)
