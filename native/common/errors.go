package common

import "errors"

// Kind classifies engine failures so transports can map them onto stable
// error codes without matching individual sentinels.
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindWindow        Kind = "window"
	KindState         Kind = "state"
	KindPayment       Kind = "payment"
	KindTransfer      Kind = "transfer"
	KindPricing       Kind = "pricing"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

// Error is a sentinel engine error carrying its Kind. Sentinels are compared by
// identity, so wrapping with fmt.Errorf("%w") keeps errors.Is working.
type Error struct {
	kind Kind
	msg  string
}

func newError(kind Kind, msg string) *Error { return &Error{kind: kind, msg: msg} }

func (e *Error) Error() string { return e.msg }

// Kind returns the classification of the error.
func (e *Error) Kind() Kind { return e.kind }

var (
	ErrUnauthorized = newError(KindAuthorization, "unauthorized")
	ErrNotWinner    = newError(KindAuthorization, "caller is not an admitted winner")

	ErrInvalidWindow = newError(KindWindow, "invalid window")
	ErrWindowLocked  = newError(KindWindow, "window locked")
	ErrNotYetOpen    = newError(KindWindow, "not yet open")
	ErrExpired       = newError(KindWindow, "expired")
	ErrJoinClosed    = newError(KindWindow, "join window closed")
	ErrSaleNotEnded  = newError(KindWindow, "sale window has not ended")
	ErrWindowNotSet  = newError(KindWindow, "window not configured")

	ErrAlreadySet          = newError(KindState, "already set")
	ErrAlreadyEnded        = newError(KindState, "already ended")
	ErrAlreadyClaimed      = newError(KindState, "already claimed")
	ErrStillSold           = newError(KindState, "sale already sold")
	ErrDuplicateRequest    = newError(KindState, "approval already requested")
	ErrNotRequested        = newError(KindState, "approval not requested")
	ErrAlreadyApproved     = newError(KindState, "already approved")
	ErrNotApproved         = newError(KindState, "project not approved")
	ErrManagerNotSet       = newError(KindState, "manager not set")
	ErrSaleNotOpen         = newError(KindState, "sale not open")
	ErrProjectEnded        = newError(KindState, "project ended")
	ErrKindMismatch        = newError(KindState, "asset or sale kind mismatch")
	ErrSaleProjectMismatch = newError(KindState, "sale does not belong to project")

	ErrWrongAmount       = newError(KindPayment, "wrong amount")
	ErrInsufficientFunds = newError(KindPayment, "insufficient funds")

	ErrTransfer              = newError(KindTransfer, "transfer error")
	ErrNotOwnerOrNotApproved = newError(KindTransfer, "not owner or not approved")

	ErrInvalidPricing  = newError(KindPricing, "invalid pricing")
	ErrInvalidQuantity = newError(KindPricing, "invalid quantity")
	ErrInvalidPercent  = newError(KindPricing, "invalid percent")

	ErrProjectNotFound    = newError(KindNotFound, "project not found")
	ErrSaleNotFound       = newError(KindNotFound, "sale not found")
	ErrRecordNotFound     = newError(KindNotFound, "distribution record not found")
	ErrCollectionNotFound = newError(KindNotFound, "collection not found")
)

// KindOf returns the Kind of the first engine sentinel found in err's chain.
// Unclassified errors report KindInternal; a nil error reports "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrModulePaused) {
		return KindState
	}
	var target *Error
	if errors.As(err, &target) {
		return target.kind
	}
	return KindInternal
}
