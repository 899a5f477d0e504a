package errs

// ErrorKind identifies a kind of internal error.
// fully support for errors.Is and errors.As.
type ErrorKind string

const (
	// NotFound is returned when a requested item is not found.
	NotFound           = ErrorKind("Not Found")
	InvalidArgument    = ErrorKind("Invalid Argument")
	Unsupported        = ErrorKind("Unsupported")
	Conflict           = ErrorKind("Conflict")
	SomethingWentWrong = ErrorKind("Something Went Wrong")
	OverflowUint128    = ErrorKind("overflow uint128")
)

// Ledger failure kinds. Every rejected precondition of a ledger call surfaces
// exactly one of these.
const (
	SupplyExhausted     = ErrorKind("supply exhausted")
	IncorrectPayment    = ErrorKind("incorrect payment")
	InsufficientPayment = ErrorKind("insufficient payment")
	NotOwnerOrApproved  = ErrorKind("caller is neither owner nor approved")
	UnauthorizedBuyer   = ErrorKind("caller is not the designated buyer")
	ItemNotForSale      = ErrorKind("item not for sale")
	NoActiveOffer       = ErrorKind("no active offer for this item")
	NoSuchItem          = ErrorKind("no such item")
	NotAdministrator    = ErrorKind("caller is not the administrator")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}
