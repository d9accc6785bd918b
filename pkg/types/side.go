package types

// Side identifies which outcome token of a binary market a leg buys.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// OrderStatus is the terminal state of a submitted order attempt.
type OrderStatus string

const (
	OrderSubmitted OrderStatus = "submitted"
	OrderFilled    OrderStatus = "filled"
	OrderError     OrderStatus = "error"
	OrderException OrderStatus = "exception"
)
