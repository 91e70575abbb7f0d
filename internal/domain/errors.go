package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidQuantity is returned when a backend is asked to store a quantity below 1.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrUnavailable marks a failed or timed out call to a storage backend or collaborator.
	ErrUnavailable = errors.New("service unavailable")
	// ErrInvalidResponse marks a collaborator reply that cannot be trusted, e.g. an order without id.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrEmptySelection is returned when checkout is started with nothing selected.
	ErrEmptySelection = errors.New("no cart items selected")
	// ErrIllegalTransition is returned for a checkout step that is not allowed from the current state.
	ErrIllegalTransition = errors.New("illegal checkout transition")
	// ErrSummaryChanged is returned when the confirmed total no longer matches the recomputed one.
	ErrSummaryChanged = errors.New("order summary changed")
	// ErrDuplicateSubmission is returned when an order for the checkout is already in flight or placed.
	ErrDuplicateSubmission = errors.New("order already submitted")
	// ErrShippingEstimated is returned when placement is attempted without a confirmed shipping quote.
	ErrShippingEstimated = errors.New("shipping fee not confirmed")
	// ErrStaleSession is returned when a result arrives for a store that has been detached.
	ErrStaleSession = errors.New("session no longer active")
)

// NextAction tells the caller what the user can do about an error.
type NextAction string

const (
	ActionAdjustQuantity NextAction = "adjust_quantity"
	ActionRetry          NextAction = "retry"
	ActionReturnToCart   NextAction = "return_to_cart"
	ActionFixFields      NextAction = "fix_fields"
	ActionReviewSummary  NextAction = "review_summary"
	ActionNone           NextAction = "none"
)

// NextActionFor maps an error to the recovery path offered to the user.
func NextActionFor(err error) NextAction {
	var stockErr *StockError
	var validationErr ValidationError
	switch {
	case err == nil:
		return ActionNone
	case errors.As(err, &stockErr):
		return ActionAdjustQuantity
	case errors.As(err, &validationErr):
		return ActionFixFields
	case errors.Is(err, ErrSummaryChanged):
		return ActionReviewSummary
	case errors.Is(err, ErrEmptySelection), errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrDuplicateSubmission):
		return ActionReturnToCart
	default:
		return ActionRetry
	}
}

// StockError is reported by a backend when the requested quantity exceeds stock.
type StockError struct {
	Product   Product
	Requested int
	Available int
}

func (e *StockError) Error() string {
	title := e.Product.Title
	if title == "" {
		title = e.Product.ID
	}
	if e.Available <= 0 {
		return fmt.Sprintf("%q is out of stock", title)
	}
	return fmt.Sprintf("only %d of %q left in stock (requested %d)", e.Available, title, e.Requested)
}

// ValidationError holds field-level messages keyed by field name.
type ValidationError map[string]string

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "invalid delivery info: " + strings.Join(parts, "; ")
}
