package httpserver

import (
	"errors"
	"net/http"

	"storefront-checkout/internal/domain"
	cartsvc "storefront-checkout/internal/service/cart"
	"storefront-checkout/internal/service/customer"
	"storefront-checkout/internal/service/session"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error      string              `json:"error"`
	NextAction domain.NextAction   `json:"nextAction"`
	Fields     map[string]string   `json:"fields,omitempty"`
	Shortfalls []shortfallBody     `json:"shortfalls,omitempty"`
	Cart       *cartsvc.View       `json:"cart,omitempty"`
	Summary    *domain.CostSummary `json:"summary,omitempty"`
	OrderID    string              `json:"orderId,omitempty"`
}

type shortfallBody struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Message   string `json:"message"`
}

func statusFor(err error) int {
	var stockErr *domain.StockError
	var validationErr domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &stockErr):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnavailable), errors.Is(err, domain.ErrInvalidResponse), errors.Is(err, domain.ErrShippingEstimated):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrIllegalTransition), errors.Is(err, domain.ErrDuplicateSubmission), errors.Is(err, domain.ErrSummaryChanged):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptySelection), errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, customer.ErrInvalidCredentials), errors.Is(err, session.ErrInvalidToken), errors.Is(err, domain.ErrStaleSession):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with its recovery path. view and summary, when set, carry the
// reconciled state so the client never has to guess it.
func (h *handlers) writeError(c *gin.Context, err error, view *cartsvc.View, summary *domain.CostSummary) {
	status, body := h.errorBody(c, err, view, summary)
	c.JSON(status, body)
}

func (h *handlers) errorBody(c *gin.Context, err error, view *cartsvc.View, summary *domain.CostSummary) (int, errorResponse) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Printf("http: %s %s error=%v", c.Request.Method, c.FullPath(), err)
	}
	body := errorResponse{
		Error:      err.Error(),
		NextAction: domain.NextActionFor(err),
		Cart:       view,
		Summary:    summary,
	}
	var validationErr domain.ValidationError
	if errors.As(err, &validationErr) {
		body.Fields = validationErr
	}
	body.Shortfalls = shortfallsOf(err)
	return status, body
}

func shortfallBodies(shortfalls []domain.Shortfall) []shortfallBody {
	out := make([]shortfallBody, 0, len(shortfalls))
	for _, sf := range shortfalls {
		stockErr := &domain.StockError{Product: sf.Product, Requested: sf.RequestedQuantity, Available: sf.AvailableStock}
		out = append(out, shortfallBody{
			ProductID: sf.Product.ID,
			Title:     sf.Product.Title,
			Requested: sf.RequestedQuantity,
			Available: sf.AvailableStock,
			Message:   stockErr.Error(),
		})
	}
	return out
}

func shortfallsOf(err error) []shortfallBody {
	var out []shortfallBody
	var walk func(error)
	walk = func(e error) {
		if stockErr, ok := e.(*domain.StockError); ok {
			out = append(out, shortfallBody{
				ProductID: stockErr.Product.ID,
				Title:     stockErr.Product.Title,
				Requested: stockErr.Requested,
				Available: stockErr.Available,
				Message:   stockErr.Error(),
			})
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			if inner := u.Unwrap(); inner != nil {
				walk(inner)
			}
		}
	}
	walk(err)
	return out
}
