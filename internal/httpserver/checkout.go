package httpserver

import (
	"net/http"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/service/checkout"

	"github.com/gin-gonic/gin"
)

type rushRequest struct {
	Rush     bool   `json:"rush"`
	TimeSlot string `json:"timeSlot"`
}

type paymentRequest struct {
	Method string `json:"method"`
}

type confirmRequest struct {
	Total *int64 `json:"total" binding:"required"`
}

type confirmResponse struct {
	Order   domain.Order       `json:"order"`
	Summary domain.CostSummary `json:"summary"`
}

func (h *handlers) beginCheckout(c *gin.Context) {
	sess := sessionFrom(c)
	snap, err := sess.Checkout().Begin(c.Request.Context())
	if err != nil {
		view := sess.Cart().View()
		h.writeError(c, err, &view, nil)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *handlers) getCheckout(c *gin.Context) {
	c.JSON(http.StatusOK, sessionFrom(c).Checkout().Snapshot())
}

func (h *handlers) submitDelivery(c *gin.Context) {
	var info domain.DeliveryInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), NextAction: domain.ActionFixFields})
		return
	}
	sess := sessionFrom(c)
	snap, err := sess.Checkout().SubmitDelivery(c.Request.Context(), info)
	h.respondCheckout(c, snap, err)
}

func (h *handlers) setRush(c *gin.Context) {
	var req rushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), NextAction: domain.ActionFixFields})
		return
	}
	snap, err := sessionFrom(c).Checkout().SetRush(c.Request.Context(), req.Rush, req.TimeSlot)
	h.respondCheckout(c, snap, err)
}

func (h *handlers) selectPayment(c *gin.Context) {
	var req paymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), NextAction: domain.ActionFixFields})
			return
		}
	}
	snap, err := sessionFrom(c).Checkout().SelectPayment(req.Method)
	h.respondCheckout(c, snap, err)
}

func (h *handlers) back(c *gin.Context) {
	snap, err := sessionFrom(c).Checkout().Back()
	h.respondCheckout(c, snap, err)
}

func (h *handlers) summary(c *gin.Context) {
	summary, err := sessionFrom(c).Checkout().Summary(c.Request.Context())
	if err != nil {
		h.writeError(c, err, nil, nil)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handlers) confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), NextAction: domain.ActionReviewSummary})
		return
	}
	sess := sessionFrom(c)
	order, summary, err := sess.Checkout().Confirm(c.Request.Context(), *req.Total)
	if err != nil {
		view := sess.Cart().View()
		var shown *domain.CostSummary
		if summary.Total > 0 {
			shown = &summary
		}
		status, body := h.errorBody(c, err, &view, shown)
		body.OrderID = order.ID
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusCreated, confirmResponse{Order: order, Summary: summary})
}

func (h *handlers) respondCheckout(c *gin.Context, snap checkout.Snapshot, err error) {
	if err != nil {
		sess := sessionFrom(c)
		view := sess.Cart().View()
		h.writeError(c, err, &view, nil)
		return
	}
	c.JSON(http.StatusOK, snap)
}
