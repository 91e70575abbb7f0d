package httpserver

import (
	"net/http"

	"storefront-checkout/internal/domain"
	cartsvc "storefront-checkout/internal/service/cart"

	"github.com/gin-gonic/gin"
)

type openSessionRequest struct {
	DeviceID string `json:"deviceId"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Token     string           `json:"token"`
	DeviceID  string           `json:"deviceId"`
	ExpiresIn int              `json:"expiresIn"`
	Customer  *domain.Customer `json:"customer,omitempty"`
	Cart      cartsvc.View     `json:"cart"`
}

func (h *handlers) openSession(c *gin.Context) {
	var req openSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), NextAction: domain.ActionFixFields})
			return
		}
	}
	sess, err := h.deps.Sessions.Open(c.Request.Context(), req.DeviceID)
	if err != nil {
		h.writeError(c, err, nil, nil)
		return
	}
	c.Header(sessionHeader, sess.Token())
	c.JSON(http.StatusCreated, sessionResponse{
		Token:     sess.Token(),
		DeviceID:  sess.DeviceID(),
		ExpiresIn: h.deps.Sessions.TTLSeconds(),
		Cart:      sess.Cart().View(),
	})
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), NextAction: domain.ActionFixFields})
		return
	}
	sess := sessionFrom(c)
	_, cust, err := h.deps.Sessions.Login(c.Request.Context(), sess.Token(), req.Email, req.Password)
	if err != nil {
		view := sess.Cart().View()
		h.writeError(c, err, &view, nil)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{
		Token:     sess.Token(),
		DeviceID:  sess.DeviceID(),
		ExpiresIn: h.deps.Sessions.TTLSeconds(),
		Customer:  cust,
		Cart:      sess.Cart().View(),
	})
}

func (h *handlers) logout(c *gin.Context) {
	sess := sessionFrom(c)
	if _, err := h.deps.Sessions.Logout(c.Request.Context(), sess.Token()); err != nil {
		view := sess.Cart().View()
		h.writeError(c, err, &view, nil)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{
		Token:     sess.Token(),
		DeviceID:  sess.DeviceID(),
		ExpiresIn: h.deps.Sessions.TTLSeconds(),
		Cart:      sess.Cart().View(),
	})
}
