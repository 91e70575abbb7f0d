package httpserver

import (
	"net/http"

	"storefront-checkout/internal/domain"
	cartsvc "storefront-checkout/internal/service/cart"

	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type validateResponse struct {
	Result domain.InventoryCheckResult `json:"result"`
	Cart   cartsvc.View                `json:"cart"`
}

func (h *handlers) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, sessionFrom(c).Cart().View())
}

func (h *handlers) refreshCart(c *gin.Context) {
	store := sessionFrom(c).Cart()
	_, err := store.Refresh(c.Request.Context())
	h.respondCart(c, store, err)
}

func (h *handlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), NextAction: domain.ActionFixFields})
		return
	}
	store := sessionFrom(c).Cart()
	product, err := h.product(c, store, req.ProductID)
	if err != nil {
		h.writeError(c, err, nil, nil)
		return
	}
	if req.Quantity == nil {
		_, err = store.AddItem(c.Request.Context(), product)
	} else {
		_, err = store.AddItem(c.Request.Context(), product, *req.Quantity)
	}
	h.respondCart(c, store, err)
}

func (h *handlers) setItemQuantity(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), NextAction: domain.ActionFixFields})
		return
	}
	store := sessionFrom(c).Cart()
	productID := c.Param("productId")
	if *req.Quantity <= 0 {
		_, err := store.RemoveItem(c.Request.Context(), productID)
		h.respondCart(c, store, err)
		return
	}
	product, err := h.product(c, store, productID)
	if err != nil {
		h.writeError(c, err, nil, nil)
		return
	}
	_, err = store.SetItemQuantity(c.Request.Context(), product, *req.Quantity)
	h.respondCart(c, store, err)
}

func (h *handlers) removeItem(c *gin.Context) {
	store := sessionFrom(c).Cart()
	_, err := store.RemoveItem(c.Request.Context(), c.Param("productId"))
	h.respondCart(c, store, err)
}

func (h *handlers) clearCart(c *gin.Context) {
	store := sessionFrom(c).Cart()
	_, err := store.Clear(c.Request.Context())
	h.respondCart(c, store, err)
}

func (h *handlers) selectItem(c *gin.Context) {
	store := sessionFrom(c).Cart()
	h.respondCart(c, store, store.Select(c.Param("productId")))
}

func (h *handlers) unselectItem(c *gin.Context) {
	store := sessionFrom(c).Cart()
	store.Unselect(c.Param("productId"))
	h.respondCart(c, store, nil)
}

func (h *handlers) selectAll(c *gin.Context) {
	store := sessionFrom(c).Cart()
	store.SelectAll()
	h.respondCart(c, store, nil)
}

func (h *handlers) unselectAll(c *gin.Context) {
	store := sessionFrom(c).Cart()
	store.UnselectAll()
	h.respondCart(c, store, nil)
}

// validateCart runs the inventory check over the selection, or the whole cart when nothing is
// selected, and clamps the cart to what the check reports.
func (h *handlers) validateCart(c *gin.Context) {
	store := sessionFrom(c).Cart()
	current := store.Cart()
	entries := current.SelectedEntries()
	if len(entries) == 0 {
		entries = current.Entries
	}
	res, _, err := h.deps.Inventory.CheckAndReconcile(c.Request.Context(), store, domain.CheckItemsFromEntries(entries))
	if err != nil {
		view := store.View()
		status, body := h.errorBody(c, err, &view, nil)
		if len(body.Shortfalls) == 0 {
			body.Shortfalls = shortfallBodies(res.Shortfalls)
		}
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, validateResponse{Result: res, Cart: store.View()})
}

// product prefers the snapshot already in the cart and falls back to the catalog.
func (h *handlers) product(c *gin.Context, store *cartsvc.Store, productID string) (domain.Product, error) {
	if e, ok := store.Cart().Entry(productID); ok {
		return e.Product, nil
	}
	return h.deps.Products.Get(c.Request.Context(), productID)
}

func (h *handlers) respondCart(c *gin.Context, store *cartsvc.Store, err error) {
	view := store.View()
	if err != nil {
		h.writeError(c, err, &view, nil)
		return
	}
	c.JSON(http.StatusOK, view)
}
