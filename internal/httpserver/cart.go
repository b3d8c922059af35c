package httpserver

import (
	"net/http"

	cartsvc "esim-storefront/internal/service/cart"
	"github.com/gin-gonic/gin"
)

type addToCartRequest struct {
	PackageCode string `json:"packageCode" binding:"required"`
	Quantity    int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (a *api) getCart(c *gin.Context) {
	view, err := a.deps.CartSvc.GetCart(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *api) addToCart(c *gin.Context) {
	var req addToCartRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := a.deps.CartSvc.AddToCart(c.Request.Context(), sessionID(c), req.PackageCode, req.Quantity)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	status := http.StatusOK
	if res == cartsvc.AddCreated {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"result": res})
}

func (a *api) updateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := a.deps.CartSvc.UpdateCartItem(c.Request.Context(), sessionID(c), c.Param("code"), *req.Quantity); err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) removeFromCart(c *gin.Context) {
	if err := a.deps.CartSvc.RemoveFromCart(c.Request.Context(), sessionID(c), c.Param("code")); err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) clearCart(c *gin.Context) {
	if err := a.deps.CartSvc.ClearCart(c.Request.Context(), sessionID(c)); err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// linkCart attaches the signed-in user to the session cart, creating or
// linking the user record first.
func (a *api) linkCart(c *gin.Context) {
	ctx := c.Request.Context()
	id := identityFrom(c)
	user, err := a.deps.UserSvc.SyncIdentity(ctx, id.ClerkID, id.Email, id.Name)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	if err := a.deps.CartSvc.LinkCartToUser(ctx, sessionID(c), user.ID); err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": user.ID})
}
