package httpserver

import (
	"net/http"
	"time"

	"esim-storefront/internal/domain"
	ordersvc "esim-storefront/internal/service/order"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type checkoutRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
}

// checkout places a paid order straight from the session cart. Signed-in
// callers may omit the email.
func (a *api) checkout(c *gin.Context) {
	var req checkoutRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	var clerkID string
	email := req.Email
	if id := identityFrom(c); id != nil {
		clerkID = id.ClerkID
		if email == "" {
			email = id.Email
		}
	}
	res, err := a.deps.OrderSvc.CreateOrderFromCart(c.Request.Context(), sessionID(c), email, clerkID)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (a *api) myOrders(c *gin.Context) {
	orders, err := a.deps.OrderSvc.ListOrdersByClerkID(c.Request.Context(), identityFrom(c).ClerkID)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orEmpty(orders)})
}

func (a *api) myEsims(c *gin.Context) {
	esims, err := a.deps.OrderSvc.ListEsimsByClerkID(c.Request.Context(), identityFrom(c).ClerkID)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"esims": orEmpty(esims)})
}

func (a *api) syncMe(c *gin.Context) {
	id := identityFrom(c)
	user, err := a.deps.UserSvc.SyncIdentity(c.Request.Context(), id.ClerkID, id.Email, id.Name)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ownedByCaller reports whether a signed-in caller may see a record of
// userID, answering 404 when not. Anonymous callers hold the ids handed out
// at checkout and are let through.
func (a *api) ownedByCaller(c *gin.Context, userID string) bool {
	id := identityFrom(c)
	if id == nil {
		return true
	}
	u, err := a.deps.UserSvc.GetByClerkID(c.Request.Context(), id.ClerkID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		writeError(c, a.logger, err)
		return false
	}
	if u == nil || u.ID != userID {
		writeError(c, a.logger, domain.ErrNotFound)
		return false
	}
	return true
}

func (a *api) getOrder(c *gin.Context) {
	o, err := a.deps.OrderSvc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	if !a.ownedByCaller(c, o.UserID) {
		return
	}
	c.JSON(http.StatusOK, o)
}

func (a *api) getOrderByTransaction(c *gin.Context) {
	o, err := a.deps.OrderSvc.GetOrderByTransactionID(c.Request.Context(), c.Param("txid"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	if !a.ownedByCaller(c, o.UserID) {
		return
	}
	c.JSON(http.StatusOK, o)
}

func (a *api) listOrderEsims(c *gin.Context) {
	o, err := a.deps.OrderSvc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	if !a.ownedByCaller(c, o.UserID) {
		return
	}
	esims, err := a.deps.OrderSvc.ListEsimsByOrder(c.Request.Context(), o.ID)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"esims": orEmpty(esims)})
}

func (a *api) getEsim(c *gin.Context) {
	e, err := a.deps.OrderSvc.GetEsim(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	if !a.ownedByCaller(c, e.UserID) {
		return
	}
	c.JSON(http.StatusOK, e)
}

func (a *api) esimQR(c *gin.Context) {
	e, err := a.deps.OrderSvc.GetEsim(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	if !a.ownedByCaller(c, e.UserID) {
		return
	}
	png, err := a.deps.QR.PNG(e.ActivationCode)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/png", png)
}

func (a *api) createOrder(c *gin.Context) {
	var in ordersvc.CreateInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := a.deps.OrderSvc.CreateOrder(c.Request.Context(), in)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

type statusPatchRequest struct {
	Status                domain.OrderStatus `json:"status" binding:"required"`
	OrderNo               *string            `json:"orderNo"`
	StripePaymentIntentID *string            `json:"stripePaymentIntentId"`
}

func (r statusPatchRequest) patch() domain.OrderStatusPatch {
	return domain.OrderStatusPatch{Status: r.Status, OrderNo: r.OrderNo, StripePaymentIntentID: r.StripePaymentIntentID}
}

func (a *api) updateOrderStatus(c *gin.Context) {
	var req statusPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	o, err := a.deps.OrderSvc.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.patch())
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (a *api) getOrderByPaymentSession(c *gin.Context) {
	o, err := a.deps.OrderSvc.GetOrderByStripeSession(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (a *api) updateOrderStatusByPaymentSession(c *gin.Context) {
	var req statusPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	o, err := a.deps.OrderSvc.UpdateOrderStatusBySession(c.Request.Context(), c.Param("sessionId"), req.patch())
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (a *api) createEsim(c *gin.Context) {
	var e domain.Esim
	if !bindJSON(c, &e) {
		return
	}
	out, err := a.deps.OrderSvc.CreateEsimRecord(c.Request.Context(), e)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

type esimUsageRequest struct {
	Status      domain.EsimStatus `json:"status" binding:"required"`
	DataUsed    *int64            `json:"dataUsed"`
	ActivatedAt *time.Time        `json:"activatedAt"`
	ExpiresAt   *time.Time        `json:"expiresAt"`
}

// updateEsimUsage answers 202 with no body for an ICCID not yet recorded.
func (a *api) updateEsimUsage(c *gin.Context) {
	var req esimUsageRequest
	if !bindJSON(c, &req) {
		return
	}
	e, err := a.deps.OrderSvc.UpdateEsimFromApi(c.Request.Context(), c.Param("iccid"), ordersvc.UsageUpdate{
		Status:      req.Status,
		DataUsed:    req.DataUsed,
		ActivatedAt: req.ActivatedAt,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	if e == nil {
		c.Status(http.StatusAccepted)
		return
	}
	c.JSON(http.StatusOK, e)
}
