/*
Package order - seller-facing order API controller.

Responsibilities:
1. Parse HTTP parameters and the authenticated sellerRef
2. Call the order application service
3. Respond through the response package

Error handling:
1. Parameter binding errors return 400 via response.HandleError
2. Business errors go through response.HandleAppError, which maps the
   domain sentinel to a code and HTTP status
*/
package order

import (
	"net/http"

	"marketplace/api/middleware"
	"marketplace/api/response"
	orderapp "marketplace/application/order"
	"marketplace/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Controller Seller order controller
type Controller struct {
	orderService *orderapp.ApplicationService
}

// NewController Create order controller
func NewController(orderService *orderapp.ApplicationService) *Controller {
	return &Controller{
		orderService: orderService,
	}
}

// RegisterRoutes Register order routes. The group is expected to carry
// the seller auth middleware.
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	orderGroup := router.Group("/orders")
	{
		orderGroup.GET("", c.ListOrders)
		orderGroup.GET("/:id", c.GetOrder)
		orderGroup.PUT("/:id/items/:itemId", c.UpdateLineItemStatus)
	}
}

// GetOrder returns the seller's projection of one order.
// GET /api/v1/orders/:id
func (c *Controller) GetOrder(ctx *gin.Context) {
	sellerRef := middleware.SellerRefFromContext(ctx)
	orderID := ctx.Param("id")
	if orderID == "" {
		response.HandleError(ctx, errors.BadRequest("order ID is required"), "order ID is required", http.StatusBadRequest)
		return
	}

	view, err := c.orderService.GetSellerOrder(ctx.Request.Context(), sellerRef, orderID)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, view, "order retrieved successfully")
}

// ListOrders returns the seller's orders, newest first.
// GET /api/v1/orders?range=today|month|year|overall&status=Shipped
func (c *Controller) ListOrders(ctx *gin.Context) {
	sellerRef := middleware.SellerRefFromContext(ctx)
	rangeName := ctx.Query("range")
	status := ctx.Query("status")

	views, err := c.orderService.ListSellerOrders(ctx.Request.Context(), sellerRef, rangeName, status)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, views, "orders retrieved successfully")
}

// UpdateLineItemStatus advances one of the seller's line items.
// PUT /api/v1/orders/:id/items/:itemId
//
// The body carries the target status and the order version the seller
// last observed. A stale version returns 409 VERSION_CONFLICT and the
// seller refetches; reapplying an already-applied status succeeds as a
// no-op.
func (c *Controller) UpdateLineItemStatus(ctx *gin.Context) {
	sellerRef := middleware.SellerRefFromContext(ctx)
	orderID := ctx.Param("id")
	itemID := ctx.Param("itemId")
	if orderID == "" || itemID == "" {
		response.HandleError(ctx, errors.BadRequest("order ID and item ID are required"), "order ID and item ID are required", http.StatusBadRequest)
		return
	}

	var req orderapp.UpdateLineItemStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	result, err := c.orderService.UpdateLineItemStatus(ctx.Request.Context(), sellerRef, orderID, itemID, req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, result, "line item status updated successfully")
}
