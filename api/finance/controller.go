/*
Package finance - seller earnings and payout API controller.
*/
package finance

import (
	"net/http"

	"marketplace/api/middleware"
	"marketplace/api/response"
	financeapp "marketplace/application/finance"
	"marketplace/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Controller Seller finance controller
type Controller struct {
	financeService *financeapp.ApplicationService
}

// NewController Create finance controller
func NewController(financeService *financeapp.ApplicationService) *Controller {
	return &Controller{
		financeService: financeService,
	}
}

// RegisterRoutes Register finance routes. The group is expected to
// carry the seller auth middleware.
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	financeGroup := router.Group("/finance")
	{
		financeGroup.GET("/earnings", c.GetEarnings)
		financeGroup.GET("/balance", c.GetBalance)
		financeGroup.GET("/pending", c.GetPendingPayments)
		financeGroup.GET("/payouts", c.ListPayouts)
		financeGroup.POST("/payouts", c.RequestPayout)
		financeGroup.GET("/payouts/:id", c.GetPayout)
		financeGroup.GET("/bank-details", c.GetBankDetails)
		financeGroup.PUT("/bank-details", c.UpdateBankDetails)
	}
}

// RegisterInternalRoutes Register settlement-side routes. These are not
// seller-facing; the group is expected to carry operator auth.
func (c *Controller) RegisterInternalRoutes(router *gin.RouterGroup) {
	router.PUT("/payouts/:id/status", c.UpdatePayoutStatus)
}

// GetEarnings returns the seller's earnings report for a window, given
// either as a named range or as explicit RFC 3339 bounds.
// GET /api/v1/finance/earnings?range=month
// GET /api/v1/finance/earnings?window_start=...&window_end=...
func (c *Controller) GetEarnings(ctx *gin.Context) {
	sellerRef := middleware.SellerRefFromContext(ctx)

	report, err := c.financeService.GetEarnings(ctx.Request.Context(), sellerRef,
		ctx.Query("range"), ctx.Query("window_start"), ctx.Query("window_end"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, report, "earnings retrieved successfully")
}

// GetBalance returns the seller's available balance.
// GET /api/v1/finance/balance
func (c *Controller) GetBalance(ctx *gin.Context) {
	sellerRef := middleware.SellerRefFromContext(ctx)

	balance, err := c.financeService.GetBalance(ctx.Request.Context(), sellerRef)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, balance, "balance retrieved successfully")
}

// GetPendingPayments lists the seller's in-flight settlements.
// GET /api/v1/finance/pending
func (c *Controller) GetPendingPayments(ctx *gin.Context) {
	sellerRef := middleware.SellerRefFromContext(ctx)

	pending, err := c.financeService.GetPendingPayments(ctx.Request.Context(), sellerRef)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, pending, "pending payments retrieved successfully")
}

// RequestPayout creates a payout request against the available balance.
// POST /api/v1/finance/payouts
func (c *Controller) RequestPayout(ctx *gin.Context) {
	sellerRef := middleware.SellerRefFromContext(ctx)

	var req financeapp.RequestPayoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	payout, err := c.financeService.RequestPayout(ctx.Request.Context(), sellerRef, req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleCreated(ctx, payout, "payout requested successfully")
}

// ListPayouts returns the seller's payout history.
// GET /api/v1/finance/payouts
func (c *Controller) ListPayouts(ctx *gin.Context) {
	sellerRef := middleware.SellerRefFromContext(ctx)

	list, err := c.financeService.ListPayouts(ctx.Request.Context(), sellerRef)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, list, "payouts retrieved successfully")
}

// GetPayout returns one of the seller's payout requests.
// GET /api/v1/finance/payouts/:id
func (c *Controller) GetPayout(ctx *gin.Context) {
	sellerRef := middleware.SellerRefFromContext(ctx)
	payoutID := ctx.Param("id")
	if payoutID == "" {
		response.HandleError(ctx, errors.BadRequest("payout ID is required"), "payout ID is required", http.StatusBadRequest)
		return
	}

	payout, err := c.financeService.GetPayout(ctx.Request.Context(), sellerRef, payoutID)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, payout, "payout retrieved successfully")
}

// UpdatePayoutStatus advances a payout's settlement state.
// PUT /api/v1/internal/payouts/:id/status
func (c *Controller) UpdatePayoutStatus(ctx *gin.Context) {
	payoutID := ctx.Param("id")
	if payoutID == "" {
		response.HandleError(ctx, errors.BadRequest("payout ID is required"), "payout ID is required", http.StatusBadRequest)
		return
	}

	var req financeapp.UpdatePayoutStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	payout, err := c.financeService.UpdatePayoutStatus(ctx.Request.Context(), payoutID, req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, payout, "payout status updated successfully")
}

// GetBankDetails returns the seller's settlement profile.
// GET /api/v1/finance/bank-details
func (c *Controller) GetBankDetails(ctx *gin.Context) {
	sellerRef := middleware.SellerRefFromContext(ctx)

	details, err := c.financeService.GetBankDetails(ctx.Request.Context(), sellerRef)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, details, "bank details retrieved successfully")
}

// UpdateBankDetails creates or replaces the settlement profile.
// PUT /api/v1/finance/bank-details
func (c *Controller) UpdateBankDetails(ctx *gin.Context) {
	sellerRef := middleware.SellerRefFromContext(ctx)

	var req financeapp.BankDetailsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	details, err := c.financeService.UpdateBankDetails(ctx.Request.Context(), sellerRef, req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, details, "bank details updated successfully")
}
