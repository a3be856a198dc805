package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	couponUsecases "sealpay/internal/application/coupon/usecases"
	"sealpay/internal/domain/coupon"
	"sealpay/internal/infrastructure/metrics"
	apperrors "sealpay/internal/shared/errors"
	"sealpay/internal/shared/logger"
	"sealpay/internal/shared/utils"
)

type CouponHandler struct {
	sealUC   *couponUsecases.SealCouponUseCase
	revealUC *couponUsecases.RevealCouponUseCase
	claimUC  *couponUsecases.ClaimCouponUseCase
	getUC    *couponUsecases.GetCouponUseCase
	metrics  *metrics.Registry
	logger   logger.Interface
}

func NewCouponHandler(
	sealUC *couponUsecases.SealCouponUseCase,
	revealUC *couponUsecases.RevealCouponUseCase,
	claimUC *couponUsecases.ClaimCouponUseCase,
	getUC *couponUsecases.GetCouponUseCase,
	metrics *metrics.Registry,
	logger logger.Interface,
) *CouponHandler {
	return &CouponHandler{
		sealUC:   sealUC,
		revealUC: revealUC,
		claimUC:  claimUC,
		getUC:    getUC,
		metrics:  metrics,
		logger:   logger,
	}
}

type SealCouponRequest struct {
	ID         string    `json:"id" validate:"omitempty,max=64"`
	ReceiptID  string    `json:"receipt_id" binding:"required" validate:"required,max=64"`
	Capsule    string    `json:"capsule" binding:"required" validate:"required"`
	Ciphertext string    `json:"ciphertext" binding:"required" validate:"required"`
	PolicyID   string    `json:"policy_id" binding:"required" validate:"required,max=64"`
	ValidFrom  time.Time `json:"valid_from" binding:"required"`
	ValidUntil time.Time `json:"valid_until" binding:"required"`
}

type HolderProofRequest struct {
	HolderProof string `json:"holder_proof" binding:"required"`
}

type RevealResponse struct {
	CouponID  string `json:"coupon_id"`
	Plaintext string `json:"plaintext"`
}

// CouponResponse deliberately excludes the plaintext; it is only handed out
// by Reveal.
type CouponResponse struct {
	ID         string     `json:"id"`
	ReceiptID  string     `json:"receipt_id"`
	PolicyID   string     `json:"policy_id"`
	ValidFrom  time.Time  `json:"valid_from"`
	ValidUntil time.Time  `json:"valid_until"`
	State      string     `json:"state"`
	ClaimedBy  *string    `json:"claimed_by,omitempty"`
	ClaimedAt  *time.Time `json:"claimed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toCouponResponse(c *coupon.CouponDisclosure) CouponResponse {
	return CouponResponse{
		ID:         c.ID(),
		ReceiptID:  c.ReceiptID(),
		PolicyID:   c.PolicyID(),
		ValidFrom:  c.ValidFrom(),
		ValidUntil: c.ValidUntil(),
		State:      c.State().String(),
		ClaimedBy:  c.ClaimedBy(),
		ClaimedAt:  c.ClaimedAt(),
		CreatedAt:  c.CreatedAt(),
	}
}

func (h *CouponHandler) Seal(c *gin.Context) {
	var req SealCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.sealUC.Execute(c.Request.Context(), couponUsecases.SealCouponCommand{
		CouponID:   req.ID,
		ReceiptID:  req.ReceiptID,
		Capsule:    req.Capsule,
		Ciphertext: req.Ciphertext,
		PolicyID:   req.PolicyID,
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
	})
	if err != nil {
		if !apperrors.IsAppError(err) {
			h.logger.Errorw("failed to seal coupon", "error", err)
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, toCouponResponse(result))
}

func (h *CouponHandler) Reveal(c *gin.Context) {
	var req HolderProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	couponID := c.Param("id")
	plaintext, err := h.revealUC.Execute(c.Request.Context(), couponID, req.HolderProof)
	if err != nil {
		h.recordOutcome(h.metrics.IncReveal, err, "")
		if !apperrors.IsAppError(err) {
			h.logger.Errorw("failed to reveal coupon", "error", err, "coupon_id", couponID)
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.recordOutcome(h.metrics.IncReveal, nil, "revealed")
	utils.SuccessResponse(c, http.StatusOK, "", RevealResponse{
		CouponID:  couponID,
		Plaintext: plaintext,
	})
}

func (h *CouponHandler) Claim(c *gin.Context) {
	var req HolderProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	couponID := c.Param("id")
	result, err := h.claimUC.Execute(c.Request.Context(), couponID, req.HolderProof)
	if err != nil {
		h.recordOutcome(h.metrics.IncClaim, err, "")
		if !apperrors.IsAppError(err) {
			h.logger.Errorw("failed to claim coupon", "error", err, "coupon_id", couponID)
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.recordOutcome(h.metrics.IncClaim, nil, "claimed")
	utils.SuccessResponse(c, http.StatusOK, "", toCouponResponse(result))
}

func (h *CouponHandler) Get(c *gin.Context) {
	result, err := h.getUC.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", toCouponResponse(result))
}

func (h *CouponHandler) recordOutcome(inc func(string), err error, success string) {
	if h.metrics == nil {
		return
	}
	if err == nil {
		inc(success)
		return
	}
	if appErr := apperrors.GetAppError(err); appErr != nil {
		inc(string(appErr.Kind))
		return
	}
	inc("error")
}
