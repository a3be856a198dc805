// Package handlers holds the gin handlers. They stay thin: bind, call the
// use case, translate the result. All policy lives below.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	paymentUsecases "sealpay/internal/application/payment/usecases"
	"sealpay/internal/domain/intent"
	"sealpay/internal/infrastructure/metrics"
	apperrors "sealpay/internal/shared/errors"
	"sealpay/internal/shared/logger"
	"sealpay/internal/shared/utils"
)

type IntentHandler struct {
	createUC *paymentUsecases.CreateIntentUseCase
	verifyUC *paymentUsecases.VerifyIntentUseCase
	getUC    *paymentUsecases.GetIntentUseCase
	metrics  *metrics.Registry
	logger   logger.Interface
}

func NewIntentHandler(
	createUC *paymentUsecases.CreateIntentUseCase,
	verifyUC *paymentUsecases.VerifyIntentUseCase,
	getUC *paymentUsecases.GetIntentUseCase,
	metrics *metrics.Registry,
	logger logger.Interface,
) *IntentHandler {
	return &IntentHandler{
		createUC: createUC,
		verifyUC: verifyUC,
		getUC:    getUC,
		metrics:  metrics,
		logger:   logger,
	}
}

type CreateIntentRequest struct {
	ID              string            `json:"id" validate:"omitempty,max=64"`
	FiatAmountCents int64             `json:"fiat_amount_cents" binding:"required,gt=0" validate:"required,gt=0"`
	FiatCurrency    string            `json:"fiat_currency" validate:"omitempty,len=3,alpha"`
	Currency        string            `json:"currency" binding:"required" validate:"required,max=10"`
	Metadata        map[string]string `json:"metadata"`
}

type VerifyIntentRequest struct {
	TxHash string `json:"tx_hash"`
}

type IntentResponse struct {
	ID                    string            `json:"id"`
	FiatAmountCents       int64             `json:"fiat_amount_cents"`
	FiatCurrency          string            `json:"fiat_currency"`
	Currency              string            `json:"currency"`
	TokenAmount           string            `json:"token_amount"`
	DestinationAddress    string            `json:"destination_address"`
	RequiredConfirmations int               `json:"required_confirmations"`
	Status                string            `json:"status"`
	TxHash                *string           `json:"tx_hash,omitempty"`
	Confirmations         int               `json:"confirmations"`
	FailureReason         *string           `json:"failure_reason,omitempty"`
	VerifiedAt            *time.Time        `json:"verified_at,omitempty"`
	ExpiresAt             time.Time         `json:"expires_at"`
	CreatedAt             time.Time         `json:"created_at"`
	Metadata              map[string]string `json:"metadata,omitempty"`
}

func toIntentResponse(p *intent.PaymentIntent) IntentResponse {
	return IntentResponse{
		ID:                    p.ID(),
		FiatAmountCents:       p.FiatAmount().AmountInCents(),
		FiatCurrency:          p.FiatAmount().Currency(),
		Currency:              p.Currency().String(),
		TokenAmount:           p.TokenAmount(),
		DestinationAddress:    p.DestinationAddress(),
		RequiredConfirmations: p.RequiredConfirmations(),
		Status:                p.Status().String(),
		TxHash:                p.TxHash(),
		Confirmations:         p.Confirmations(),
		FailureReason:         p.FailureReason(),
		VerifiedAt:            p.VerifiedAt(),
		ExpiresAt:             p.ExpiresAt(),
		CreatedAt:             p.CreatedAt(),
		Metadata:              p.Metadata(),
	}
}

func (h *IntentHandler) Create(c *gin.Context) {
	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.createUC.Execute(c.Request.Context(), paymentUsecases.CreateIntentCommand{
		IdempotencyKey:  req.ID,
		FiatAmountCents: req.FiatAmountCents,
		FiatCurrency:    req.FiatCurrency,
		Currency:        req.Currency,
		Metadata:        req.Metadata,
	})
	if err != nil {
		if !apperrors.IsAppError(err) {
			h.logger.Errorw("failed to create intent", "error", err)
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, toIntentResponse(result))
}

func (h *IntentHandler) Verify(c *gin.Context) {
	var req VerifyIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	result, err := h.verifyUC.Execute(c.Request.Context(), c.Param("id"), req.TxHash)
	if err != nil {
		h.recordVerifyOutcome(err, nil)
		if !apperrors.IsAppError(err) {
			h.logger.Errorw("failed to verify intent", "error", err, "intent_id", c.Param("id"))
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.recordVerifyOutcome(nil, result)
	utils.SuccessResponse(c, http.StatusOK, "", toIntentResponse(result))
}

func (h *IntentHandler) Get(c *gin.Context) {
	result, err := h.getUC.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", toIntentResponse(result))
}

func (h *IntentHandler) recordVerifyOutcome(err error, p *intent.PaymentIntent) {
	if h.metrics == nil {
		return
	}
	if err != nil {
		if appErr := apperrors.GetAppError(err); appErr != nil {
			h.metrics.IncVerify(string(appErr.Kind))
		} else {
			h.metrics.IncVerify("error")
		}
		return
	}
	h.metrics.IncVerify(p.Status().String())
}
