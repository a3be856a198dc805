package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	couponUsecases "sealpay/internal/application/coupon/usecases"
	appchain "sealpay/internal/application/payment/chain"
	paymentUsecases "sealpay/internal/application/payment/usecases"
	vo "sealpay/internal/domain/intent/valueobjects"
	"sealpay/internal/infrastructure/authz"
	"sealpay/internal/infrastructure/cache"
	chaininfra "sealpay/internal/infrastructure/chain"
	"sealpay/internal/infrastructure/exchangerate"
	"sealpay/internal/infrastructure/metrics"
	"sealpay/internal/infrastructure/repository"
	thresholdinfra "sealpay/internal/infrastructure/threshold"
	"sealpay/internal/interfaces/http/handlers"
	"sealpay/internal/shared/biztime"
	"sealpay/internal/shared/logger"
)

// --- helpers ---

const (
	testDestination = "0xAbC0000000000000000000000000000000000001"
	testProofSecret = "integration-proof-secret"
)

var testTxHash = "0x" + strings.Repeat("a", 64)

type testEnv struct {
	router   *gin.Engine
	chain    *chaininfra.MockClient
	verifier *authz.JWTVerifier
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	intentRepo := repository.NewMemoryIntentRepository()
	couponRepo := repository.NewMemoryCouponRepository()

	mockChain := chaininfra.NewMockClient()
	registry := chaininfra.NewRegistryWithClients(map[vo.Currency]appchain.Client{
		vo.CurrencyMATIC: mockChain,
	})

	oracle := exchangerate.NewFixedRateOracle(map[string]float64{"MATIC": 0.75})
	policy := paymentUsecases.DefaultPolicy()
	policy.DestinationAddresses[vo.CurrencyMATIC] = testDestination

	mockThreshold := thresholdinfra.NewMockClient()
	mockThreshold.SetPlaintext("capsule-1", "SAVE20")

	verifier, err := authz.NewJWTVerifier(testProofSecret)
	require.NoError(t, err)

	log := logger.NewNop()
	metricsRegistry := metrics.NewRegistry()

	intentHandler := handlers.NewIntentHandler(
		paymentUsecases.NewCreateIntentUseCase(intentRepo, oracle, policy, log),
		paymentUsecases.NewVerifyIntentUseCase(intentRepo, registry, policy, nil, log),
		paymentUsecases.NewGetIntentUseCase(intentRepo),
		metricsRegistry,
		log,
	)
	couponHandler := handlers.NewCouponHandler(
		couponUsecases.NewSealCouponUseCase(couponRepo, log),
		couponUsecases.NewRevealCouponUseCase(couponRepo, mockThreshold, verifier, cache.NewMemoryRevealCache(), log),
		couponUsecases.NewClaimCouponUseCase(couponRepo, verifier, nil, log),
		couponUsecases.NewGetCouponUseCase(couponRepo),
		metricsRegistry,
		log,
	)

	return &testEnv{
		router:   NewRouter("test", intentHandler, couponHandler, metricsRegistry, log),
		chain:    mockChain,
		verifier: verifier,
	}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var envelope apiEnvelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	}
	return w, envelope
}

func (e *testEnv) createIntent(t *testing.T) string {
	t.Helper()
	w, envelope := e.do(t, http.MethodPost, "/api/v1/payment-intents", gin.H{
		"fiat_amount_cents": 2999,
		"fiat_currency":     "USD",
		"currency":          "MATIC",
		"metadata":          gin.H{"order": "ord_1"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp handlers.IntentResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &resp))
	return resp.ID
}

func (e *testEnv) sealCoupon(t *testing.T, id string) {
	t.Helper()
	now := biztime.NowUTC()
	w, _ := e.do(t, http.MethodPost, "/api/v1/coupons", gin.H{
		"id":          id,
		"receipt_id":  "rcpt_1",
		"capsule":     "capsule-1",
		"ciphertext":  "ct-1",
		"policy_id":   "policy-1",
		"valid_from":  now.Add(-time.Hour),
		"valid_until": now.Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

// =============================================================================
// Payment Intents
// =============================================================================

func TestPaymentIntentFlow(t *testing.T) {
	env := setupEnv(t)
	intentID := env.createIntent(t)

	// The intent is quoted and waiting for its transaction.
	w, envelope := env.do(t, http.MethodGet, "/api/v1/payment-intents/"+intentID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp handlers.IntentResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &resp))
	assert.Equal(t, "awaiting_tx", resp.Status)
	assert.Equal(t, "39986666666666666667", resp.TokenAmount)
	assert.Equal(t, testDestination, resp.DestinationAddress)

	// The transaction lands with enough confirmations.
	env.chain.SetTransaction(testTxHash, appchain.TransactionInfo{
		Exists:   true,
		To:       testDestination,
		ValueRaw: "39986666666666666667",
	})
	env.chain.SetConfirmations(testTxHash, 12)

	w, envelope = env.do(t, http.MethodPost, "/api/v1/payment-intents/"+intentID+"/verify", gin.H{"tx_hash": testTxHash})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, &resp))
	assert.Equal(t, "verified", resp.Status)
	assert.NotNil(t, resp.VerifiedAt)
}

func TestPaymentIntent_ValidationAndErrorMapping(t *testing.T) {
	env := setupEnv(t)

	// Binding failure.
	w, _ := env.do(t, http.MethodPost, "/api/v1/payment-intents", gin.H{"currency": "MATIC"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown intent.
	w, envelope := env.do(t, http.MethodGet, "/api/v1/payment-intents/pi_missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "not_found", envelope.Error.Kind)

	// Transaction that does not exist on chain.
	intentID := env.createIntent(t)
	w, envelope = env.do(t, http.MethodPost, "/api/v1/payment-intents/"+intentID+"/verify", gin.H{"tx_hash": testTxHash})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "invalid_transaction", envelope.Error.Kind)
}

func TestPaymentIntent_ChainOutageReturns503(t *testing.T) {
	env := setupEnv(t)
	intentID := env.createIntent(t)
	env.chain.FailWith(fmt.Errorf("rpc connection refused"))

	w, envelope := env.do(t, http.MethodPost, "/api/v1/payment-intents/"+intentID+"/verify", gin.H{"tx_hash": testTxHash})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "unavailable", envelope.Error.Kind)
}

// =============================================================================
// Coupons
// =============================================================================

func TestCouponFlow(t *testing.T) {
	env := setupEnv(t)
	env.sealCoupon(t, "cpn_http1")

	proof, err := env.verifier.IssueProof("holder-1", "rcpt_1")
	require.NoError(t, err)

	// Reveal hands out the plaintext; repeats return the same value.
	for i := 0; i < 2; i++ {
		w, envelope := env.do(t, http.MethodPost, "/api/v1/coupons/cpn_http1/reveal", gin.H{"holder_proof": proof})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var reveal handlers.RevealResponse
		require.NoError(t, json.Unmarshal(envelope.Data, &reveal))
		assert.Equal(t, "SAVE20", reveal.Plaintext)
	}

	// Get never exposes the plaintext.
	w, envelope := env.do(t, http.MethodGet, "/api/v1/coupons/cpn_http1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(envelope.Data), "SAVE20")

	// First claim wins, the second is rejected.
	w, envelope = env.do(t, http.MethodPost, "/api/v1/coupons/cpn_http1/claim", gin.H{"holder_proof": proof})
	require.Equal(t, http.StatusOK, w.Code)
	var resp handlers.CouponResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &resp))
	assert.Equal(t, "claimed", resp.State)
	require.NotNil(t, resp.ClaimedBy)
	assert.Equal(t, "holder-1", *resp.ClaimedBy)

	w, envelope = env.do(t, http.MethodPost, "/api/v1/coupons/cpn_http1/claim", gin.H{"holder_proof": proof})
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "already_claimed", envelope.Error.Kind)
}

func TestCoupon_RejectsBadProof(t *testing.T) {
	env := setupEnv(t)
	env.sealCoupon(t, "cpn_http2")

	forged, err := authzIssueWithSecret("wrong-secret", "holder-1", "rcpt_1")
	require.NoError(t, err)

	w, envelope := env.do(t, http.MethodPost, "/api/v1/coupons/cpn_http2/reveal", gin.H{"holder_proof": forged})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "unauthorized", envelope.Error.Kind)

	// Proof bound to a different receipt is rejected too.
	env2 := setupEnv(t)
	env2.sealCoupon(t, "cpn_http3")
	otherReceipt, err := env2.verifier.IssueProof("holder-1", "rcpt_other")
	require.NoError(t, err)
	w, _ = env2.do(t, http.MethodPost, "/api/v1/coupons/cpn_http3/reveal", gin.H{"holder_proof": otherReceipt})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func authzIssueWithSecret(secret, holder, subjectID string) (string, error) {
	v, err := authz.NewJWTVerifier(secret)
	if err != nil {
		return "", err
	}
	return v.IssueProof(holder, subjectID)
}

// =============================================================================
// Operational Endpoints
// =============================================================================

func TestHealthAndMetricsEndpoints(t *testing.T) {
	env := setupEnv(t)

	w, _ := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
