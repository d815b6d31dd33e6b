package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	purchaseapp "wallet-server/internal/application/purchase"
	"wallet-server/internal/domain/purchase_request"
	"wallet-server/internal/domain/wallet"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
	"wallet-server/internal/infrastructure/provider"
	restmiddleware "wallet-server/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	testWebhookSecret  = "test-secret"
	testIdempotencyKey = "7a1883dc-2b55-4b14-a5bb-0a6ba1a17c30"
)

func newTestPurchaseAppService(
	purchaseRepo *MockPurchaseRequestRepository,
	walletRepo *MockWalletRepository,
	historyRepo *MockEntryRepository,
	txManager *MockTransactionManager,
) (*purchaseapp.PurchaseApplicationService, *otelinfra.Logger) {
	tracer := noop.NewTracerProvider().Tracer("test")
	logger := otelinfra.NewLogger(tracer)
	metrics, _ := otelinfra.NewMetrics("test")

	walletService, _ := newTestWalletAppService(walletRepo, historyRepo, txManager)
	registry := provider.NewRegistry("dummy", provider.NewDummyProvider("http://localhost:8080", testWebhookSecret))

	svc := purchaseapp.NewPurchaseApplicationService(
		purchaseRepo,
		walletService,
		txManager,
		registry,
		logger,
		metrics,
		5*time.Second,
		30*time.Minute,
	)
	return svc, logger
}

func newProcessingPurchaseRequest(t *testing.T, sessionID string) *purchase_request.PurchaseRequest {
	t.Helper()
	pr := purchase_request.MustNewPurchaseRequest(
		"req-1", testIdempotencyKey, "user123",
		wallet.WalletTypeRegularCoin, 1000, 900, "credit_card", "dummy",
	)
	require.NoError(t, pr.StartProcessing(sessionID, "http://localhost:8080/checkout/"+sessionID))
	return pr
}

func TestPurchaseHandler_Initiate(t *testing.T) {
	tests := []struct {
		name           string
		tokenUserID    string
		requestBody    map[string]interface{}
		setupMock      func(*MockPurchaseRequestRepository)
		expectedStatus int
	}{
		{
			name:        "正常系: 新規購入リクエスト",
			tokenUserID: "user123",
			requestBody: map[string]interface{}{
				"idempotency_key": testIdempotencyKey,
				"wallet_type":     "regular_coin",
				"amount":          "1000",
				"payment_amount":  "900",
				"payment_method":  "credit_card",
			},
			setupMock: func(mpr *MockPurchaseRequestRepository) {
				mpr.On("FindByIdempotencyKey", mock.Anything, testIdempotencyKey).
					Return(nil, purchase_request.ErrPurchaseRequestNotFound)
				mpr.On("Create", mock.Anything, mock.Anything).Return(nil)
				mpr.On("Update", mock.Anything, mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "正常系: 同一冪等性キーの再実行",
			tokenUserID: "user123",
			requestBody: map[string]interface{}{
				"idempotency_key": testIdempotencyKey,
				"wallet_type":     "regular_coin",
				"amount":          "1000",
				"payment_amount":  "900",
				"payment_method":  "credit_card",
			},
			setupMock: func(mpr *MockPurchaseRequestRepository) {
				existing := newProcessingPurchaseRequest(t, "sess-1")
				mpr.On("FindByIdempotencyKey", mock.Anything, testIdempotencyKey).Return(existing, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "異常系: トークンにuser_idがない",
			tokenUserID:    "",
			requestBody:    map[string]interface{}{},
			setupMock:      func(mpr *MockPurchaseRequestRepository) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:        "異常系: 無効な金額フォーマット",
			tokenUserID: "user123",
			requestBody: map[string]interface{}{
				"idempotency_key": testIdempotencyKey,
				"wallet_type":     "regular_coin",
				"amount":          "invalid",
				"payment_amount":  "900",
				"payment_method":  "credit_card",
			},
			setupMock:      func(mpr *MockPurchaseRequestRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "異常系: 冪等性キーがUUIDでない",
			tokenUserID: "user123",
			requestBody: map[string]interface{}{
				"idempotency_key": "not-a-uuid",
				"wallet_type":     "regular_coin",
				"amount":          "1000",
				"payment_amount":  "900",
				"payment_method":  "credit_card",
			},
			setupMock:      func(mpr *MockPurchaseRequestRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			mockPurchaseRepo := new(MockPurchaseRequestRepository)
			mockWalletRepo := new(MockWalletRepository)
			mockHistoryRepo := new(MockEntryRepository)
			mockTxManager := new(MockTransactionManager)
			tt.setupMock(mockPurchaseRepo)

			appService, logger := newTestPurchaseAppService(mockPurchaseRepo, mockWalletRepo, mockHistoryRepo, mockTxManager)
			handler := NewPurchaseHandler(appService)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest(http.MethodPost, "/wallet/purchase/initiate", bytes.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.tokenUserID != "" {
				c.Set(restmiddleware.ContextKeyUserID, tt.tokenUserID)
				c.Set(restmiddleware.ContextKeyRole, "user")
			}

			middlewareFunc := restmiddleware.ErrorHandlerMiddleware(logger)
			handlerFunc := middlewareFunc(func(c echo.Context) error {
				return handler.Initiate(c)
			})
			err := handlerFunc(c)
			if err != nil {
				e.HTTPErrorHandler(err, c)
			}
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.expectedStatus == http.StatusOK {
				var response map[string]interface{}
				err = json.Unmarshal(rec.Body.Bytes(), &response)
				require.NoError(t, err)
				assert.Equal(t, "processing", response["status"])
				assert.NotEmpty(t, response["redirect_url"])
			}
		})
	}
}

func TestPurchaseHandler_GetStatus(t *testing.T) {
	tests := []struct {
		name           string
		requestID      string
		tokenUserID    string
		tokenRole      string
		setupMock      func(*MockPurchaseRequestRepository)
		expectedStatus int
	}{
		{
			name:        "正常系: 本人がステータスを取得",
			requestID:   "req-1",
			tokenUserID: "user123",
			tokenRole:   "user",
			setupMock: func(mpr *MockPurchaseRequestRepository) {
				pr := newProcessingPurchaseRequest(t, "sess-1")
				mpr.On("FindByRequestID", mock.Anything, "req-1").Return(pr, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "正常系: 管理者が他ユーザーのステータスを取得",
			requestID:   "req-1",
			tokenUserID: "admin001",
			tokenRole:   "admin",
			setupMock: func(mpr *MockPurchaseRequestRepository) {
				pr := newProcessingPurchaseRequest(t, "sess-1")
				mpr.On("FindByRequestID", mock.Anything, "req-1").Return(pr, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "異常系: 他ユーザーのリクエストを参照",
			requestID:   "req-1",
			tokenUserID: "other456",
			tokenRole:   "user",
			setupMock: func(mpr *MockPurchaseRequestRepository) {
				pr := newProcessingPurchaseRequest(t, "sess-1")
				mpr.On("FindByRequestID", mock.Anything, "req-1").Return(pr, nil)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:        "異常系: リクエストが存在しない",
			requestID:   "req-unknown",
			tokenUserID: "user123",
			tokenRole:   "user",
			setupMock: func(mpr *MockPurchaseRequestRepository) {
				mpr.On("FindByRequestID", mock.Anything, "req-unknown").
					Return(nil, purchase_request.ErrPurchaseRequestNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			mockPurchaseRepo := new(MockPurchaseRequestRepository)
			mockWalletRepo := new(MockWalletRepository)
			mockHistoryRepo := new(MockEntryRepository)
			mockTxManager := new(MockTransactionManager)
			tt.setupMock(mockPurchaseRepo)

			appService, logger := newTestPurchaseAppService(mockPurchaseRepo, mockWalletRepo, mockHistoryRepo, mockTxManager)
			handler := NewPurchaseHandler(appService)

			req := httptest.NewRequest(http.MethodGet, "/wallet/purchase/"+tt.requestID+"/status", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.requestID)
			c.Set(restmiddleware.ContextKeyUserID, tt.tokenUserID)
			c.Set(restmiddleware.ContextKeyRole, tt.tokenRole)

			middlewareFunc := restmiddleware.ErrorHandlerMiddleware(logger)
			handlerFunc := middlewareFunc(func(c echo.Context) error {
				return handler.GetStatus(c)
			})
			err := handlerFunc(c)
			if err != nil {
				e.HTTPErrorHandler(err, c)
			}
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.expectedStatus == http.StatusOK {
				var response map[string]interface{}
				err = json.Unmarshal(rec.Body.Bytes(), &response)
				require.NoError(t, err)
				assert.Equal(t, "req-1", response["request_id"])
				assert.Equal(t, "processing", response["status"])
			}
		})
	}
}
