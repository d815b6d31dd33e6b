package handler

import (
	"net/http"
	"strconv"

	walletapp "wallet-server/internal/application/wallet"
	restmiddleware "wallet-server/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
)

// WalletHandler ウォレット関連ハンドラー
type WalletHandler struct {
	walletService *walletapp.WalletApplicationService
}

// NewWalletHandler 新しいWalletHandlerを作成
func NewWalletHandler(walletService *walletapp.WalletApplicationService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// GetBalance 残高取得ハンドラー
// @Summary 残高を取得
// @Description 指定されたユーザーのウォレット残高を取得します（本人または管理者のみ）
// @Tags wallet
// @Accept json
// @Produce json
// @Security Bearer
// @Param user_id path string true "ユーザーID" example(user123)
// @Success 200 {object} BalanceResponse "残高取得成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 403 {object} ErrorResponse "権限エラー"
// @Router /wallet/{user_id}/balance [get]
func (h *WalletHandler) GetBalance(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	// 本人または管理者のみ参照できる
	if userID != restmiddleware.UserID(c) && !restmiddleware.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "cannot access another user's balance")
	}

	resp, err := h.walletService.GetBalance(c.Request().Context(), &walletapp.GetBalanceRequest{
		UserID: userID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, BalanceResponse{
		UserID: resp.UserID,
		Balances: BalanceItem{
			RegularCoin: strconv.FormatInt(resp.Balances["regular_coin"], 10),
			BonusCoin:   strconv.FormatInt(resp.Balances["bonus_coin"], 10),
		},
		Total: strconv.FormatInt(resp.Total, 10),
	})
}

// AdjustBalance 残高調整ハンドラー（管理者用）
// @Summary 残高を調整（管理者用）
// @Description 指定されたユーザーのウォレット残高を調整し、履歴を記録します
// @Tags wallet
// @Accept json
// @Produce json
// @Security Bearer
// @Param user_id path string true "ユーザーID" example(user123)
// @Param request body AdjustBalanceRequest true "残高調整リクエスト"
// @Success 200 {object} AdjustBalanceResponse "残高調整成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 403 {object} ErrorResponse "権限エラー"
// @Failure 409 {object} ErrorResponse "残高不足または競合"
// @Router /wallet/{user_id}/adjust [post]
func (h *WalletHandler) AdjustBalance(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	var reqBody AdjustBalanceRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	// 金額をint64に変換
	amount, err := strconv.ParseInt(reqBody.Amount, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid amount format")
	}

	// SET以外は正の金額のみ受け付ける
	if reqBody.ChangeMethod != "set" && amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be positive")
	}

	resp, err := h.walletService.AdjustBalance(c.Request().Context(), &walletapp.AdjustBalanceRequest{
		UserID:         userID,
		WalletType:     reqBody.WalletType,
		ChangeMethod:   reqBody.ChangeMethod,
		Amount:         amount,
		SourceType:     "admin_action",
		RequestBatchID: reqBody.RequestBatchID,
		Reason:         reqBody.Reason,
		Meta:           reqBody.Meta,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, AdjustBalanceResponse{
		EntryID:       resp.EntryID,
		UserID:        resp.UserID,
		WalletType:    resp.WalletType,
		BalanceBefore: strconv.FormatInt(resp.BalanceBefore, 10),
		BalanceAfter:  strconv.FormatInt(resp.BalanceAfter, 10),
	})
}
