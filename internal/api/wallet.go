package api

import (
	"net/http"

	"github.com/Soltrivia-App/soltrivia-contract/internal/model"
	"github.com/Soltrivia-App/soltrivia-contract/internal/service"

	"github.com/gin-gonic/gin"
)

type walletRoutes struct {
	rs service.RewardServiceI
}

// NewWalletRoutes exposes balances. Deposits mint funds into the ledger and
// sit behind operatorOnly.
func NewWalletRoutes(handler *gin.RouterGroup, rs service.RewardServiceI, operatorOnly gin.HandlerFunc, auth ...gin.HandlerFunc) {
	r := &walletRoutes{rs: rs}

	h := handler.Group("/wallet")
	h.Use(auth...)
	{
		h.GET("/balance", r.GetBalance)
		h.POST("/deposits", operatorOnly, r.Deposit)
	}
}

// GetBalance defaults to the caller's native balance. Vault balances are
// read by passing the vault address as holder.
func (r *walletRoutes) GetBalance(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	holder := c.DefaultQuery("holder", id.String())
	asset := model.Asset(c.DefaultQuery("asset", string(model.NativeAsset)))

	balance, err := r.rs.Balance(c.Request.Context(), holder, asset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"holder":  holder,
		"asset":   asset,
		"balance": formatAmount(balance),
	})
}

type depositRequest struct {
	Holder string `json:"holder" binding:"required"`
	Asset  string `json:"asset"`
	Amount Amount `json:"amount" binding:"required"`
}

func (r *walletRoutes) Deposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	amount, err := req.Amount.Uint64()
	if err != nil {
		badRequest(c, err)
		return
	}
	asset := model.NativeAsset
	if req.Asset != "" {
		asset = model.Asset(req.Asset)
	}

	balance, err := r.rs.Deposit(c.Request.Context(), req.Holder, asset, amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"holder":  req.Holder,
		"asset":   asset,
		"balance": formatAmount(balance),
	})
}
