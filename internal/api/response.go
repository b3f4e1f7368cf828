package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Soltrivia-App/soltrivia-contract/internal/middleware"
	"github.com/Soltrivia-App/soltrivia-contract/internal/model"
	"github.com/Soltrivia-App/soltrivia-contract/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var errInvalidAmount = errors.New("amount must be a non-negative whole number")

var maxAmount = decimal.NewFromUint64(^uint64(0))

var kindStatus = map[model.Kind]int{
	model.KindValidation:         http.StatusBadRequest,
	model.KindAuthorization:      http.StatusForbidden,
	model.KindNotFound:           http.StatusNotFound,
	model.KindStateConflict:      http.StatusConflict,
	model.KindResourceExhaustion: http.StatusUnprocessableEntity,
	model.KindUnsupported:        http.StatusNotImplemented,
}

// respondError writes err as {"error", "code"}. Ledger errors keep their
// message; anything else is logged and hidden behind a 500.
func respondError(c *gin.Context, err error) {
	var le *model.Error
	if errors.As(err, &le) {
		status, ok := kindStatus[le.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": le.Message, "code": le.Code})
		return
	}

	logger.Logger().Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func badRequest(c *gin.Context, err error) {
	logger.Logger().Info("failed to bind request", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

// caller returns the authenticated identity or aborts the request.
func caller(c *gin.Context) (model.Identity, bool) {
	id, ok := middleware.Caller(c)
	if !ok {
		logger.Logger().Error("caller identity not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return id, true
}

func uintParam(c *gin.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

// Amount is a base-unit quantity carried as a decimal string so values above
// 2^53 survive JSON clients.
type Amount string

func formatAmount(v uint64) Amount {
	return Amount(decimal.NewFromUint64(v).String())
}

func (a Amount) Uint64() (uint64, error) {
	if a == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(string(a))
	if err != nil {
		return 0, errInvalidAmount
	}
	if d.IsNegative() || !d.Equal(d.Truncate(0)) || d.GreaterThan(maxAmount) {
		return 0, errInvalidAmount
	}
	return d.BigInt().Uint64(), nil
}
