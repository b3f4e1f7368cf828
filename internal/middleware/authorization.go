package middleware

import (
	"net/http"

	"github.com/Soltrivia-App/soltrivia-contract/internal/model"
	"github.com/Soltrivia-App/soltrivia-contract/pkg/auth"
	"github.com/Soltrivia-App/soltrivia-contract/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key holding the caller's model.Identity.
const IdentityKey = "identity"

type Authorization struct {
	operators map[model.Identity]struct{}
}

// NewAuthorization grants operator rights to the listed identities.
func NewAuthorization(operators []string) *Authorization {
	set := make(map[model.Identity]struct{}, len(operators))
	for _, op := range operators {
		set[model.Identity(op)] = struct{}{}
	}
	return &Authorization{operators: set}
}

// Identity turns the authenticated Telegram user into the caller identity
// every ledger operation acts as. It must run after the Telegram auth
// middleware.
func (a *Authorization) Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		userData, exists := c.Get(auth.UserKey)
		if !exists {
			log.Error("telegram user data not found in context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		telegramUser, ok := userData.(*auth.TelegramUserData)
		if !ok {
			log.Error("invalid type assertion for telegram user data")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(IdentityKey, model.Identity(telegramUser.Identity()))
		c.Next()
	}
}

func (a *Authorization) OperatorOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		caller, ok := Caller(c)
		if !ok {
			log.Error("caller identity not found in context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if _, ok := a.operators[caller]; !ok {
			log.Info("unauthorized access attempt to operator endpoint",
				zap.String("identity", caller.String()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "operator access required"})
			return
		}

		c.Set("is_operator", true)
		c.Next()
	}
}

// Caller returns the identity set by Identity.
func Caller(c *gin.Context) (model.Identity, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return "", false
	}
	id, ok := v.(model.Identity)
	return id, ok && id != ""
}
