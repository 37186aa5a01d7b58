package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"emotion-diary/internal/service"
)

const operatorClaimsKey = "operator_claims"

// OperatorAuthMiddleware exige un token de operador Bearer válido.
func OperatorAuthMiddleware(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil || !tokens.Enabled() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "operator auth not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := tokens.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(operatorClaimsKey, claims)
		c.Next()
	}
}

// GetOperatorClaims obtiene los claims del operador desde el contexto.
func GetOperatorClaims(c *gin.Context) (service.OperatorClaims, bool) {
	val, ok := c.Get(operatorClaimsKey)
	if !ok {
		return service.OperatorClaims{}, false
	}
	claims, ok := val.(service.OperatorClaims)
	return claims, ok
}
