package middleware

import (
	"net/http"
	"strings"

	"marketplace/api/response"
	"marketplace/config"
	"marketplace/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// SellerRefKey is the gin context key holding the authenticated
// seller's reference.
const SellerRefKey = "seller_ref"

// sellerClaims is the token payload issued by the external session
// provider. The subject carries the sellerRef.
type sellerClaims struct {
	jwt.RegisteredClaims
}

// SellerAuthMiddleware verifies the Bearer token and places the
// sellerRef into the gin context. Identity lives in an external
// provider; this service only validates the shared-secret signature and
// trusts the subject claim.
func SellerAuthMiddleware(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims := &sellerClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			logger.Warn("Seller token rejected",
				zap.String("request_id", response.GetRequestID(c)),
				zap.Error(err))
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		sellerRef := claims.Subject
		if sellerRef == "" {
			abortUnauthorized(c, "token carries no seller reference")
			return
		}

		c.Set(SellerRefKey, sellerRef)
		c.Next()
	}
}

// SellerRefFromContext returns the authenticated sellerRef, empty if
// the auth middleware did not run.
func SellerRefFromContext(c *gin.Context) string {
	if v, exists := c.Get(SellerRefKey); exists {
		if ref, ok := v.(string); ok {
			return ref
		}
	}
	return ""
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.Response{
		Success:   false,
		Error:     "UNAUTHORIZED",
		Message:   message,
		Code:      http.StatusUnauthorized,
		RequestID: response.GetRequestID(c),
	})
}
