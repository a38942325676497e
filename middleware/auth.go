package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
)

type JWKSProvider interface {
	GetJWKS() (*keyfunc.JWKS, error)
}

// CheckAuth validates the bearer token against the provider's key set and stores the claims
// for RequireAnyRole.
func CheckAuth(provider JWKSProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || strings.TrimSpace(rawToken) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, InvalidTokenResponse)
			return
		}

		jwks, err := provider.GetJWKS()
		if err != nil {
			log.Error().Err(err).Msg(ErrFailedToLoadJwks.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrOpenIDConfiguration)
			return
		}

		userToken := UserToken{}
		_, err = jwt.ParseWithClaims(strings.TrimSpace(rawToken), &userToken, jwks.Keyfunc)
		if err != nil {
			var validationErr *jwt.ValidationError
			if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, TokenExpiredResponse)
				return
			}
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("rejected bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, InvalidTokenResponse)
			return
		}

		if !userToken.VerifyExpiresAt(time.Now(), true) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, TokenExpiredResponse)
			return
		}

		c.Set(userContextKey, userToken)
		c.Next()
	}
}
