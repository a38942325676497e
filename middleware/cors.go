package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/blutspende/labops/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var corsHeaders = []string{
	"Authorization",
	"Content-Type",
	"Content-Length",
	"Accept",
	"Accept-Encoding",
	"Origin",
	"Cache-Control",
	"X-Requested-With",
}

// CreateCorsMiddleware opens the API to every origin in development setups without authorization,
// otherwise only to the comma separated PERMITTED_ORIGIN_URL list. A "*" entry keeps it open.
func CreateCorsMiddleware(configuration *config.Configuration) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     corsHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins := permittedOrigins(configuration.PermittedOrigin)
	if !configuration.Authorization || len(origins) == 0 {
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsConfig.AllowOrigins = origins
	}

	return cors.New(corsConfig)
}

func permittedOrigins(value string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(value, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			return nil
		}
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
