package middleware

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// preflightMaxAge is how long browsers may cache a preflight answer.
const preflightMaxAge = 12 * time.Hour

// corsConfig allows the control plane's verbs from origins. "*" or an empty
// list opens it to any origin; credentials are only sent to named origins.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders:   []string{RequestIDHeader},
		AllowWebSockets: true,
		MaxAge:          preflightMaxAge,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// CORS returns the CORS middleware for origins, or an error naming the
// origin list if it cannot be used.
func CORS(origins []string) (gin.HandlerFunc, error) {
	cfg := corsConfig(origins)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cors origins %v: %w", origins, err)
	}
	return cors.New(cfg), nil
}
