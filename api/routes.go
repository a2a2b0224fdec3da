package api

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relatorlabs/beacon/server"
	"github.com/relatorlabs/beacon/server/middleware"
	"github.com/relatorlabs/beacon/version"
)

// serviceNameRE matches DNS-label-style service names: lowercase
// alphanumerics separated by single hyphens, underscores, or dots.
var serviceNameRE = regexp.MustCompile(`^[a-z0-9]([a-z0-9._-]*[a-z0-9])?$`)

// RegisterValidators installs the custom binding validators used by the API.
// Call once at startup before serving requests.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("servicename", func(fl validator.FieldLevel) bool {
			name := fl.Field().String()
			return len(name) <= 128 && serviceNameRE.MatchString(name)
		})
	}
}

// Routes wires the registry API onto the server. Health, metrics, and info
// stay outside the auth gate; everything else requires the bearer secret.
func Routes(srv *server.Server, h *Handlers, secret string) {
	engine := srv.GinEngine()

	engine.Use(middleware.BearerAuth(middleware.AuthConfig{
		Secret:    secret,
		SkipPaths: []string{"/", "/health", "/metrics", "/info"},
	}))

	engine.GET("/", h.Health)
	engine.GET("/health", h.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/info", func(c *gin.Context) {
		server.RespondOK(c, gin.H{
			"service": "beacon",
			"version": version.GetShortVersion(),
		})
	})

	engine.POST("/register", h.Register)
	engine.GET("/discover/:name", h.Discover)
	engine.GET("/services", h.List)
	engine.DELETE("/unregister/:name", h.Unregister)
}
