package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tunehall/tunehall/internal/adapters/ws"
	"github.com/tunehall/tunehall/internal/app"
	"github.com/tunehall/tunehall/internal/config"
)

// ClientTokenMiddleware tags every browser with a stable token, used only
// for log correlation across reconnects.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, hub *app.Hub) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("TunehallSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	wsCtl := ws.NewController(cfg, hub)
	api.GET("/ws", wsCtl.Handle)

	api.GET("/health", func(c *gin.Context) {
		rooms, conns := hub.Stats()
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"rooms":       rooms,
			"connections": conns,
		})
	})

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, hub.RoomInfos())
	})

	return r
}
