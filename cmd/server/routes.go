package main

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sudo-init-do/favo/internal/auth"
	"github.com/sudo-init-do/favo/internal/config"
	"github.com/sudo-init-do/favo/internal/domain"
	"github.com/sudo-init-do/favo/internal/marketplace"
	"github.com/sudo-init-do/favo/internal/messaging"
	mware "github.com/sudo-init-do/favo/internal/middleware"
	"github.com/sudo-init-do/favo/internal/user"
)

type routeDeps struct {
	cfg       config.Config
	log       *zap.Logger
	pool      *pgxpool.Pool
	rdb       *redis.Client
	authSvc   *auth.Service
	auth      *auth.Handler
	market    *marketplace.Handler
	users     *user.Handler
	ws        *messaging.Handler
	rateLimit config.RateLimitConfig
	cache     config.CacheConfig
}

func registerRoutes(e *echo.Echo, d routeDeps) {
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(mware.RequestLogger(d.log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  d.cfg.AllowedOrigins(),
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentType},
		ExposeHeaders: []string{echo.HeaderXRequestID},
		MaxAge:        300,
	}))
	e.Use(mware.NewTokenBucket(d.rateLimit, d.rdb, d.log.Named("ratelimit")))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.pool.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Public routes
	authLimit := mware.AuthLimiter(d.rateLimit)
	e.POST("/register", d.auth.Register, authLimit)
	e.POST("/token", d.auth.Token, authLimit)

	e.GET("/usuarios/buscar", d.users.Search)
	e.GET("/usuarios/:id", d.users.GetPublicProfile)
	e.GET("/pedidos", d.market.ListPedidos)
	e.GET("/pedidos/:id", d.market.GetPedido)
	e.GET("/ratings/usuario/:id", d.market.ListRatings)
	e.GET("/ratings/promedio/:id", d.market.RatingAverage)

	// Route-level middleware keeps unknown paths on the default 404 handler.
	cache := mware.NewRedisCache(d.cache, d.rdb, d.log.Named("cache"))
	e.GET("/servicios", d.market.ListServicios, cache)
	e.GET("/profesionales-destacados", d.market.FeaturedProfessionals, cache)
	e.GET("/categorias", d.market.ListCategorias, cache)
	e.GET("/categorias/simple", d.market.ListCategoriasSimple, cache)
	e.GET("/recent-requests", d.market.RecentRequests, cache)
	e.GET("/ubicaciones", d.users.ListUbicaciones, cache)
	e.GET("/ubicaciones/:id", d.users.GetUbicacion, cache)

	e.GET("/ws", d.ws.Serve)

	// Protected routes
	authed := mware.JWTAuth(d.authSvc, d.cfg.RequestTimeout)

	e.GET("/users/me", d.auth.Me, authed)
	e.PUT("/users/me", d.users.UpdateProfile, authed)
	e.GET("/users/me/servicios", d.market.ListMyServicios, authed)
	e.GET("/users/me/pedidos", d.market.ListMyPedidos, authed)

	e.POST("/servicios", d.market.CreateServicio, authed, mware.RequireRoles(domain.RoleProveedor))

	e.POST("/pedidos", d.market.CreatePedido, authed)
	e.POST("/pedidos/:id/aceptar", d.market.AcceptPedido, authed)
	e.POST("/pedidos/:id/completar", d.market.CompletePedido, authed)
	e.DELETE("/pedidos/:id", d.market.DeletePedido, authed)

	e.GET("/notificaciones_servicios", d.market.ListOffers, authed)
	e.POST("/notificaciones_servicios", d.market.CreateOffer, authed)
	e.DELETE("/notificaciones_servicios/:id", d.market.DeleteOffer, authed)
	e.POST("/notificaciones_servicios/:id/aceptar", d.market.AcceptOffer, authed)
	e.POST("/notificaciones_servicios/:id/rechazar", d.market.RejectOffer, authed)

	e.GET("/notificaciones_pedidos", d.market.ListFeed, authed)
	e.POST("/notificaciones_pedidos", d.market.CreateFeed, authed)
	e.DELETE("/notificaciones_pedidos/:id", d.market.DeleteFeed, authed)

	e.GET("/notificaciones_respuestas", d.market.ListRespuestas, authed)
	e.POST("/notificaciones_respuestas/aceptado", d.market.Respond(domain.RespuestaAceptado), authed)
	e.POST("/notificaciones_respuestas/rechazado", d.market.Respond(domain.RespuestaRechazado), authed)
	e.POST("/notificaciones_respuestas/contraoferta", d.market.Respond(domain.RespuestaContraoferta), authed)
	e.POST("/notificaciones_respuestas/:id/contraoferta", d.market.CounterRespuesta, authed)
	e.POST("/notificaciones_respuestas/:id/aceptar_contraoferta", d.market.AcceptCounterOffer, authed)
	e.PUT("/notificaciones_respuestas/:id/visto", d.market.MarkRespuestaSeen, authed)
	e.DELETE("/notificaciones_respuestas/:id", d.market.DeleteRespuesta, authed)

	e.POST("/ubicaciones", d.users.CreateUbicacion, authed)
	e.PUT("/ubicaciones/:id", d.users.UpdateUbicacion, authed)

	e.POST("/ratings", d.market.UpsertRating, authed)
	e.GET("/ratings/mi-rating/:id", d.market.MyRating, authed)
}
