package server

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"marketplace-backend/internal/auth"
	"marketplace-backend/internal/handler"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/model"
	"marketplace-backend/internal/repository"
	"marketplace-backend/internal/service"
)

type Server struct {
	echo *echo.Echo

	authHandler     *handler.AuthHandler
	cartHandler     *handler.CartHandler
	checkoutHandler *handler.CheckoutHandler
	bankHandler     *handler.BankHandler
	catalogHandler  *handler.CatalogHandler

	requireAuth     echo.MiddlewareFunc
	requireVendor   echo.MiddlewareFunc
	requireAdmin    echo.MiddlewareFunc
	requireCustomer echo.MiddlewareFunc
}

func NewServer(
	accounts service.AccountService,
	carts service.CartService,
	checkout service.CheckoutService,
	banks service.BankService,
	catalog service.CatalogService,
	issuer *auth.Issuer,
	blacklist *auth.Blacklist,
	users repository.UserRepository,
	logger *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status))
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		echo:            e,
		authHandler:     handler.NewAuthHandler(accounts),
		cartHandler:     handler.NewCartHandler(carts),
		checkoutHandler: handler.NewCheckoutHandler(checkout),
		bankHandler:     handler.NewBankHandler(banks),
		catalogHandler:  handler.NewCatalogHandler(catalog),
		requireAuth:     middleware.Auth(issuer, blacklist),
		requireVendor:   middleware.RequireRole(users, model.RoleVendor),
		requireAdmin:    middleware.RequireRole(users, model.RoleAdmin),
		requireCustomer: middleware.RequireRole(users, model.RoleCustomer),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- auth --------
	authGroup := api.Group("/auth")
	authGroup.POST("/register/customer", s.authHandler.RegisterCustomer)
	authGroup.POST("/register/vendor", s.authHandler.RegisterVendor)
	authGroup.POST("/login", s.authHandler.Login)
	authGroup.POST("/logout", s.authHandler.Logout, s.requireAuth)
	authGroup.POST("/refresh", s.authHandler.Refresh)
	authGroup.POST("/reset-password", s.authHandler.RequestPasswordReset)
	authGroup.POST("/reset-password/confirm", s.authHandler.ConfirmPasswordReset)
	authGroup.POST("/set-password", s.authHandler.SetPassword)
	authGroup.POST("/change-password", s.authHandler.ChangePassword, s.requireAuth)

	// -------- catalog --------
	api.GET("/categories", s.catalogHandler.ListCategories)
	api.GET("/products/:id", s.catalogHandler.GetProduct)

	adminGroup := api.Group("/admin", s.requireAuth, s.requireAdmin)
	adminGroup.POST("/categories", s.catalogHandler.CreateCategory)
	adminGroup.PUT("/categories/:id", s.catalogHandler.RenameCategory)
	adminGroup.DELETE("/categories/:id", s.catalogHandler.DeactivateCategory)

	vendorGroup := api.Group("/vendor", s.requireAuth, s.requireVendor)
	vendorGroup.POST("/products", s.catalogHandler.CreateProduct)
	vendorGroup.PUT("/products/:id", s.catalogHandler.UpdateProduct)
	vendorGroup.GET("/products", s.catalogHandler.ListVendorProducts)
	vendorGroup.POST("/bank-account", s.bankHandler.SubmitAccount)
	vendorGroup.POST("/bank-account/confirm", s.bankHandler.ConfirmAccount)
	vendorGroup.GET("/bank-account", s.bankHandler.GetAccount)

	// -------- cart / checkout --------
	cartGroup := api.Group("/cart", s.requireAuth, s.requireCustomer)
	cartGroup.POST("/items", s.cartHandler.AddItems)
	cartGroup.PUT("/items", s.cartHandler.UpdateItems)
	cartGroup.DELETE("/items", s.cartHandler.RemoveItems)

	checkoutGroup := api.Group("/checkout", s.requireAuth, s.requireCustomer)
	checkoutGroup.POST("", s.checkoutHandler.Initialize)
	checkoutGroup.GET("/verify/:reference", s.checkoutHandler.Verify)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
