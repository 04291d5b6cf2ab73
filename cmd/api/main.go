package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"souvenir/internal/catalog"
	"souvenir/internal/database"
	"souvenir/internal/middleware"
	"souvenir/internal/modules/auth"
	"souvenir/internal/modules/notify"
	"souvenir/internal/modules/order"
	"souvenir/internal/modules/report"
	"souvenir/internal/modules/upload"
	"souvenir/internal/modules/users"
	jwtsvc "souvenir/internal/pkg/jwt"
	"souvenir/internal/repository"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is empty")
	}
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = upload.DefaultBaseDir
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	counterRepo := repository.NewCounterRepository(db)

	j := jwtsvc.New(secret, 24*time.Hour)

	uploadService := upload.NewService(uploadDir)
	hub := notify.NewHub()
	defer hub.Close()

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	orderService := order.NewService(orderRepo, counterRepo, userRepo, uploadService, hub)
	orderHandler := order.NewHandler(orderService, uploadService)

	usersService := users.NewService(userRepo)
	usersHandler := users.NewHandler(usersService)

	reportService := report.NewService(orderRepo, userRepo)
	reportHandler := report.NewHandler(reportService)

	notifyHandler := notify.NewHandler(hub)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	// Photo files are served straight off disk under the same prefix the
	// order payloads embed.
	r.Static("/uploads/orders/photos", uploadService.PhotosDir())

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)
		catalog.NewHandler().RegisterRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.Auth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			orderHandler.RegisterRoutes(protected)
			usersHandler.RegisterRoutes(protected)
			notifyHandler.RegisterRoutes(protected)

			staff := protected.Group("/")
			staff.Use(middleware.StaffOnly())
			{
				reportHandler.RegisterRoutes(staff)
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
