package main

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tripplanner/database"
	"tripplanner/handlers"
	"tripplanner/planner"
	"tripplanner/services"
)

func main() {
	// Load .env file (ignored in production where env vars are set directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using environment variables")
	}

	store := database.InitStore()
	amadeus := services.AmadeusFromEnv()
	ai := services.AIFromEnv()
	trends := services.TrendsFromEnv()

	h := handlers.New(
		services.NewTransportProviders(amadeus),
		services.NewLodgingChain(amadeus),
		ai,
		trends,
		amadeus,
		store,
		planner.ConfigFromEnv(),
	)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// The hosting platform sits behind a proxy
	r.SetTrustedProxies([]string{"0.0.0.0/0"})

	// CORS — allow configured frontend origins
	frontendURLs := os.Getenv("FRONTEND_URL")
	allowedOrigins := []string{"http://localhost:5173", "http://localhost:3000"}
	if frontendURLs != "" {
		for _, u := range strings.Split(frontendURLs, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	api.GET("/health", h.Health)

	// Optional static credential check on everything but health
	protected := api.Group("", handlers.APIKeyMiddleware(os.Getenv("API_KEY")))
	{
		protected.POST("/plan", h.Plan)
		protected.POST("/explore", h.Explore)
		protected.GET("/download/:id", h.DownloadICS)
		protected.GET("/download/:id/pdf", h.DownloadPDF)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("TripPlanner backend starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
