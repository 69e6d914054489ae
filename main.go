package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"marketapi/internal/config"
	"marketapi/internal/database"
	"marketapi/internal/email"
	"marketapi/internal/handlers"
	"marketapi/internal/middleware"
	"marketapi/internal/models"
	"marketapi/internal/payment"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Println("⚠️ user index warning:", err)
	}
	if err := database.EnsureProductIndexes(db); err != nil {
		log.Println("⚠️ product index warning:", err)
	}
	if err := database.EnsureReviewIndexes(db); err != nil {
		log.Println("⚠️ review index warning:", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Println("⚠️ order index warning:", err)
	}

	stripeAPI := payment.NewStripeAPI(config.AppEnv.StripeSecretKey)
	orchestrator := payment.NewOrchestrator(stripeAPI, config.AppEnv.ClientAddress)

	mailer := email.NewMailer(
		config.AppEnv.SMTPHost,
		config.AppEnv.SMTPPort,
		config.AppEnv.SMTPUsername,
		config.AppEnv.SMTPPassword,
		config.AppEnv.MailFrom,
		config.AppEnv.ClientAddress,
	)

	secret := config.AppEnv.JWTSecret
	accessTTL := config.AppEnv.AccessTokenTTL
	refreshTTL := config.AppEnv.RefreshTokenTTL

	anyRole := middleware.AuthGuard(secret)
	optional := middleware.OptionalAuth(secret)
	adminOnly := middleware.AuthGuard(secret, models.RoleAdmin)
	buyer := middleware.AuthGuard(secret, models.RoleAdmin, models.RoleUser)
	merchant := middleware.AuthGuard(secret, models.RoleAdmin, models.RoleSeller)
	fulfillment := middleware.AuthGuard(secret, models.RoleAdmin, models.RoleSeller, models.RoleCourier)

	r := gin.Default()

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.Register(db, mailer))
		auth.POST("/verify-email", handlers.VerifyEmail(db))
		auth.POST("/login", handlers.Login(db, secret, accessTTL, refreshTTL))
		auth.POST("/refresh", handlers.Refresh(db, secret, accessTTL, refreshTTL))
		auth.POST("/logout", handlers.Logout(db))
		auth.POST("/forgot-password", handlers.ForgotPassword(db, mailer))
		auth.POST("/reset-password", handlers.ResetPassword(db))
	}

	products := api.Group("/products")
	{
		products.GET("", optional, handlers.GetAllProducts(db))
		products.GET("/:id", handlers.GetSingleProduct(db))
		products.POST("", merchant, handlers.CreateProduct(db))
		products.PATCH("/:id", merchant, handlers.UpdateProduct(db))
		products.DELETE("/:id", merchant, handlers.DeleteProduct(db))
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("", handlers.GetAllReviews(db))
		reviews.GET("/mine", buyer, handlers.GetMyReviews(db))
		reviews.GET("/:id", handlers.GetSingleReview(db))
		reviews.POST("", buyer, handlers.CreateReview(db))
		reviews.PATCH("/:id", buyer, handlers.UpdateReview(db))
		reviews.DELETE("/:id", buyer, handlers.DeleteReview(db))
	}

	orders := api.Group("/orders")
	{
		orders.POST("", buyer, handlers.CreateOrder(db, orchestrator))
		orders.GET("", buyer, handlers.GetAllOrders(db))
		orders.GET("/single-order", anyRole, handlers.GetAllSingleOrders(db))
		orders.GET("/single-order/:id", anyRole, handlers.GetSingleOrder(db))
		orders.PATCH("/single-order/:id", fulfillment, handlers.UpdateSingleOrder(db, orchestrator))
		orders.GET("/:id", buyer, handlers.GetOrder(db))
	}

	cart := api.Group("/cart")
	cart.Use(buyer)
	{
		cart.GET("", handlers.GetCart(db))
		cart.POST("", handlers.AddCartItem(db))
		cart.DELETE("/:productId", handlers.RemoveCartItem(db))
	}

	users := api.Group("/users")
	{
		users.GET("", adminOnly, handlers.GetAllUsers(db))
		users.GET("/:id", anyRole, handlers.GetSingleUser(db))
		users.PATCH("/:id", anyRole, handlers.UpdateUser(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
