package main

import (
	"log"
	"os"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"sakarela/internal/config"
	"sakarela/internal/database"
	"sakarela/internal/econt"
	"sakarela/internal/handlers"
	"sakarela/internal/middleware"
	"sakarela/internal/mypos"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}
	if err := database.EnsureAdminIndexes(db); err != nil {
		log.Printf("admin index warning: %v", err)
	}

	purchaseBuilder, err := mypos.NewBuilder(config.AppEnv.MyPOS, config.AppEnv.PublicBaseURL)
	if err != nil {
		log.Fatal("payment gateway configuration: ", err)
	}

	courier := econt.NewClient(config.AppEnv.Econt, config.AppEnv.ParcelMaxKg)
	cities := econt.NewCityCache(courier, config.AppEnv.Econt.CitiesTTL)

	r := gin.Default()
	r.LoadHTMLGlob("templates/**/*")
	r.Static("/public", "./public")

	store := cookie.NewStore([]byte(config.AppEnv.SessionSecret))
	r.Use(sessions.Sessions("session", store))

	r.GET("/", handlers.Home())
	r.GET("/admin/login", handlers.AdminLoginPage)
	r.GET("/admin/products", handlers.AdminProductsPage)
	r.GET("/admin/categories", handlers.AdminCategoriesPage)
	r.GET("/admin/orders", handlers.AdminOrdersPage)

	r.POST("/admin/login", handlers.AdminLogin(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))

	shop := r.Group("/store")
	{
		shop.GET("/products", handlers.GetProducts(db))
		shop.GET("/products/:id", handlers.GetProduct(db))
		shop.GET("/categories", handlers.GetCategories(db))
		shop.GET("/brands", handlers.GetBrands(db))

		shop.GET("/cart", handlers.CartView(db))
		shop.POST("/cart/add", handlers.CartAdd(db))
		shop.POST("/cart/update", handlers.CartUpdate(db))
		shop.POST("/cart/remove", handlers.CartRemove(db))
		shop.POST("/cart/clear", handlers.CartClear(db))

		shop.POST("/shipping/quote", handlers.ShippingQuote(db, courier))
		shop.GET("/econt-cities", handlers.EcontCities(cities))

		shop.POST("/checkout", handlers.PlaceOrder(db, courier))

		shop.GET("/payment/initiate/:id", handlers.PaymentInitiate(db, purchaseBuilder, courier))
		shop.POST("/payment/notify", handlers.PaymentNotify(db, courier))
		shop.GET("/payment/notify", handlers.PaymentNotify(db, courier))
		shop.GET("/payment/result", handlers.PaymentResult(db, courier))
		shop.POST("/payment/result", handlers.PaymentResult(db, courier))
		shop.GET("/payment/cancel", handlers.PaymentCancel(db, courier))
		shop.POST("/payment/cancel", handlers.PaymentCancel(db, courier))

		shop.POST("/contact", handlers.ContactForm(config.AppEnv.SMTP))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(200, gin.H{"ok": true})
		})

		admin.GET("/products", handlers.GetAllProducts(db))
		admin.POST("/products", handlers.CreateProduct(db))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))
		admin.POST("/products/:id/image", handlers.UploadProductImage(db))

		admin.GET("/categories", handlers.GetAllCategories(db))
		admin.POST("/categories", handlers.CreateCategory(db))
		admin.PUT("/categories/:id", handlers.UpdateCategory(db))
		admin.DELETE("/categories/:id", handlers.DeleteCategory(db))

		admin.GET("/brands", handlers.GetAllBrands(db))
		admin.POST("/brands", handlers.CreateBrand(db))
		admin.DELETE("/brands/:id", handlers.DeleteBrand(db))

		admin.GET("/orders", handlers.GetOrders(db))
		admin.GET("/orders/:id", handlers.GetOrder(db))
		admin.DELETE("/orders/:id", handlers.DeleteOrder(db))
		admin.POST("/orders/:id/label", handlers.RetryOrderLabel(db, courier))
		admin.POST("/orders/:id/mark-paid", handlers.MarkOrderPaid(db, courier))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
