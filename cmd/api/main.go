package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/slicesapp/Slices_Api/internal/database"
	"github.com/slicesapp/Slices_Api/internal/ledger"
	"github.com/slicesapp/Slices_Api/internal/middleware"
	routes "github.com/slicesapp/Slices_Api/internal/server"
	"github.com/slicesapp/Slices_Api/internal/services"
	"github.com/slicesapp/Slices_Api/internal/storage"
	"github.com/slicesapp/Slices_Api/internal/wallet"
)

// buildStore arma la capa de persistencia según STORAGE_DRIVER:
// sqlite (default), file o postgres
func buildStore() (storage.Store, error) {
	switch os.Getenv("STORAGE_DRIVER") {
	case "file":
		path := os.Getenv("STORAGE_FILE")
		if path == "" {
			path = "database/slices.json"
		}
		return storage.NewFileStore(path)
	case "postgres":
		db, err := database.InitPostgres(os.Getenv("DATABASE_URL"))
		if err != nil {
			return nil, err
		}
		return storage.NewPostgresStore(db), nil
	default:
		return storage.NewSQLiteStore(database.DB), nil
	}
}

func main() {
	// Cargar variables de entorno
	if err := godotenv.Load(); err != nil {
		log.Printf("No se pudo cargar el archivo .env: %v", err)
	}

	// Crear el router de Gin
	router := gin.Default()

	// Configurar CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"http://localhost:3000"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = true
	config.ExposeHeaders = []string{"Content-Length"}
	router.Use(cors.New(config))

	// Inicializar base de datos (usuarios y, por default, el ledger)
	if err := database.InitDB(); err != nil {
		log.Fatalf("Error al inicializar la base de datos: %v", err)
	}
	defer database.DB.Close()

	// Inicializar auth
	middleware.InitAuth()

	// Armar la capa de persistencia del ledger
	store, err := buildStore()
	if err != nil {
		log.Fatalf("Error al inicializar el storage: %v", err)
	}

	// Proveedor de wallet simulado. WALLET_MODE=failure fuerza rechazos
	// para probar los caminos de error de la UI.
	provider := wallet.NewMockProvider()
	if os.Getenv("WALLET_MODE") == wallet.ModeFailure {
		provider.Mode = wallet.ModeFailure
	}

	// Crear el ledger cargando la colección persistida
	ldg, err := ledger.New(store, provider, 0)
	if err != nil {
		log.Fatalf("Error al cargar el ledger: %v", err)
	}

	// Iniciar el servicio de actualización de precios (cada 5 minutos)
	priceService := services.NewPriceService(5 * time.Minute)
	priceService.Start()
	defer priceService.Stop()

	// Hacer disponibles el ledger y los precios para los handlers
	middleware.InitLedger(ldg, priceService)

	// Configurar las rutas
	routes.RegisterRoutes(router)

	// Iniciar el servidor
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Error al iniciar el servidor: %v", err)
	}
}
