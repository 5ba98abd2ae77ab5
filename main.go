package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"

	"github.com/office/restobook/config"
	"github.com/office/restobook/live"
	"github.com/office/restobook/repository"
	"github.com/office/restobook/router"
	"github.com/office/restobook/services"
	"github.com/office/restobook/store"
	"github.com/office/restobook/store/localstore"
	"github.com/office/restobook/store/mongostore"
	"github.com/office/restobook/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	utils.InitLogger()

	cfg := config.FromEnv()

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("cannot open %s store: %v", cfg.StoreBackend, err)
	}
	defer st.Close(context.Background())
	utils.InfoLogger.Printf("using %s store backend", cfg.StoreBackend)

	repo := repository.New(st)
	hub := live.NewHub()

	aggregator := services.NewAggregator(repo)
	pump := live.NewPump(hub, repo, aggregator)
	pumpCtx, stopPump := context.WithCancel(ctx)
	defer stopPump()
	if err := pump.Start(pumpCtx); err != nil {
		utils.ErrorLogger.Fatalf("cannot start live feeds: %v", err)
	}

	r := router.SetupRouter(repo, hub)

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		return mongostore.Open(ctx, cfg.MongoURL, cfg.MongoDB)
	case config.BackendLocal:
		switch cfg.LocalDriver {
		case "mysql":
			return localstore.Open(mysql.Open(cfg.LocalDSN))
		case "sqlite", "":
			return localstore.Open(sqlite.Open(cfg.LocalDSN))
		default:
			return nil, fmt.Errorf("unknown local driver %q", cfg.LocalDriver)
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
