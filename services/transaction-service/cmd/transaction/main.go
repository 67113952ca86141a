package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/you/library-lending/pkg/db"
	"github.com/you/library-lending/pkg/obs"
	"github.com/you/library-lending/services/transaction-service/internal/repository"
	"github.com/you/library-lending/services/transaction-service/internal/service"
	httpx "github.com/you/library-lending/services/transaction-service/internal/transport/http"
)

type TransactionCfg struct {
	PGTransactionDSN    string `envconfig:"PG_TRANSACTION_DSN" required:"true"`
	TransactionHTTPAddr string `envconfig:"TRANSACTION_HTTP_ADDR" default:":8083"`
}

func loadCfg() (TransactionCfg, error) {
	var c TransactionCfg
	err := envconfig.Process("", &c)
	return c, err
}

func main() {
	_ = godotenv.Load(".env")
	cfg, err := loadCfg()
	if err != nil {
		log.Fatal(err)
	}

	shutdown := obs.InitTracer("transaction-service")
	defer func() { _ = shutdown(context.Background()) }()

	gdb := db.Open(cfg.PGTransactionDSN)
	repo := repository.NewTransactionRepo(gdb)
	if err := repo.Migrate(); err != nil {
		log.Fatal(err)
	}

	svc := service.NewTransactionSvc(repo)

	r := gin.Default()
	httpx.NewServer(svc).Register(r)

	log.Println("transaction-service on", cfg.TransactionHTTPAddr)
	if err := r.Run(cfg.TransactionHTTPAddr); err != nil {
		log.Fatal(err)
	}
}
