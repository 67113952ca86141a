package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"

	"github.com/you/library-lending/pkg/config"
	"github.com/you/library-lending/pkg/db"
	"github.com/you/library-lending/pkg/mq"
	"github.com/you/library-lending/pkg/obs"
	"github.com/you/library-lending/services/orchestrator/internal/clients"
	"github.com/you/library-lending/services/orchestrator/internal/handlers"
	"github.com/you/library-lending/services/orchestrator/internal/middlewares"
	"github.com/you/library-lending/services/orchestrator/internal/saga"
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	shutdown := obs.InitTracer("lending-orchestrator")
	defer func() { _ = shutdown(context.Background()) }()

	journal := saga.NewGormJournal(db.Open(cfg.PGSagaDSN))
	if err := journal.Migrate(); err != nil {
		log.Fatal(err)
	}

	pub, err := mq.NewPublisher(cfg.RabbitURL, cfg.LendingExchange)
	if err != nil {
		log.Fatal(err)
	}
	defer pub.Close()

	cl := clients.New(clients.Config{
		UserServiceURL:        cfg.UserServiceURL,
		BookServiceURL:        cfg.BookServiceURL,
		TransactionServiceURL: cfg.TransactionServiceURL,
		Timeout:               cfg.CallTimeout,
	})

	orc := saga.New(cl.Identity, cl.Inventory, cl.Loans, journal, pub, otel.Tracer("lending-orchestrator"))

	r := gin.Default()
	lh := handlers.NewLendingHandler(orc)
	v1 := r.Group("/v1", middlewares.JWTAuth())
	{
		v1.POST("/lending/issue", lh.Issue)
		v1.POST("/lending/return", lh.Return)
	}

	log.Println("lending-orchestrator on", cfg.LendingHTTPAddr)
	if err := r.Run(cfg.LendingHTTPAddr); err != nil {
		log.Fatal(err)
	}
}
