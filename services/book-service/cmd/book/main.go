package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/you/library-lending/pkg/db"
	"github.com/you/library-lending/pkg/obs"
	"github.com/you/library-lending/services/book-service/internal/repository"
	"github.com/you/library-lending/services/book-service/internal/service"
	httpx "github.com/you/library-lending/services/book-service/internal/transport/http"
)

type BookCfg struct {
	PGBookDSN    string `envconfig:"PG_BOOK_DSN" required:"true"`
	BookHTTPAddr string `envconfig:"BOOK_HTTP_ADDR" default:":8082"`
}

func loadCfg() (BookCfg, error) {
	var c BookCfg
	err := envconfig.Process("", &c)
	return c, err
}

func main() {
	_ = godotenv.Load(".env")
	cfg, err := loadCfg()
	if err != nil {
		log.Fatal(err)
	}

	shutdown := obs.InitTracer("book-service")
	defer func() { _ = shutdown(context.Background()) }()

	gdb := db.Open(cfg.PGBookDSN)
	repo := repository.NewBookRepo(gdb)
	if err := repo.Migrate(); err != nil {
		log.Fatal(err)
	}

	svc := service.NewBookSvc(repo)

	r := gin.Default()
	httpx.NewServer(svc).Register(r)

	log.Println("book-service on", cfg.BookHTTPAddr)
	if err := r.Run(cfg.BookHTTPAddr); err != nil {
		log.Fatal(err)
	}
}
