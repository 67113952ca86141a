package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/you/library-lending/pkg/config"
	"github.com/you/library-lending/pkg/db"
	"github.com/you/library-lending/pkg/obs"
	"github.com/you/library-lending/services/user-service/internal/repository"
	"github.com/you/library-lending/services/user-service/internal/service"
	httpx "github.com/you/library-lending/services/user-service/internal/transport/http"
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	shutdown := obs.InitTracer("user-service")
	defer func() { _ = shutdown(context.Background()) }()

	gdb := db.Open(cfg.PGUserDSN)
	repo := repository.NewUserRepo(gdb)
	if err := repo.Migrate(); err != nil {
		log.Fatal(err)
	}

	svc := service.NewUserSvc(repo, time.Duration(cfg.JWTExpireMin)*time.Minute)

	r := gin.Default()
	httpx.NewServer(svc).Register(r)

	log.Println("user-service on", cfg.UserHTTPAddr)
	if err := r.Run(cfg.UserHTTPAddr); err != nil {
		log.Fatal(err)
	}
}
