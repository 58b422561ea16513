package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "peerlend-backend/internal/adapter/http"
	"peerlend-backend/internal/adapter/middleware"
	"peerlend-backend/internal/adapter/repository/mysql"
	"peerlend-backend/internal/config"
	"peerlend-backend/internal/infrastructure/cache"
	"peerlend-backend/internal/infrastructure/db"
	"peerlend-backend/internal/infrastructure/eventbus"
	disbursementUC "peerlend-backend/internal/usecase/disbursement"
	offerUC "peerlend-backend/internal/usecase/offer"
	repaymentUC "peerlend-backend/internal/usecase/repayment"
	requestUC "peerlend-backend/internal/usecase/request"
	"peerlend-backend/pkg/clock"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	requests := mysql.NewRequestRepository(gdb)
	offers := mysql.NewOfferRepository(gdb)
	loans := mysql.NewLoanRepository(gdb)
	txm := mysql.NewGormUoW(gdb)
	bus := eventbus.NewRedisBus(rdb)
	clk := clock.UTC{}

	requestSvc := requestUC.NewUsecase(requests, loans, txm, bus, clk)
	disbursementSvc := disbursementUC.NewUsecase(txm, bus, clk)
	offerSvc := offerUC.NewUsecase(offers, requests, txm, disbursementSvc, bus, clk)
	repaymentSvc := repaymentUC.NewUsecase(loans, txm, clk)

	h := httpadp.NewHandler()
	rh := httpadp.NewRequestHandler(requestSvc)
	oh := httpadp.NewOfferHandler(offerSvc)
	lh := httpadp.NewLoanHandler(disbursementSvc, repaymentSvc)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())

	auth := middleware.RequireAuth([]byte(cfg.JWTSecret))
	idemp := middleware.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)
	httpadp.RegisterRoutes(e, auth, idemp, h, rh, oh, lh)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
