package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"pos/internal/catalog"
	"pos/internal/config"
	"pos/internal/handler"
	"pos/internal/infra/db"
	"pos/internal/infra/kafka"
	"pos/internal/infra/logger"
	"pos/internal/infra/metrics"
	infraRepo "pos/internal/infra/repository"
	"pos/internal/server"
	"pos/internal/usecase"
	"pos/internal/validator"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server stopped", err)
		os.Exit(1)
	}
}

func run() error {
	//.envは任意
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	customerRepo := infraRepo.NewCustomerGormRepository(gormDB)
	returnRepo := infraRepo.NewReturnGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	m := metrics.New()
	clock := usecase.SystemClock{}

	//商品変更の通知先
	notifier := catalog.NewNotifier(cfg.StoreTimeout)
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Error("notifier close failed", err)
		}
	}()
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		notifier.AddSink(kafka.NewCatalogPublisher(brokers, cfg.KafkaCatalogTopic))
		logger.Info("kafka catalog sink enabled", "topic", cfg.KafkaCatalogTopic)
	}

	cache := catalog.NewSnapshotCache(productRepo, cfg.StoreTimeout)
	if err := cache.Refresh(ctx); err != nil {
		return err
	}
	notifier.Subscribe(cache.OnEvent)
	notifier.Subscribe(func(ev catalog.Event) { m.ObserveCatalogEvent(ev.Reason) })
	go cache.Run(ctx)

	//Usecase生成
	opts := usecase.CheckoutOptions{StoreTimeout: cfg.StoreTimeout, CASAttempts: cfg.CheckoutCASAttempts}
	checkoutUC := usecase.NewCheckoutUsecase(txm, inventoryRepo, notifier, m, clock, opts)
	inventoryUC := usecase.NewInventoryUsecase(txm, notifier, m, clock, opts)
	productUC := usecase.NewProductUsecase(productRepo, txm, notifier, clock)
	cartUC := usecase.NewCartUsecase(cache, checkoutUC)
	authUC := usecase.NewAuthUsecase(
		cfg,
		userRepo,
		validator.NewAuthValidator(userRepo),
		usecase.NewBcryptPasswordHasher(12),
		usecase.NewBcryptPasswordVerifier(),
		clock,
	)
	if err := authUC.SeedDefaultUsers(ctx); err != nil {
		return err
	}

	//Handler生成
	h := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC, inventoryUC, cfg.Location),
		AdminUser:    handler.NewAdminUserHandler(cfg, userRepo, authUC, usecase.NewRoleUsecase(txm)),
		Cart:         handler.NewCartHandler(cartUC),
		Sale:         handler.NewSaleHandler(checkoutUC, cfg.Location),
		Customer:     handler.NewCustomerHandler(usecase.NewCustomerUsecase(customerRepo, clock)),
		Report:       handler.NewReportHandler(usecase.NewSummaryUsecase(txm), usecase.NewReturnUsecase(returnRepo), cfg.Location),
	}

	//Server起動
	e := server.New(cfg, userRepo, m, h)
	return server.Start(ctx, e, cfg.Addr())
}
