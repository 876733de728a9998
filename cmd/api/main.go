package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	_ "github.com/jhoicas/rebate-api/docs"
	"github.com/jhoicas/rebate-api/internal/application/audit"
	"github.com/jhoicas/rebate-api/internal/application/auth"
	"github.com/jhoicas/rebate-api/internal/application/contracts"
	"github.com/jhoicas/rebate-api/internal/application/events"
	"github.com/jhoicas/rebate-api/internal/application/orders"
	"github.com/jhoicas/rebate-api/internal/application/ports"
	"github.com/jhoicas/rebate-api/internal/application/settings"
	"github.com/jhoicas/rebate-api/internal/application/usecase"
	"github.com/jhoicas/rebate-api/internal/application/verification"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/infrastructure/kafka"
	"github.com/jhoicas/rebate-api/internal/infrastructure/notify"
	infrapdf "github.com/jhoicas/rebate-api/internal/infrastructure/pdf"
	"github.com/jhoicas/rebate-api/internal/infrastructure/postgres"
	"github.com/jhoicas/rebate-api/internal/infrastructure/redisx"
	"github.com/jhoicas/rebate-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/rebate-api/internal/interfaces/http"
	"github.com/jhoicas/rebate-api/pkg/config"
	"github.com/jhoicas/rebate-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	repos := postgres.NewRepos(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Caché de configuración: Redis si está configurado.
	var settingsCache settings.Cache = settings.NopCache{}
	if cfg.Redis.URL != "" {
		rdb, err := redisx.New(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		settingsCache = redisx.NewSettingsCache(rdb, cfg.Redis.SettingsTTL)
		log.Info().Msg("caché de configuración en Redis")
	}

	// Eventos: Kafka si hay brokers; si no, solo se registran en el log.
	var publisher ports.EventPublisher = kafka.NewLogPublisher(log)
	if len(cfg.Kafka.Brokers) > 0 {
		kp := kafka.NewPublisher(cfg.Kafka.Brokers, kafka.Topics{
			events.StreamOrders:    cfg.Kafka.OrdersTopic,
			events.StreamContracts: cfg.Kafka.ContractsTopic,
		}, log)
		defer func() {
			if err := kp.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar publisher Kafka")
			}
		}()
		publisher = kp
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("eventos publicados en Kafka")
	}

	fileStorage, err := storage.NewLocal(cfg.Storage.UploadDir, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento de documentos")
	}

	settingsSvc := settings.NewService(repos.Settings, txRunner, settingsCache, entity.Settings{
		AutoLockDays:            cfg.Rebate.AutoLockDays,
		DefaultRebatePercentage: cfg.Rebate.DefaultRebatePercentage,
	}, log)

	authUC := auth.NewAuthUseCase(repos.Users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	orderUC := orders.NewUseCase(repos, txRunner, settingsSvc, publisher, infrapdf.NewMarotoPDFGenerator(cfg.App.Name), log)
	contractUC := contracts.NewUseCase(repos, txRunner, fileStorage, publisher)

	if cfg.Rebate.SweepInterval > 0 {
		go orders.NewSweeper(orderUC, cfg.Rebate.SweepInterval, log).Run(ctx)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    int(contracts.MaxDocumentBytes) + 1<<20,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Rebate API",
	}))

	app.Static(cfg.Storage.BaseURL, cfg.Storage.UploadDir)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		UserUC:         usecase.NewUserUseCase(repos.Users, txRunner),
		RoleRequestUC:  usecase.NewRoleRequestUseCase(repos.RoleRequests, txRunner),
		VerificationUC: verification.NewUseCase(repos.Verifications, notify.NewLogSender(log)),
		OrderUC:        orderUC,
		ContractUC:     contractUC,
		Settings:       settingsSvc,
		AuditUC:        audit.NewUseCase(repos.Audit),
		JWTSecret:      cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
