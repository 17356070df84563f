package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vantadev/readiq/internal/cache"
	"github.com/vantadev/readiq/internal/config"
	"github.com/vantadev/readiq/internal/email"
	httpx "github.com/vantadev/readiq/internal/http"
	authctl "github.com/vantadev/readiq/internal/http/controllers/auth"
	healthctl "github.com/vantadev/readiq/internal/http/controllers/health"
	authsvc "github.com/vantadev/readiq/internal/http/services/auth"
	"github.com/vantadev/readiq/internal/oauth"
	"github.com/vantadev/readiq/internal/oauth/google"
	"github.com/vantadev/readiq/internal/oauth/microsoft"
	"github.com/vantadev/readiq/internal/observability/logger"
	"github.com/vantadev/readiq/internal/rate"
	"github.com/vantadev/readiq/internal/security/password"
	"github.com/vantadev/readiq/internal/store/core"
	memstore "github.com/vantadev/readiq/internal/store/memory"
	pgstore "github.com/vantadev/readiq/internal/store/pg"
	"github.com/vantadev/readiq/internal/token"

	"github.com/jackc/pgx/v5/pgxpool"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "readiq",
		Short:         "Backend de autenticación y sesiones de ReadIQ",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newGenpassCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// ─── serve ───

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "ruta al YAML de configuración")
	return cmd
}

func runServe(configPath string) error {
	// .env es opcional; las variables del sistema mandan igual
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("cargar config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "readiq",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Cache (registro de refresh tokens, lockout, índice de resets)
	cacheClient, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Driver,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer func() { _ = cacheClient.Close() }()

	// User store
	var users core.UserRepository
	var pgPool func() *pgxpool.Pool
	switch cfg.Storage.Driver {
	case "postgres":
		store, err := pgstore.New(ctx, cfg.Storage.DSN, cfg.Storage.Postgres.MaxConns)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer store.Close()
		users = store
		pgPool = store.Pool
	default:
		users = memstore.New()
		log.Warn("user store en memoria: solo para desarrollo")
	}

	// Servicio de tokens
	tokens, err := token.New(token.Config{
		Issuer:        cfg.JWT.Issuer,
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     config.Duration(cfg.JWT.AccessTTL, 15*time.Minute),
		RefreshTTL:    config.Duration(cfg.JWT.RefreshTTL, 7*24*time.Hour),
		Env:           cfg.App.Env,
		CookieDomain:  cfg.JWT.CookieDomain,
	}, cacheClient)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	// Password policy + params
	policy := password.Policy{
		MinLength:     cfg.Password.MinLength,
		RequireUpper:  cfg.Password.RequireUpper,
		RequireLower:  cfg.Password.RequireLower,
		RequireDigit:  cfg.Password.RequireDigit,
		RequireSymbol: cfg.Password.RequireSymbol,
	}
	params := password.Params{
		Memory:      uint32(cfg.Password.Argon.MemoryKB),
		Time:        uint32(cfg.Password.Argon.Time),
		Parallelism: uint8(cfg.Password.Argon.Parallelism),
		KeyLen:      32,
	}

	// Lockout de login
	lockout := rate.NewLockoutPolicy(cacheClient)
	lockout.MaxFailures = cfg.Lockout.MaxFailures
	lockout.Window = config.Duration(cfg.Lockout.Window, 15*time.Minute)
	lockout.LockDuration = config.Duration(cfg.Lockout.LockDuration, 15*time.Minute)

	// Rate limiters por endpoint
	var loginLimiter, resetLimiter rate.Limiter
	if cfg.Rate.Enabled {
		loginLimiter = newLimiter(cacheClient, "rl:login:", cfg.Rate.Login.Limit, config.Duration(cfg.Rate.Login.Window, time.Minute))
		resetLimiter = newLimiter(cacheClient, "rl:reset:", cfg.Rate.Reset.Limit, config.Duration(cfg.Rate.Reset.Window, 10*time.Minute))
	}
	whitelist := make(map[string]struct{}, len(cfg.Rate.Whitelist))
	for _, ip := range cfg.Rate.Whitelist {
		whitelist[ip] = struct{}{}
	}

	// Email
	var sender email.Sender = email.NoopSender{}
	if cfg.SMTP.Host != "" {
		sender = email.FromConfig(email.SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			FromEmail: cfg.SMTP.FromEmail,
			TLSMode:   cfg.SMTP.TLSMode,
		})
	} else {
		log.Warn("SMTP sin configurar: los correos de reset se descartan")
	}

	// Providers federados
	verifiers := map[string]oauth.Verifier{}
	if id := cfg.Providers.Google.ClientID; id != "" {
		verifiers["google"] = google.New(id)
	}
	if id := cfg.Providers.Microsoft.ClientID; id != "" {
		verifiers["microsoft"] = microsoft.New(id)
	}

	// Servicios + controllers
	services := authsvc.NewServices(authsvc.Deps{
		Users:        users,
		Tokens:       tokens,
		Cache:        cacheClient,
		Sender:       sender,
		Lockout:      lockout,
		Policy:       policy,
		Params:       params,
		ResetBaseURL: cfg.Reset.BaseURL,
		ResetTTL:     config.Duration(cfg.Reset.TTL, 30*time.Minute),
	})
	controllers := authctl.NewControllers(services, tokens, verifiers)
	health := healthctl.NewController(cacheClient, users)

	metricsHandler, err := httpx.RegisterMetrics(httpx.MetricsConfig{Pool: pgPool})
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	router := httpx.NewRouter(httpx.RouterConfig{
		Auth:         controllers,
		Health:       health,
		Tokens:       tokens,
		LoginLimiter: loginLimiter,
		ResetLimiter: resetLimiter,
		LoginLimit:   cfg.Rate.Login.Limit,
		ResetLimit:   cfg.Rate.Reset.Limit,
		Whitelist:    whitelist,
		Metrics:      metricsHandler,
	})

	srv := httpx.NewServer(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newLimiter usa Redis cuando el cache lo expone; si no, ventana en memoria.
func newLimiter(c cache.Client, prefix string, max int, window time.Duration) rate.Limiter {
	if raw, ok := c.(interface{ Raw() *rdb.Client }); ok {
		return rate.NewRedisLimiter(raw.Raw(), prefix, max, window)
	}
	return rate.NewMemoryLimiter(max, window)
}

// ─── migrate ───

func newMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes del store postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("cargar config: %w", err)
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requiere storage.driver=postgres (actual: %q)", cfg.Storage.Driver)
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.Log.Level,
				ServiceName: "readiq",
				Version:     version,
			})
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := pgstore.New(ctx, cfg.Storage.DSN, cfg.Storage.Postgres.MaxConns)
			if err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			defer store.Close()

			return store.Migrate(ctx)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "ruta al YAML de configuración")
	return cmd
}

// ─── genpass ───

func newGenpassCmd() *cobra.Command {
	var length int

	cmd := &cobra.Command{
		Use:   "genpass",
		Short: "Genera una contraseña aleatoria que cumple la política",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := password.Generate(length)
			if err != nil {
				return err
			}
			fmt.Println(p)
			return nil
		},
	}
	cmd.Flags().IntVarP(&length, "length", "n", 20, "largo de la contraseña")
	return cmd
}
