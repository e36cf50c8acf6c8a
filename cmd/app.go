package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alicomputer/retail-pos/internal"
	"github.com/alicomputer/retail-pos/internal/audit"
	"github.com/alicomputer/retail-pos/internal/auth"
	"github.com/alicomputer/retail-pos/internal/core/events"
	"github.com/alicomputer/retail-pos/internal/identity"
	identityPostgres "github.com/alicomputer/retail-pos/internal/identity/postgres"
	"github.com/alicomputer/retail-pos/internal/store"
	storePostgres "github.com/alicomputer/retail-pos/internal/store/postgres"
	storeRedis "github.com/alicomputer/retail-pos/internal/store/redis"
	"github.com/alicomputer/retail-pos/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Dependencies holds everything built from the config. Close releases the connections.
type Dependencies struct {
	Config    *internal.Config
	Logger    *slog.Logger
	DB        *sqlx.DB
	Gorm      *gorm.DB
	Store     store.Store
	Directory identity.Directory
	Table     *auth.CapabilityTable
	Bus       *events.EventBus
	Recorder  *audit.Recorder
	Authority *auth.Authority

	closers []func() error
}

func (d *Dependencies) Close() {
	if d.Bus != nil {
		d.Bus.Wait()
	}
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.Error("close dependency", "error", err)
		}
	}
}

func initLogger(cfg *internal.Config) *slog.Logger {
	logger.Init(cfg.Env,
		logger.WithLevel(cfg.Observability.Logging.Level),
		logger.WithFormat(cfg.Observability.Logging.Format),
	)
	return logger.LoggerWrapper()
}

func initializeDependencies(ctx context.Context, cfg *internal.Config) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: initLogger(cfg),
	}

	if cfg.Database.Source != "" {
		db, err := initDB(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		deps.DB = db
		deps.closers = append(deps.closers, db.Close)

		gdb, err := initGorm(cfg.Database, db)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to initialize gorm: %w", err)
		}
		deps.Gorm = gdb
	}

	st, err := initStore(ctx, cfg, deps)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Store = st

	deps.Directory, err = initDirectory(cfg, deps.Gorm)
	if err != nil {
		deps.Close()
		return nil, err
	}

	verifier, err := initVerifier(cfg.Security)
	if err != nil {
		deps.Close()
		return nil, err
	}

	deps.Table, err = initTable(cfg.Roles)
	if err != nil {
		deps.Close()
		return nil, err
	}

	codec, err := initCodec(cfg.Security)
	if err != nil {
		deps.Close()
		return nil, err
	}

	deps.Bus = events.NewEventBus(deps.Logger)
	if deps.DB != nil {
		deps.Recorder = audit.NewRecorder(deps.DB, deps.Logger)
		if cfg.Database.Driver == "sqlite" {
			if err := deps.Recorder.EnsureSchema(ctx); err != nil {
				deps.Close()
				return nil, err
			}
		}
		deps.Recorder.Subscribe(deps.Bus)
	}

	deps.Authority = auth.NewAuthority(deps.Directory, verifier, deps.Table, deps.Store,
		auth.WithCodec(codec),
		auth.WithSessionKey(cfg.Store.SessionKey),
		auth.WithPublisher(deps.Bus),
		auth.WithLogger(deps.Logger),
	)

	return deps, nil
}

// initDB opens the database/sql pool shared by sqlx and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	driver := cfg.DriverName()

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	if driver == "sqlite3" {
		dbConn.SetMaxOpenConns(1)
	}

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func initGorm(cfg internal.DatabaseConfig, db *sqlx.DB) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if cfg.DriverName() == "sqlite3" {
		dialector = sqlite.Dialector{Conn: db.DB}
	} else {
		dialector = postgres.New(postgres.Config{Conn: db.DB})
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

func initStore(ctx context.Context, cfg *internal.Config, deps *Dependencies) (store.Store, error) {
	switch cfg.Store.Backend {
	case internal.StoreBackendRedis:
		client, err := storeRedis.NewClient(ctx, cfg.Store.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.closers = append(deps.closers, client.Close)
		return storeRedis.New(client, cfg.Store.RedisPrefix, cfg.Store.TTL), nil
	case internal.StoreBackendDatabase:
		if deps.Gorm == nil {
			return nil, fmt.Errorf("store backend %q needs a database", cfg.Store.Backend)
		}
		return storePostgres.NewKVStore(deps.Gorm), nil
	default:
		return store.NewMemory(), nil
	}
}

func initDirectory(cfg *internal.Config, gdb *gorm.DB) (identity.Directory, error) {
	if cfg.Directory == internal.DirectoryDatabase {
		if gdb == nil {
			return nil, fmt.Errorf("directory %q needs a database", cfg.Directory)
		}
		return identityPostgres.NewIdentityRepository(gdb), nil
	}
	return identity.DefaultDemoDirectory(), nil
}

func initVerifier(cfg internal.SecurityConfig) (auth.CredentialVerifier, error) {
	if cfg.DemoSecretHash != "" {
		v, err := auth.NewHashedSecret(cfg.DemoSecretHash)
		if err != nil {
			return nil, fmt.Errorf("demo_secret_hash: %w", err)
		}
		return v, nil
	}
	return auth.NewStaticSecret(cfg.DemoSecret), nil
}

func initTable(roles map[string][]string) (*auth.CapabilityTable, error) {
	if len(roles) == 0 {
		return auth.DefaultCapabilityTable(), nil
	}
	grants, err := auth.ParseGrants(roles)
	if err != nil {
		return nil, fmt.Errorf("roles: %w", err)
	}
	table, err := auth.NewCapabilityTable(grants)
	if err != nil {
		return nil, fmt.Errorf("roles: %w", err)
	}
	return table, nil
}

func initCodec(cfg internal.SecurityConfig) (auth.IdentityCodec, error) {
	switch cfg.Codec {
	case internal.CodecSigned:
		return auth.NewSignedCodec(cfg.SigningSecret, cfg.TokenTTL), nil
	case internal.CodecJSON, "":
		return auth.JSONCodec{}, nil
	}
	return nil, fmt.Errorf("unknown session codec %q", cfg.Codec)
}
