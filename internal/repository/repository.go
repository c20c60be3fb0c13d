package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/fjod/storefront/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	ErrCartNotFound  = errors.New("cart not found")
	ErrLineNotFound  = errors.New("cart line not found")
	ErrOrderNotFound = errors.New("order not found")
	// ErrQuantityLimit means a merge would push a line past domain.MaxLineQuantity.
	ErrQuantityLimit = errors.New("cart line quantity limit exceeded")
)

//go:embed migrations
var migrationsFS embed.FS

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the SQL implementation
type CartRepository interface {
	EnsureCart(ctx context.Context, sessionToken string) (*domain.Cart, error)
	GetCart(ctx context.Context, sessionToken string) (*domain.Cart, error)
	GetLine(ctx context.Context, sessionToken string, lineID int64) (*domain.CartLine, error)
	AddLine(ctx context.Context, sessionToken string, line domain.CartLine) (*domain.CartLine, error)
	UpdateLine(ctx context.Context, sessionToken string, lineID int64, quantity int, price *decimal.Decimal) (*domain.CartLine, error)
	RemoveLine(ctx context.Context, sessionToken string, lineID int64) (*domain.Cart, error)
}

// BuildOrderFunc turns the locked cart into the order to persist. It runs
// inside the checkout transaction; returning an error aborts it.
type BuildOrderFunc func(cart *domain.Cart) (*domain.Order, error)

type OrderRepository interface {
	PlaceOrder(ctx context.Context, sessionToken string, build BuildOrderFunc) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

type Credentials struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	// Path is the SQLite database file, or ":memory:".
	Path string
}

type Repository struct {
	db     *sql.DB
	driver string
}

func NewRepository(cred *Credentials) (*Repository, error) {
	driver := cred.Driver
	if driver == "" {
		driver = DriverPostgres
	}

	var dsn string
	switch driver {
	case DriverPostgres:
		dsn = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cred.Host,
			cred.Port,
			cred.User,
			cred.Password,
			cred.DBName)
	case DriverSQLite:
		dsn = cred.Path
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	if driver == DriverSQLite {
		// every :memory: connection is its own database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(100)
		db.SetMaxIdleConns(10)
	}

	return &Repository{db: db, driver: driver}, nil
}

func (r *Repository) RunMigrations() error {
	var (
		dbDriver database.Driver
		err      error
	)
	switch r.driver {
	case DriverPostgres:
		dbDriver, err = postgres.WithInstance(r.db, &postgres.Config{})
	case DriverSQLite:
		dbDriver, err = sqlite.WithInstance(r.db, &sqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations/"+r.driver)
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("could not create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, r.driver, dbDriver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	// m.Close would close r.db as well
	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// DB exposes the pool for components sharing the database, like the SQL catalog.
func (r *Repository) DB() *sql.DB {
	return r.db
}

func (r *Repository) Driver() string {
	return r.driver
}

func (r *Repository) Close() error {
	return r.db.Close()
}
