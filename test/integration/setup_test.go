//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/revcycle/revcycle/internal/domain/accounts"
	"github.com/revcycle/revcycle/internal/domain/claims"
	"github.com/revcycle/revcycle/internal/domain/payments"
	"github.com/revcycle/revcycle/internal/platform/audit"
	"github.com/revcycle/revcycle/internal/platform/db"
)

// testDB holds the shared database infrastructure for integration tests.
type testDB struct {
	Pool          *pgxpool.Pool
	ConnStr       string
	MigrationsDir string
}

// globalDB is the package-level test database, initialized once in TestMain.
var globalDB *testDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	connStr, cleanup, err := startPostgresContainer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup postgres container: %v\n", err)
		os.Exit(1)
	}

	migrationsDir := findMigrationsDir()

	// db.NewPool rather than pgxpool.New: the pool hook registers the
	// decimal codec every repository relies on.
	pool, err := db.NewPool(ctx, connStr, 20, 2)
	if err != nil {
		cleanup()
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}

	if _, err := db.NewMigrator(pool, migrationsDir).Up(ctx); err != nil {
		pool.Close()
		cleanup()
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	globalDB = &testDB{Pool: pool, ConnStr: connStr, MigrationsDir: migrationsDir}
	code := m.Run()
	pool.Close()
	cleanup()
	os.Exit(code)
}

// findMigrationsDir locates the migrations directory relative to this file.
func findMigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	// test/integration -> repo root
	return filepath.Join(dir, "..", "..", "migrations")
}

type testServices struct {
	manager  *db.Manager
	claims   *claims.Service
	payments *payments.Service
	accounts *accounts.Service

	claimsRepo   claims.Repository
	paymentsRepo payments.Repository
	accountsRepo accounts.Repository
}

func newTestServices() *testServices {
	log := zerolog.Nop()
	manager := db.NewManager(globalDB.Pool)
	auditLog := audit.NewLogger(log)
	retry := db.DefaultRetryOptions()

	claimsRepo := claims.NewRepoPG()
	paymentsRepo := payments.NewRepoPG()
	accountsRepo := accounts.NewRepoPG()

	return &testServices{
		manager:      manager,
		claims:       claims.NewService(manager, claimsRepo, auditLog, log, retry),
		payments:     payments.NewService(manager, paymentsRepo, claimsRepo, auditLog, log, retry),
		accounts:     accounts.NewService(manager, accountsRepo, auditLog, log, retry, 10*time.Second),
		claimsRepo:   claimsRepo,
		paymentsRepo: paymentsRepo,
		accountsRepo: accountsRepo,
	}
}

// createTestClaim inserts a claim directly on the pool and returns it.
func createTestClaim(t *testing.T, ctx context.Context, total string) *claims.Claim {
	t.Helper()
	c := &claims.Claim{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		TotalAmount: decimal.RequireFromString(total),
		PaidAmount:  decimal.Zero,
		Status:      claims.StatusOpen,
	}
	_, err := globalDB.Pool.Exec(ctx, `
		INSERT INTO claims (id, patient_id, total_amount, paid_amount, status)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.PatientID, c.TotalAmount, c.PaidAmount, c.Status)
	if err != nil {
		t.Fatalf("create test claim: %v", err)
	}
	return c
}

// createTestAccount inserts a patient account with the given bucket values.
func createTestAccount(t *testing.T, ctx context.Context, b91, b61, b31, b0 string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	a91 := decimal.RequireFromString(b91)
	a61 := decimal.RequireFromString(b61)
	a31 := decimal.RequireFromString(b31)
	a0 := decimal.RequireFromString(b0)
	total := a0.Add(a31).Add(a61).Add(a91)
	_, err := globalDB.Pool.Exec(ctx, `
		INSERT INTO patient_accounts (patient_id, total_balance, aging_0_30, aging_31_60, aging_61_90, aging_91_plus)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, total, a0, a31, a61, a91)
	if err != nil {
		t.Fatalf("create test account: %v", err)
	}
	return id
}

// fetchClaim reads a claim back outside any test transaction.
func fetchClaim(t *testing.T, ctx context.Context, id uuid.UUID) *claims.Claim {
	t.Helper()
	var c claims.Claim
	err := globalDB.Pool.QueryRow(ctx, `
		SELECT id, patient_id, total_amount, paid_amount, status, notes, created_at, updated_at
		FROM claims WHERE id = $1`, id).
		Scan(&c.ID, &c.PatientID, &c.TotalAmount, &c.PaidAmount, &c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		t.Fatalf("fetch claim: %v", err)
	}
	return &c
}

func countPayments(t *testing.T, ctx context.Context, claimID uuid.UUID) int {
	t.Helper()
	var n int
	err := globalDB.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM payments WHERE claim_id = $1 AND status = 'posted'`, claimID).Scan(&n)
	if err != nil {
		t.Fatalf("count payments: %v", err)
	}
	return n
}
