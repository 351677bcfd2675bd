package db

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"resto-be/internal/config"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "localhost",
		DBUser:     "test_user",
		DBPassword: "test_password",
		DBName:     "test_db",
		DBPort:     "5432",
	}

	expected := "host=localhost user=test_user password=test_password dbname=test_db port=5432 sslmode=disable"
	assert.Equal(t, expected, buildDSN(cfg))
}

func TestNewDatabase_InvalidDriver(t *testing.T) {
	cfg := &config.Config{}
	// "invalid_driver_name" is not registered, so sql.Open fails.
	database, err := newDatabaseWithDriver(cfg, "invalid_driver_name")

	assert.Error(t, err)
	assert.Nil(t, database)
	assert.Contains(t, err.Error(), "failed to connect to DB")
}

func TestNewDatabase_PingFailure(t *testing.T) {
	cfg := &config.Config{DBHost: "localhost"}
	database, err := newDatabaseWithDriver(cfg, "mock_driver_failing")

	assert.Error(t, err)
	assert.Nil(t, database)
	assert.Contains(t, err.Error(), "failed to ping DB")
}

func TestInitDB_Failure(t *testing.T) {
	// Runs the test binary as a subprocess to observe log.Fatalf.
	if os.Getenv("BE_CRASHER") == "1" {
		cfg := &config.Config{
			DBHost: "invalid_host",
			DBPort: "1",
		}
		InitDB(cfg)
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestInitDB_Failure")
	cmd.Env = append(os.Environ(), "BE_CRASHER=1")
	err := cmd.Run()

	if e, ok := err.(*exec.ExitError); ok && !e.Success() {
		return
	}
	t.Fatalf("process ran with err %v, want exit status 1", err)
}

func TestUniqueViolation(t *testing.T) {
	t.Run("UniqueViolation", func(t *testing.T) {
		err := fmt.Errorf("insert order: %w", &pq.Error{Code: "23505", Constraint: "orders_order_no_key"})

		constraint, ok := UniqueViolation(err)
		assert.True(t, ok)
		assert.Equal(t, "orders_order_no_key", constraint)
	})

	t.Run("OtherPgError", func(t *testing.T) {
		_, ok := UniqueViolation(&pq.Error{Code: "23503"})
		assert.False(t, ok)
	})

	t.Run("PlainError", func(t *testing.T) {
		_, ok := UniqueViolation(errors.New("boom"))
		assert.False(t, ok)
	})
}

// --- Mock drivers ---
// They let sql.Open and Ping run without a real database.

type mockDriver struct {
	failPing bool
}

func (m *mockDriver) Open(name string) (driver.Conn, error) {
	if m.failPing {
		return nil, errors.New("connection refused")
	}
	return &mockConn{}, nil
}

type mockConn struct{}

func (c *mockConn) Prepare(query string) (driver.Stmt, error) { return &mockStmt{}, nil }
func (c *mockConn) Close() error                              { return nil }
func (c *mockConn) Begin() (driver.Tx, error)                 { return nil, nil }

type mockStmt struct{}

func (s *mockStmt) Close() error                                    { return nil }
func (s *mockStmt) NumInput() int                                   { return 0 }
func (s *mockStmt) Exec(args []driver.Value) (driver.Result, error) { return nil, nil }
func (s *mockStmt) Query(args []driver.Value) (driver.Rows, error)  { return nil, nil }

func init() {
	sql.Register("mock_driver_success", &mockDriver{})
	sql.Register("mock_driver_failing", &mockDriver{failPing: true})
}

func TestNewDatabase_Success(t *testing.T) {
	cfg := &config.Config{DBHost: "localhost"}
	database, err := newDatabaseWithDriver(cfg, "mock_driver_success")
	assert.NoError(t, err)
	assert.NotNil(t, database)
}
