// test/helpers/helpers.go
package helpers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/boxwise-be/internal/adapters/db"
	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	level := slog.LevelError
	if testing.Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// SetupTestDB starts a PostgreSQL container and applies the embedded migrations
func SetupTestDB(t testing.TB) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_boxwise",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_boxwise",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		StatementCacheMode: "describe",
		EnableQueryLogging: testing.Verbose(),
		ConnectRetries:     1,
	}

	var database *db.Database
	err = pool.Retry(func() error {
		var err error
		database, err = db.NewDatabase(context.Background(), dbConfig, TestLogger())
		return err
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port,
			dbConfig.Database, dbConfig.SSLMode),
	}
	err = db.RunMigrationsWithRetry(context.Background(), migrationConfig, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates an in-memory Redis instance for testing
func SetupTestRedis(t testing.TB) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// SetupMockPool creates a pgxmock pool for repository unit tests. Unmet
// expectations fail the test on cleanup.
func SetupMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "Failed to create mock pool")

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})

	return mock
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "boxwise-test",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:               "localhost",
			Port:               "5432",
			User:               "test",
			Password:           "test",
			Name:               "test_boxwise",
			SSLMode:            "disable",
			MaxConnections:     10,
			MinConnections:     2,
			EnableQueryLogging: true,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			TTL:      time.Hour,
			PoolSize: 10,
		},
		AWS: config.AWSConfig{
			Region:        "us-east-1",
			S3Bucket:      "boxwise-test",
			PresignExpiry: 15 * time.Minute,
		},
		Uploads: config.UploadsConfig{
			ImportMaxSizeMB:   20,
			CompressQuality:   0.85,
			CompressFloor:     0.4,
			CompressStep:      0.1,
			CompressMaxWidth:  1920,
			CompressWorkers:   2,
			TempDir:           os.TempDir(),
			CleanupInterval:   time.Hour,
			ReportRetention:   24 * time.Hour,
			ProcessingTimeout: 5 * time.Minute,
		},
		Search: config.SearchConfig{
			BaseURL:        "http://localhost:8080",
			RequestTimeout: 5 * time.Second,
			Debounce:       10 * time.Millisecond,
			CorpusLimit:    10000,
			ListCacheTTL:   time.Minute,
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			SecureHeaders:     false,
			RequestIDHeader:   "X-Request-ID",
			RequestTimeout:    30 * time.Second,
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// CreateTestItem creates a test item
func CreateTestItem(overrides ...func(*domain.Item)) *domain.Item {
	now := time.Now().UTC().Truncate(time.Millisecond)
	item := &domain.Item{
		ID:            uuid.New(),
		Name:          "Cordless Drill",
		Description:   "18V drill with two batteries",
		AssetID:       "000-001",
		SerialNumber:  "SN-48213",
		ModelNumber:   "DCD771C2",
		Manufacturer:  "DeWalt",
		UPCCode:       "885911475808",
		Location:      &domain.Ref{ID: uuid.New(), Name: "Garage"},
		Category:      &domain.Ref{ID: uuid.New(), Name: "Tools"},
		Labels:        []domain.Ref{{ID: uuid.New(), Name: "power"}},
		Quantity:      1,
		PurchasePrice: decimal.NewFromFloat(99.00),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, override := range overrides {
		override(item)
	}

	return item
}

// CreateTestItems creates count items spread over a few locations and categories
func CreateTestItems(count int) []domain.Item {
	locations := []*domain.Ref{
		{ID: uuid.New(), Name: "Garage"},
		{ID: uuid.New(), Name: "Basement"},
		{ID: uuid.New(), Name: "Office"},
	}
	categories := []*domain.Ref{
		{ID: uuid.New(), Name: "Tools"},
		{ID: uuid.New(), Name: "Electronics"},
	}

	items := make([]domain.Item, count)
	for i := 0; i < count; i++ {
		items[i] = *CreateTestItem(func(item *domain.Item) {
			item.Name = fmt.Sprintf("Test Item %d", i+1)
			item.AssetID = fmt.Sprintf("000-%03d", i+1)
			item.SerialNumber = fmt.Sprintf("SN-%05d", i+1)
			item.Location = locations[i%len(locations)]
			item.Category = categories[i%len(categories)]
			item.Labels = []domain.Ref{}
			item.Quantity = i%4 + 1
			item.PurchasePrice = decimal.NewFromInt(int64(10 + i*5))
		})
	}

	return items
}

// TestJPEG encodes a w x h JPEG with a busy pattern that compresses poorly
func TestJPEG(t testing.TB, w, h, quality int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*31 + y*17 + (x*y)%251) % 256)
			img.Set(x, y, color.RGBA{R: v, G: 255 - v, B: uint8((x ^ y) % 256), A: 0xff})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE TABLE attachments, item_labels, items, labels, categories, locations, preferences CASCADE")
	require.NoError(t, err, "Failed to truncate tables")
}

// CreateTempFile creates a temporary file for testing
func CreateTempFile(t *testing.T, content []byte, extension string) string {
	t.Helper()

	file, err := os.CreateTemp(t.TempDir(), fmt.Sprintf("test-*%s", extension))
	require.NoError(t, err, "Failed to create temp file")

	_, err = file.Write(content)
	require.NoError(t, err, "Failed to write to temp file")
	require.NoError(t, file.Close())

	return file.Name()
}
