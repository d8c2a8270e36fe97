package store

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/abgdnv/inventory/internal/domain"
	perrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "INVENTORY_SKIP_INTEGRATION_TESTS"

// PgStoreSuite runs the ProductStore contract against a real PostgreSQL instance.
type PgStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       *PgStore
	logger      *slog.Logger
	ctx         context.Context
}

func (s *PgStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("inventory_db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")

	for i := 0; i < 10; i++ {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	require.NoError(s.T(), Migrate(connStr), "Failed to apply migrations")
	// a second run must be a no-op
	require.NoError(s.T(), Migrate(connStr), "Repeated migration should not fail")

	s.store = NewPgStore(s.dbPool)
}

func (s *PgStoreSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

// SetupTest empties the products table before each test.
func (s *PgStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE products")
	require.NoError(s.T(), err, "Failed to truncate products table")
}

func TestPgStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PgStoreSuite))
}

// addProduct allocates an ID and stores a product with the given barcode.
func (s *PgStoreSuite) addProduct(name, price, barcode string) *domain.Product {
	s.T().Helper()
	id, err := s.store.NextID(s.ctx)
	require.NoError(s.T(), err)
	now := time.Now().UTC().Truncate(time.Microsecond)
	added, err := s.store.Add(s.ctx, domain.Product{
		ID:        id,
		Name:      name,
		Price:     price,
		Quantity:  3,
		Barcode:   barcode,
		Category:  "Tools",
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(s.T(), err, "addProduct helper failed")
	return added
}

func (s *PgStoreSuite) TestAddAndGet() {
	// given
	added := s.addProduct("Hammer", "9.990", "H-1")

	// when
	found, err := s.store.GetByID(s.ctx, added.ID)

	// then
	require.NoError(s.T(), err)
	require.Equal(s.T(), *added, *found)
	require.Equal(s.T(), "9.990", found.Price, "NUMERIC must keep the scale it was given")
	require.Equal(s.T(), time.UTC, found.CreatedAt.Location())
}

func (s *PgStoreSuite) TestGetByID_NotFound() {
	_, err := s.store.GetByID(s.ctx, 424242)
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
}

func (s *PgStoreSuite) TestNextID_Concurrent() {
	const workers = 16
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		seen = make(map[int64]struct{}, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.store.NextID(s.ctx)
			s.NoError(err)
			mu.Lock()
			seen[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Len(s.T(), seen, workers, "every NextID call must return a distinct ID")
}

func (s *PgStoreSuite) TestListAll_OrderedByID() {
	// given
	first := s.addProduct("A", "1", "")
	second := s.addProduct("B", "2", "")

	// when
	list, err := s.store.ListAll(s.ctx)

	// then
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 2)
	require.Equal(s.T(), first.ID, list[0].ID)
	require.Equal(s.T(), second.ID, list[1].ID)
}

func (s *PgStoreSuite) TestListAll_Empty() {
	list, err := s.store.ListAll(s.ctx)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), list)
	require.Empty(s.T(), list)
}

func (s *PgStoreSuite) TestBarcodeUniqueness() {
	testCases := []struct {
		name        string
		first       string
		second      string
		expectedErr error
	}{
		{name: "Same barcode rejected", first: "X-1", second: "X-1", expectedErr: perrors.ErrDuplicateBarcode},
		{name: "Barcodes are case sensitive", first: "X-1", second: "x-1"},
		{name: "Empty barcodes never collide", first: "", second: ""},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			// given
			s.addProduct("First", "1", tc.first)
			id, err := s.store.NextID(s.ctx)
			require.NoError(s.T(), err)

			// when
			_, err = s.store.Add(s.ctx, domain.Product{ID: id, Name: "Second", Price: "1", Barcode: tc.second})

			// then
			if tc.expectedErr != nil {
				require.ErrorIs(s.T(), err, tc.expectedErr)
				return
			}
			require.NoError(s.T(), err)
		})
	}
}

func (s *PgStoreSuite) TestBarcodeExists() {
	// given
	p := s.addProduct("Saw", "5", "S-1")

	// when
	taken, err := s.store.BarcodeExists(s.ctx, "S-1", nil)
	require.NoError(s.T(), err)
	excluded, err := s.store.BarcodeExists(s.ctx, "S-1", &p.ID)
	require.NoError(s.T(), err)
	free, err := s.store.BarcodeExists(s.ctx, "S-2", nil)
	require.NoError(s.T(), err)

	// then
	require.True(s.T(), taken)
	require.False(s.T(), excluded)
	require.False(s.T(), free)
}

func (s *PgStoreSuite) TestUpdate() {
	// given
	p := s.addProduct("Drill", "20", "D-1")
	other := s.addProduct("Level", "7", "L-1")

	s.Run("Successful update", func() {
		changed := *p
		changed.Name = "Cordless Drill"
		changed.Price = "25.50"
		updated, err := s.store.Update(s.ctx, p.ID, changed)
		require.NoError(s.T(), err)
		require.Equal(s.T(), "Cordless Drill", updated.Name)
		require.Equal(s.T(), "25.50", updated.Price)
	})
	s.Run("Barcode taken by another product", func() {
		changed := *p
		changed.Barcode = other.Barcode
		_, err := s.store.Update(s.ctx, p.ID, changed)
		require.ErrorIs(s.T(), err, perrors.ErrDuplicateBarcode)
	})
	s.Run("Unknown product", func() {
		_, err := s.store.Update(s.ctx, 999999, *p)
		require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
	})
}

func (s *PgStoreSuite) TestDelete() {
	// given
	p := s.addProduct("Wrench", "4", "W-1")

	// when
	err := s.store.Delete(s.ctx, p.ID)

	// then
	require.NoError(s.T(), err)
	_, err = s.store.GetByID(s.ctx, p.ID)
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
	require.ErrorIs(s.T(), s.store.Delete(s.ctx, p.ID), perrors.ErrProductNotFound)
}
