package rental

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"machinery-rental-backend/internal/db"
	"machinery-rental-backend/internal/model"
	"machinery-rental-backend/internal/store"
)

// mockNotifier records dispatched rental IDs.
type mockNotifier struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (m *mockNotifier) Dispatch(rentalID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, rentalID)
}

func (m *mockNotifier) dispatched() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.ids...)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:rental_svc_" + uuid.NewString() + "?mode=memory&cache=shared"
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

func seedMachinery(t *testing.T, gormDB *gorm.DB, stock int, active bool) model.Machinery {
	t.Helper()
	m := model.Machinery{
		Name:        "Excavator 320D",
		Category:    "Excavator",
		PricePerDay: decimal.RequireFromString("100.00"),
		Stock:       stock,
		IsActive:    active,
	}
	require.NoError(t, gormDB.Create(&m).Error)
	return m
}

func seedCustomer(t *testing.T, gormDB *gorm.DB) model.Customer {
	t.Helper()
	c := model.Customer{ID: uuid.New(), Name: "Constructora Andina", Email: "obras@andina.test"}
	require.NoError(t, gormDB.Create(&c).Error)
	return c
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *mockNotifier) {
	t.Helper()
	gormDB := newTestDB(t)
	notifier := &mockNotifier{}
	svc := NewService(store.NewGormStore(gormDB), notifier)
	return svc, gormDB, notifier
}

func TestRequestRentalAdmits(t *testing.T) {
	svc, gormDB, notifier := newTestService(t)
	machinery := seedMachinery(t, gormDB, 2, true)
	customer := seedCustomer(t, gormDB)

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(60 * time.Hour) // 2.5 days

	created, err := svc.RequestRental(context.Background(), Request{
		MachineryID: machinery.ID,
		CustomerID:  customer.ID,
		StartAt:     start,
		EndAt:       end,
		Notes:       "site B",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.True(t, created.IsActive)
	assert.Nil(t, created.ActualReturnAt)
	assert.True(t, created.PricePerDay.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, created.TotalAmount.Equal(decimal.RequireFromString("300.00")), "got %s", created.TotalAmount)

	var persisted model.Rental
	require.NoError(t, gormDB.First(&persisted, "id = ?", created.ID).Error)
	assert.Equal(t, machinery.ID, persisted.MachineryID)
	assert.Equal(t, customer.ID, persisted.CustomerID)

	assert.Equal(t, []uuid.UUID{created.ID}, notifier.dispatched())
}

func TestRequestRentalCapturesRateAtBooking(t *testing.T) {
	svc, gormDB, _ := newTestService(t)
	machinery := seedMachinery(t, gormDB, 1, true)
	customer := seedCustomer(t, gormDB)

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	created, err := svc.RequestRental(context.Background(), Request{
		MachineryID: machinery.ID,
		CustomerID:  customer.ID,
		StartAt:     start,
		EndAt:       start.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	// A later catalog price change must not touch the stored rental.
	require.NoError(t, gormDB.Model(&model.Machinery{}).
		Where("id = ?", machinery.ID).
		Update("price_per_day", decimal.RequireFromString("250.00")).Error)

	var persisted model.Rental
	require.NoError(t, gormDB.First(&persisted, "id = ?", created.ID).Error)
	assert.True(t, persisted.PricePerDay.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, persisted.TotalAmount.Equal(decimal.RequireFromString("100.00")))
}

func TestRequestRentalRejections(t *testing.T) {
	svc, gormDB, notifier := newTestService(t)
	machinery := seedMachinery(t, gormDB, 1, true)
	inactive := model.Machinery{Name: "Retired loader", PricePerDay: decimal.RequireFromString("80.00"), Stock: 1, IsActive: false}
	require.NoError(t, gormDB.Create(&inactive).Error)
	customer := seedCustomer(t, gormDB)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("invalid interval when end equals start", func(t *testing.T) {
		_, err := svc.RequestRental(context.Background(), Request{
			MachineryID: machinery.ID, CustomerID: customer.ID, StartAt: start, EndAt: start,
		})
		require.Error(t, err)
		assert.Equal(t, KindInvalidInterval, AsError(err).Kind())
	})

	t.Run("invalid interval when inverted", func(t *testing.T) {
		_, err := svc.RequestRental(context.Background(), Request{
			MachineryID: machinery.ID, CustomerID: customer.ID, StartAt: start, EndAt: start.Add(-time.Hour),
		})
		require.Error(t, err)
		assert.Equal(t, KindInvalidInterval, AsError(err).Kind())
	})

	t.Run("machinery not found", func(t *testing.T) {
		_, err := svc.RequestRental(context.Background(), Request{
			MachineryID: 99999, CustomerID: customer.ID, StartAt: start, EndAt: start.Add(time.Hour),
		})
		require.Error(t, err)
		assert.Equal(t, KindMachineryNotFound, AsError(err).Kind())
	})

	t.Run("machinery inactive", func(t *testing.T) {
		_, err := svc.RequestRental(context.Background(), Request{
			MachineryID: inactive.ID, CustomerID: customer.ID, StartAt: start, EndAt: start.Add(time.Hour),
		})
		require.Error(t, err)
		assert.Equal(t, KindMachineryInactive, AsError(err).Kind())
	})

	assert.Empty(t, notifier.dispatched(), "rejections must not notify")
}

func TestRequestRentalNoAvailability(t *testing.T) {
	svc, gormDB, _ := newTestService(t)
	machinery := seedMachinery(t, gormDB, 1, true)
	customer := seedCustomer(t, gormDB)

	jan := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	_, err := svc.RequestRental(context.Background(), Request{
		MachineryID: machinery.ID, CustomerID: customer.ID, StartAt: jan(1), EndAt: jan(5),
	})
	require.NoError(t, err)

	t.Run("overlapping request is rejected with the conflict count", func(t *testing.T) {
		_, err := svc.RequestRental(context.Background(), Request{
			MachineryID: machinery.ID, CustomerID: customer.ID, StartAt: jan(3), EndAt: jan(4),
		})
		require.Error(t, err)

		typed := AsError(err)
		require.NotNil(t, typed)
		assert.Equal(t, KindNoAvailability, typed.Kind())

		decision, ok := typed.Details().(Decision)
		require.True(t, ok)
		assert.Equal(t, 1, decision.Conflicts)
	})

	t.Run("request starting at the existing end is admitted", func(t *testing.T) {
		_, err := svc.RequestRental(context.Background(), Request{
			MachineryID: machinery.ID, CustomerID: customer.ID, StartAt: jan(5), EndAt: jan(6),
		})
		assert.NoError(t, err)
	})
}

func TestConcurrentAdmissionStockOne(t *testing.T) {
	svc, gormDB, notifier := newTestService(t)
	machinery := seedMachinery(t, gormDB, 1, true)
	customer := seedCustomer(t, gormDB)

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(72 * time.Hour)

	const attempts = 8
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RequestRental(context.Background(), Request{
				MachineryID: machinery.ID, CustomerID: customer.ID, StartAt: start, EndAt: end,
			})
		}(i)
	}
	wg.Wait()

	successes, rejections := 0, 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.Equal(t, KindNoAvailability, AsError(err).Kind())
		rejections++
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, rejections)

	var count int64
	require.NoError(t, gormDB.Model(&model.Rental{}).
		Where("machinery_id = ? AND is_active = ?", machinery.ID, true).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.Len(t, notifier.dispatched(), 1)
}

func TestReturnRental(t *testing.T) {
	svc, gormDB, _ := newTestService(t)
	machinery := seedMachinery(t, gormDB, 1, true)
	customer := seedCustomer(t, gormDB)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	created, err := svc.RequestRental(context.Background(), Request{
		MachineryID: machinery.ID, CustomerID: customer.ID, StartAt: start, EndAt: start.Add(96 * time.Hour),
	})
	require.NoError(t, err)

	t.Run("closes the rental and stamps the return", func(t *testing.T) {
		at := start.Add(48 * time.Hour)
		returned, err := svc.ReturnRental(context.Background(), created.ID, &at)
		require.NoError(t, err)

		assert.False(t, returned.IsActive)
		require.NotNil(t, returned.ActualReturnAt)
		assert.True(t, returned.ActualReturnAt.Equal(at))
	})

	t.Run("second return fails", func(t *testing.T) {
		_, err := svc.ReturnRental(context.Background(), created.ID, nil)
		require.Error(t, err)
		assert.Equal(t, KindAlreadyReturned, AsError(err).Kind())
	})

	t.Run("returning frees the unit for new requests", func(t *testing.T) {
		_, err := svc.RequestRental(context.Background(), Request{
			MachineryID: machinery.ID, CustomerID: customer.ID, StartAt: start, EndAt: start.Add(24 * time.Hour),
		})
		assert.NoError(t, err)
	})

	t.Run("unknown rental", func(t *testing.T) {
		_, err := svc.ReturnRental(context.Background(), uuid.New(), nil)
		require.Error(t, err)
		assert.Equal(t, KindRentalNotFound, AsError(err).Kind())
	})
}

func TestReturnRentalClampsEarlyReturn(t *testing.T) {
	svc, gormDB, _ := newTestService(t)
	machinery := seedMachinery(t, gormDB, 1, true)
	customer := seedCustomer(t, gormDB)

	start := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	created, err := svc.RequestRental(context.Background(), Request{
		MachineryID: machinery.ID, CustomerID: customer.ID, StartAt: start, EndAt: start.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	// A return instant before the rental even began is clamped to the start.
	early := start.Add(-24 * time.Hour)
	returned, err := svc.ReturnRental(context.Background(), created.ID, &early)
	require.NoError(t, err)
	require.NotNil(t, returned.ActualReturnAt)
	assert.True(t, returned.ActualReturnAt.Equal(start))
}

func TestReturnRentalDefaultsToNow(t *testing.T) {
	svc, gormDB, _ := newTestService(t)
	machinery := seedMachinery(t, gormDB, 1, true)
	customer := seedCustomer(t, gormDB)

	start := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	created, err := svc.RequestRental(context.Background(), Request{
		MachineryID: machinery.ID, CustomerID: customer.ID, StartAt: start, EndAt: start.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	frozen := start.Add(30 * time.Hour)
	svc.now = func() time.Time { return frozen }

	returned, err := svc.ReturnRental(context.Background(), created.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, returned.ActualReturnAt)
	assert.True(t, returned.ActualReturnAt.Equal(frozen))
}

func TestListActiveAndOverdue(t *testing.T) {
	svc, gormDB, _ := newTestService(t)
	machinery := seedMachinery(t, gormDB, 3, true)
	customer := seedCustomer(t, gormDB)

	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	running, err := svc.RequestRental(context.Background(), Request{
		MachineryID: machinery.ID, CustomerID: customer.ID, StartAt: base, EndAt: base.Add(10 * 24 * time.Hour),
	})
	require.NoError(t, err)

	late, err := svc.RequestRental(context.Background(), Request{
		MachineryID: machinery.ID, CustomerID: customer.ID, StartAt: base, EndAt: base.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	closed, err := svc.RequestRental(context.Background(), Request{
		MachineryID: machinery.ID, CustomerID: customer.ID, StartAt: base, EndAt: base.Add(48 * time.Hour),
	})
	require.NoError(t, err)
	_, err = svc.ReturnRental(context.Background(), closed.ID, nil)
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(3 * 24 * time.Hour) }

	listed, err := svc.ListActiveAndOverdue(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 2)

	statusByID := make(map[uuid.UUID]Status, len(listed))
	for _, entry := range listed {
		statusByID[entry.ID] = entry.Status
		assert.NotEqual(t, closed.ID, entry.ID, "returned rentals must not be listed")
	}

	assert.Equal(t, StatusActive, statusByID[running.ID])
	assert.Equal(t, StatusOverdue, statusByID[late.ID])
}

func TestCheckAvailabilityProbe(t *testing.T) {
	svc, gormDB, _ := newTestService(t)
	machinery := seedMachinery(t, gormDB, 1, true)
	customer := seedCustomer(t, gormDB)

	jan := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	created, err := svc.RequestRental(context.Background(), Request{
		MachineryID: machinery.ID, CustomerID: customer.ID, StartAt: jan(1), EndAt: jan(5),
	})
	require.NoError(t, err)

	t.Run("overlapping probe reports the conflict", func(t *testing.T) {
		decision, err := svc.CheckAvailability(context.Background(), machinery.ID, jan(2), jan(3), uuid.Nil)
		require.NoError(t, err)
		assert.False(t, decision.Admit)
		assert.Equal(t, 1, decision.Conflicts)
	})

	t.Run("excluding the rental under edit admits", func(t *testing.T) {
		decision, err := svc.CheckAvailability(context.Background(), machinery.ID, jan(2), jan(6), created.ID)
		require.NoError(t, err)
		assert.True(t, decision.Admit)
	})

	t.Run("probe does not mutate state", func(t *testing.T) {
		var count int64
		require.NoError(t, gormDB.Model(&model.Rental{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}
