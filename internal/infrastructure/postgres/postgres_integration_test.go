package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/domain/repository"
	"github.com/jhoicas/rebate-api/internal/infrastructure/postgres"
	"github.com/jhoicas/rebate-api/migrations"
	"github.com/jhoicas/rebate-api/pkg/config"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con PostgreSQL omitida en modo -short")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminar contenedor: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{
		DatabaseURL: fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port()),
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	ran, err := postgres.Migrate(ctx, pool, migrations.FS, "up")
	require.NoError(t, err)
	require.NotEmpty(t, ran)

	// Segunda ejecución: nada pendiente.
	ran, err = postgres.Migrate(ctx, pool, migrations.FS, "up")
	require.NoError(t, err)
	require.Empty(t, ran)
	return pool
}

func newUser(t *testing.T, repos repository.Repos, role string) *entity.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	u := &entity.User{
		ID: uuid.New().String(), Email: uuid.New().String() + "@x.co", PasswordHash: "x",
		Name: "Usuario", Role: role, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repos.Users.Create(context.Background(), u))
	return u
}

func newOrder(customerID string, createdBy *string, orderDate time.Time, status string) *entity.Order {
	now := time.Now().UTC()
	return &entity.Order{
		ID: uuid.New().String(), CustomerID: customerID, CreatedBy: createdBy,
		OrderNumber: "ORD-" + uuid.New().String()[:12], OrderDate: orderDate,
		TotalAmount: decimal.NewFromInt(100), RebatePercentage: decimal.NewFromInt(5), RebateAmount: decimal.NewFromInt(5),
		CustomerStatus: status, CreatedAt: now, UpdatedAt: now,
	}
}

func TestPostgres(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repos := postgres.NewRepos(pool)
	tx := postgres.NewTxRunner(pool)

	t.Run("usuarios", func(t *testing.T) {
		u := newUser(t, repos, entity.RoleUser)
		dup := *u
		dup.ID = uuid.New().String()
		assert.ErrorIs(t, repos.Users.Create(ctx, &dup), domain.ErrEmailAlreadyExists)

		got, err := repos.Users.GetByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, u.ID, got.ID)

		missing, err := repos.Users.GetByID(ctx, uuid.New().String())
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("un contrato vivo por cliente", func(t *testing.T) {
		cust := newUser(t, repos, entity.RoleUser)
		now := time.Now().UTC()
		c := &entity.Contract{
			ID: uuid.New().String(), CustomerID: cust.ID, ContractNumber: "CTR-" + uuid.New().String()[:12],
			StartDate: now, EndDate: now.AddDate(1, 0, 0), RebatePercentage: decimal.NewFromInt(7),
			Status: entity.ContractPending, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, repos.Contracts.Create(ctx, c))

		second := *c
		second.ID = uuid.New().String()
		second.ContractNumber = "CTR-" + uuid.New().String()[:12]
		assert.ErrorIs(t, repos.Contracts.Create(ctx, &second), domain.ErrConflict)

		second.Status = entity.ContractRejected
		require.NoError(t, repos.Contracts.Create(ctx, &second))

		live, err := repos.Contracts.GetLiveByCustomer(ctx, cust.ID)
		require.NoError(t, err)
		require.NotNil(t, live)
		assert.Equal(t, c.ID, live.ID)
		assert.True(t, decimal.NewFromInt(7).Equal(live.RebatePercentage))
	})

	t.Run("auto-bloqueo condicional", func(t *testing.T) {
		cust := newUser(t, repos, entity.RoleUser)
		now := time.Now().UTC()
		old := newOrder(cust.ID, nil, now.AddDate(0, 0, -5), entity.OrderStatusPending)
		fresh := newOrder(cust.ID, nil, now, entity.OrderStatusPending)
		unlocked := newOrder(cust.ID, nil, now.AddDate(0, 0, -5), entity.OrderStatusPending)
		unlocked.ManuallyUnlocked = true
		confirmed := newOrder(cust.ID, nil, now.AddDate(0, 0, -5), entity.OrderStatusConfirmed)
		for _, o := range []*entity.Order{old, fresh, unlocked, confirmed} {
			require.NoError(t, repos.Orders.Create(ctx, o))
		}

		cutoff := now.AddDate(0, 0, -3)
		n, err := repos.Orders.LockExpired(ctx, cutoff, now, fresh.ID)
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = repos.Orders.LockExpired(ctx, cutoff, now, "")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(1))

		got, err := repos.Orders.GetByID(ctx, old.ID)
		require.NoError(t, err)
		assert.True(t, got.IsLocked)
		assert.NotNil(t, got.LockedDate)

		for _, id := range []string{fresh.ID, unlocked.ID, confirmed.ID} {
			got, err := repos.Orders.GetByID(ctx, id)
			require.NoError(t, err)
			assert.False(t, got.IsLocked, id)
		}

		n, err = repos.Orders.LockExpired(ctx, cutoff, now, old.ID)
		require.NoError(t, err)
		assert.Zero(t, n, "ya bloqueado")
	})

	t.Run("listado de staff y líneas", func(t *testing.T) {
		cust := newUser(t, repos, entity.RoleUser)
		staff := newUser(t, repos, entity.RoleStaff)
		otherStaff := newUser(t, repos, entity.RoleStaff)
		now := time.Now().UTC()

		mine := newOrder(cust.ID, &staff.ID, now, entity.OrderStatusPending)
		theirs := newOrder(cust.ID, &otherStaff.ID, now, entity.OrderStatusPending)
		disputed := newOrder(cust.ID, &otherStaff.ID, now, entity.OrderStatusDisputed)
		for _, o := range []*entity.Order{mine, theirs, disputed} {
			require.NoError(t, repos.Orders.Create(ctx, o))
		}
		require.NoError(t, repos.Orders.CreateItem(ctx, &entity.OrderItem{
			ID: uuid.New().String(), OrderID: mine.ID, ProductName: "Caja", Quantity: 2,
			UnitPrice: decimal.NewFromInt(50), TotalPrice: decimal.NewFromInt(100),
		}))

		list, total, err := repos.Orders.List(ctx, repository.OrderFilter{
			CustomerID: cust.ID, StaffID: staff.ID, SortBy: "order_number", Limit: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		ids := []string{list[0].ID, list[1].ID}
		assert.ElementsMatch(t, []string{mine.ID, disputed.ID}, ids)

		items, err := repos.Orders.ItemsByOrderIDs(ctx, []string{mine.ID, theirs.ID})
		require.NoError(t, err)
		assert.Len(t, items[mine.ID], 1)
		assert.Empty(t, items[theirs.ID])

		count, err := repos.Orders.CountByCustomer(ctx, cust.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		require.NoError(t, repos.Orders.Delete(ctx, mine.ID))
		items, err = repos.Orders.ItemsByOrderIDs(ctx, []string{mine.ID})
		require.NoError(t, err)
		assert.Empty(t, items[mine.ID], "las líneas caen en cascada")
	})

	t.Run("borrar contrato deja pedidos sin contrato", func(t *testing.T) {
		cust := newUser(t, repos, entity.RoleUser)
		now := time.Now().UTC()
		c := &entity.Contract{
			ID: uuid.New().String(), CustomerID: cust.ID, ContractNumber: "CTR-" + uuid.New().String()[:12],
			StartDate: now, EndDate: now.AddDate(1, 0, 0), RebatePercentage: decimal.NewFromInt(3),
			Status: entity.ContractActive, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, repos.Contracts.Create(ctx, c))
		o := newOrder(cust.ID, nil, now, entity.OrderStatusPending)
		o.ContractID = &c.ID
		require.NoError(t, repos.Orders.Create(ctx, o))

		require.NoError(t, repos.Contracts.Delete(ctx, c.ID))
		got, err := repos.Orders.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ContractID)
	})

	t.Run("montos máximos sin desbordar", func(t *testing.T) {
		cust := newUser(t, repos, entity.RoleUser)
		o := newOrder(cust.ID, nil, time.Now().UTC(), entity.OrderStatusPending)
		o.TotalAmount = decimal.RequireFromString("20000000000000.00")
		o.RebateAmount = decimal.RequireFromString("20000000000000.00")
		o.RebatePercentage = decimal.NewFromInt(100)
		require.NoError(t, repos.Orders.Create(ctx, o))
		require.NoError(t, repos.Orders.CreateItem(ctx, &entity.OrderItem{
			ID: uuid.New().String(), OrderID: o.ID, ProductName: "Maquinaria", Quantity: 10000,
			UnitPrice: decimal.NewFromInt(20_000_000), TotalPrice: decimal.NewFromInt(200_000_000_000),
		}))

		got, err := repos.Orders.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.True(t, o.TotalAmount.Equal(got.TotalAmount), got.TotalAmount.String())
		items, err := repos.Orders.GetItems(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.True(t, decimal.NewFromInt(200_000_000_000).Equal(items[0].TotalPrice))
	})

	t.Run("códigos de verificación atómicos", func(t *testing.T) {
		now := time.Now().UTC()
		vc := &entity.VerificationCode{
			ID: uuid.New().String(), Destination: uuid.New().String() + "@x.co", Purpose: entity.PurposeRegister,
			CodeHash: "x", ExpiresAt: now.Add(time.Minute), CreatedAt: now,
		}
		require.NoError(t, repos.Verifications.Create(ctx, vc))

		n, err := repos.Verifications.IncrementAttempts(ctx, vc.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		n, err = repos.Verifications.IncrementAttempts(ctx, vc.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		ok, err := repos.Verifications.Consume(ctx, vc.ID, now, 2)
		require.NoError(t, err)
		assert.False(t, ok, "intentos agotados")

		ok, err = repos.Verifications.Consume(ctx, vc.ID, now, 5)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = repos.Verifications.Consume(ctx, vc.ID, now, 5)
		require.NoError(t, err)
		assert.False(t, ok, "ya consumido")

		_, err = repos.Verifications.IncrementAttempts(ctx, uuid.New().String())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("settings y rollback de tx", func(t *testing.T) {
		st, err := repos.Settings.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, st)

		boom := errors.New("boom")
		err = tx.Run(ctx, func(r repository.Repos) error {
			if err := r.Settings.Upsert(ctx, &entity.Settings{AutoLockDays: 9, DefaultRebatePercentage: decimal.NewFromInt(2), UpdatedAt: time.Now()}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		st, err = repos.Settings.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, st, "rollback")

		require.NoError(t, tx.Run(ctx, func(r repository.Repos) error {
			return r.Settings.Upsert(ctx, &entity.Settings{AutoLockDays: 4, DefaultRebatePercentage: decimal.RequireFromString("6.5"), UpdatedAt: time.Now()})
		}))
		st, err = repos.Settings.Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, st)
		assert.Equal(t, 4, st.AutoLockDays)
		assert.True(t, decimal.RequireFromString("6.5").Equal(st.DefaultRebatePercentage))
	})
}
