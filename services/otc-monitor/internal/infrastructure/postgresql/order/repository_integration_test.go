//go:build integration

package order

import (
	"context"
	"testing"
	"time"

	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	"github.com/muhammadchandra19/otc-monitor/pkg/postgresql"
	"github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/infrastructure/postgresql/migrations"
	"github.com/stretchr/testify/suite"
)

type RepositoryTestSuite struct {
	suite.Suite
	helper *postgresql.TestHelper
	repo   OrderRepository
	ctx    context.Context
}

// SetupSuite runs once before all tests
func (suite *RepositoryTestSuite) SetupSuite() {
	suite.ctx = context.Background()

	config := postgresql.DefaultTestContainerConfig()
	config.Database = "otc_test_db"
	config.Migrations = migrations.FS

	suite.helper = postgresql.NewTestHelper(suite.T(), config)
	suite.repo = NewRepository(suite.helper.Client, logger.NewNopLogger())
}

// SetupTest runs before each test
func (suite *RepositoryTestSuite) SetupTest() {
	suite.helper.TruncateTables("orders")
}

func (suite *RepositoryTestSuite) seed(orders ...*Order) {
	for _, o := range orders {
		suite.Require().NoError(suite.repo.Store(suite.ctx, o))
	}
}

func (suite *RepositoryTestSuite) TestList_OpenOrdersNewestFirst() {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	suite.seed(
		&Order{ID: "o-1", UserID: "u-1", Symbol: "btc-usdt", Side: SideBuy, Price: "50000.12345678", Quantity: "0.5",
			Status: StatusNew, Type: TypeLimit, Meta: map[string]any{"broker": "otc"}, CreatedAt: base},
		&Order{ID: "o-2", UserID: "u-1", Symbol: "eth-btc", Side: SideSell, Price: "0.05", Quantity: "3",
			Status: StatusPartiallyFilled, Meta: map[string]any{"broker": "otc"}, CreatedAt: base.Add(time.Minute)},
		&Order{ID: "o-3", UserID: "u-2", Symbol: "btc-usdt", Side: SideBuy, Price: "49000", Quantity: "1",
			Status: StatusFilled, Type: TypeLimit, Meta: map[string]any{"broker": "otc"}, CreatedAt: base.Add(2 * time.Minute)},
		&Order{ID: "o-4", UserID: "u-3", Symbol: "sol-usdt", Side: SideBuy, Price: "150", Quantity: "10",
			Status: StatusCanceled, CreatedAt: base.Add(3 * time.Minute)},
	)

	page, err := suite.repo.List(suite.ctx, Filter{
		Statuses:      []Status{StatusNew, StatusPartiallyFilled},
		SortField:     SortByCreatedAt,
		SortDirection: "DESC",
	})
	suite.Require().NoError(err)
	suite.Require().Len(page.Data, 2)

	suite.Equal("o-2", page.Data[0].ID)
	suite.Equal("", page.Data[0].Type)
	suite.Equal("o-1", page.Data[1].ID)
	suite.Equal("otc", page.Data[1].Broker())
	suite.Equal(SideBuy, page.Data[1].Side)
	suite.Equal("50000.123456780000000000", page.Data[1].Price)
	suite.True(base.Equal(page.Data[1].CreatedAt))
}

func (suite *RepositoryTestSuite) TestList_LimitOffset() {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		suite.seed(&Order{ID: id, UserID: "u", Symbol: "btc-usdt", Side: SideBuy, Price: "1", Quantity: "1",
			Status: StatusNew, CreatedAt: base.Add(time.Duration(i) * time.Second)})
	}

	page, err := suite.repo.List(suite.ctx, Filter{
		Statuses:      []Status{StatusNew},
		SortField:     SortByCreatedAt,
		SortDirection: "asc",
		Limit:         1,
		Offset:        1,
	})
	suite.Require().NoError(err)
	suite.Require().Len(page.Data, 1)
	suite.Equal("b", page.Data[0].ID)
}

func (suite *RepositoryTestSuite) TestStore_DuplicateID() {
	o := &Order{ID: "dup", UserID: "u", Symbol: "btc-usdt", Side: SideBuy, Price: "1", Quantity: "1",
		Status: StatusNew, CreatedAt: time.Now()}
	suite.seed(o)

	suite.Error(suite.repo.Store(suite.ctx, o))
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
