package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/muhammadchandra19/otc-monitor/pkg/errors"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	"github.com/muhammadchandra19/otc-monitor/pkg/postgresql"
)

var listColumns = []string{
	"id",
	"user_id",
	"symbol",
	"side",
	"price::text",
	"quantity::text",
	"status",
	"COALESCE(type, '')",
	"meta",
	"created_at",
	"updated_at",
}

var sortColumns = map[string]string{
	SortByCreatedAt: "created_at",
	SortByUpdatedAt: "updated_at",
	SortByPrice:     "price",
	SortBySymbol:    "symbol",
}

// repository is the PostgreSQL repository for orders.
type repository struct {
	db     postgresql.PostgreSQLClient
	logger logger.Interface
}

// NewRepository creates a new repository.
func NewRepository(db postgresql.PostgreSQLClient, logger logger.Interface) OrderRepository {
	return &repository{
		db:     db,
		logger: logger,
	}
}

// Store stores an order.
func (r *repository) Store(ctx context.Context, order *Order) error {
	query := `INSERT INTO orders (id, user_id, symbol, side, price, quantity, status, type, meta, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $10)`

	meta, err := json.Marshal(order.Meta)
	if err != nil {
		return errors.TracerFromError(err)
	}
	if order.Meta == nil {
		meta = []byte("{}")
	}

	cmd, err := r.db.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.Symbol,
		order.Side,
		order.Price,
		order.Quantity,
		order.Status,
		order.Type,
		meta,
		order.CreatedAt,
	)
	if err != nil {
		return errors.TracerFromError(err)
	}

	r.logger.Debug("Inserted order", logger.NewField("commandTag", cmd.String()))

	return nil
}

// List lists orders matching the filter. A zero Limit returns every match.
func (r *repository) List(ctx context.Context, filter Filter) (*Page, error) {
	sortColumn, ok := sortColumns[filter.SortField]
	if !ok {
		if filter.SortField != "" {
			return nil, errors.NewErrorDetails(
				fmt.Sprintf("unsupported sort field %q", filter.SortField),
				string(errors.GeneralBadRequestError),
				"sort_field",
			)
		}
		sortColumn = sortColumns[SortByCreatedAt]
	}

	qb := postgresql.NewSelectBuilder().
		Select(listColumns...).
		From("orders")

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		qb = qb.Where("status = ANY(?)", statuses)
	}

	qb = qb.OrderBy(sortColumn, filter.IsDescending())

	if filter.Limit > 0 {
		qb = qb.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		qb = qb.Offset(filter.Offset)
	}

	query, args := qb.Build()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.NewErrorDetailsWithCause("Failed to list orders", errors.OrderQueryError, "list", err)
	}
	defer rows.Close()

	page := &Page{Data: []*Order{}}
	for rows.Next() {
		order := &Order{}
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Symbol,
			&order.Side,
			&order.Price,
			&order.Quantity,
			&order.Status,
			&order.Type,
			&order.Meta,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, errors.NewErrorDetailsWithCause("Failed to scan order", errors.OrderScanError, "list", err)
		}
		page.Data = append(page.Data, order)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewErrorDetailsWithCause("Failed to list orders", errors.OrderQueryError, "list", err)
	}

	return page, nil
}
