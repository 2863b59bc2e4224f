package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"customer-insights-engine/internal/config"
	"customer-insights-engine/internal/dataset"
)

// Store loads the customer graph from Postgres. It implements dataset.Source,
// so the Loader treats it exactly like the file-backed source.
type Store struct {
	pool *pgxpool.Pool
	name string
}

func New(ctx context.Context, cfg config.Config) (*Store, error) {
	dsn := cfg.DSN()
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parsing postgres DSN")
	}
	poolCfg.MaxConns = int32(cfg.Postgres.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Postgres.MaxIdleConns)
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating postgres pool")
	}
	name := fmt.Sprintf("postgres:%s/%s", cfg.Postgres.Host, cfg.Postgres.DBName)
	return &Store{pool: pool, name: name}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Name() string { return s.name }

// Load materializes the full customer graph in one joined query. Rows arrive
// grouped by customer then order (the ORDER BY), so the tree is rebuilt by
// watching the ids change; the snapshot keeps the database's customer order.
func (s *Store) Load(ctx context.Context) ([]dataset.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.name, c.email,
		       o.id, to_char(o.order_date, 'YYYY-MM-DD'),
		       i.product_id, i.name, i.price, i.quantity
		FROM customers c
		LEFT JOIN orders o ON o.customer_id = c.id
		LEFT JOIN order_items i ON i.order_id = o.id
		ORDER BY c.id, o.id, i.id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "querying customers")
	}
	defer rows.Close()

	var customers []dataset.Customer
	for rows.Next() {
		var (
			custID            int
			custName, email   string
			orderID, quantity sql.NullInt64
			orderDate, pname  sql.NullString
			productID         sql.NullInt64
			price             sql.NullFloat64
		)
		if err := rows.Scan(&custID, &custName, &email,
			&orderID, &orderDate,
			&productID, &pname, &price, &quantity); err != nil {
			return nil, errors.Wrap(err, "scanning customer row")
		}

		if len(customers) == 0 || customers[len(customers)-1].ID != custID {
			customers = append(customers, dataset.Customer{
				ID:     custID,
				Name:   custName,
				Email:  email,
				Orders: []dataset.Order{},
			})
		}
		c := &customers[len(customers)-1]

		if !orderID.Valid {
			continue // customer without orders
		}
		if len(c.Orders) == 0 || c.Orders[len(c.Orders)-1].ID != int(orderID.Int64) {
			c.Orders = append(c.Orders, dataset.Order{
				ID:       int(orderID.Int64),
				Date:     orderDate.String,
				Products: []dataset.Product{},
			})
		}
		o := &c.Orders[len(c.Orders)-1]

		if !productID.Valid {
			continue // order without line items
		}
		o.Products = append(o.Products, dataset.Product{
			ID:       int(productID.Int64),
			Name:     pname.String,
			Price:    price.Float64,
			Quantity: int(quantity.Int64),
		})
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "reading customer rows")
	}

	return customers, nil
}

// PgxPool exposes the pool for the LISTEN/NOTIFY refresher.
func (s *Store) PgxPool() *pgxpool.Pool {
	if s.pool == nil {
		panic(errors.New("pgx pool is nil"))
	}
	return s.pool
}
