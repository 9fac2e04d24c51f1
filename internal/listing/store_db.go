package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	txTimeout    = 5 * time.Second

	pgForeignKeyCode = "23503"
)

const productColumns = `id, name, description, category, date_posted, seller_id, sold`

// PostgresStore expects the schema in deploy/schema.sql. Ties on date_posted
// are broken by insertion sequence, matching MemStore.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) Find(ctx context.Context, f Filter) ([]Product, error) {
	limit := sql.NullInt64{Int64: int64(f.Limit), Valid: f.Limit > 0}

	var out []Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE ($1::text = '' OR strpos(lower(name), lower($1::text)) > 0
			                     OR strpos(lower(description), lower($1::text)) > 0)
			  AND ($2::text = '' OR category = $2::text)
			ORDER BY date_posted DESC, created_seq ASC
			OFFSET $3
			LIMIT $4
		`, f.Search, string(f.Category), max(f.Offset, 0), limit)
		if err != nil {
			return err
		}
		out, err = scanProducts(rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Product, bool, error) {
	var p Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return scanProduct(s.db.QueryRowContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE id = $1
		`, id), &p)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, true, nil
}

func (s *PostgresStore) User(ctx context.Context, id string) (User, bool, error) {
	var u User
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, display_name
			FROM listing_users
			WHERE id = $1
		`, id).Scan(&u.ID, &u.Name)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, true, nil
}

func (s *PostgresStore) Create(ctx context.Context, seller User, p Product) error {
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := upsertUser(ctx, tx, seller); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, name, description, category, date_posted, seller_id, sold)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, p.ID, p.Name, p.Description, string(p.Category), p.DatePosted, p.SellerID, p.Sold)
		return err
	})
	if err != nil {
		return fmt.Errorf("create product %s: %w", p.ID, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string, guard func(Product) error) (Product, error) {
	var p Product
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		err := scanProduct(tx.QueryRowContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE id = $1
			FOR UPDATE
		`, id), &p)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if guard != nil {
			if err := guard(p); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM saved_products WHERE product_id = $1`, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *PostgresStore) Save(ctx context.Context, u User, productID string) (bool, error) {
	var created bool
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `
			SELECT 1 FROM products WHERE id = $1 FOR SHARE
		`, productID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := upsertUser(ctx, tx, u); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO saved_products (user_id, product_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, product_id) DO NOTHING
		`, u.ID, productID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		created = n > 0
		return err
	})
	if isForeignKeyViolation(err) {
		return false, ErrNotFound
	}
	return created, err
}

func (s *PostgresStore) Unsave(ctx context.Context, userID, productID string) (bool, error) {
	var removed bool
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			DELETE FROM saved_products
			WHERE user_id = $1 AND product_id = $2
		`, userID, productID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		removed = n > 0
		return err
	})
	if err != nil {
		return false, fmt.Errorf("unsave %s/%s: %w", userID, productID, err)
	}
	return removed, nil
}

func (s *PostgresStore) IsSaved(ctx context.Context, userID, productID string) (bool, error) {
	var ok bool
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM saved_products
				WHERE user_id = $1 AND product_id = $2
			)
		`, userID, productID).Scan(&ok)
	})
	if err != nil {
		return false, fmt.Errorf("is saved %s/%s: %w", userID, productID, err)
	}
	return ok, nil
}

func (s *PostgresStore) SavedBy(ctx context.Context, userID string) ([]Product, error) {
	var out []Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT p.id, p.name, p.description, p.category, p.date_posted, p.seller_id, p.sold
			FROM saved_products sp
			JOIN products p ON p.id = sp.product_id
			WHERE sp.user_id = $1
			ORDER BY p.date_posted DESC, p.created_seq ASC
		`, userID)
		if err != nil {
			return err
		}
		out, err = scanProducts(rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("saved by %s: %w", userID, err)
	}
	return out, nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return withTimeout(ctx, txTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if err := fn(ctx, tx); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func upsertUser(ctx context.Context, tx *sql.Tx, u User) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO listing_users (id, display_name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name
	`, u.ID, u.Name)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, p *Product) error {
	var category string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &category, &p.DatePosted, &p.SellerID, &p.Sold); err != nil {
		return err
	}
	p.Category = Category(category)
	p.DatePosted = dateOf(p.DatePosted)
	return nil
}

func scanProducts(rows *sql.Rows) ([]Product, error) {
	defer rows.Close()

	out := make([]Product, 0, PageSize)
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyCode
}
