// Package product provides the catalog repository. Deleting a product only marks it
// deleted: order lines keep pointing at it and stock released by a cancellation still
// lands on the row.
package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
	"github.com/MikeMC777/printshop-orders/internal/database"
)

type Query struct {
	Q        string
	Category string
	Limit    int
	Offset   int
	// ActiveOnly hides drafts as well as deleted products.
	ActiveOnly bool
}

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, error)
	Update(ctx context.Context, id string, p Patch) (*Product, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type SQLRepo struct {
	db    *sqlx.DB
	clock func() time.Time
}

func NewSQLRepo(db *sqlx.DB) *SQLRepo { return &SQLRepo{db: db, clock: time.Now} }

const productColumns = `id, name, description, price, stock, customizable, status, created_at, updated_at`

func (r *SQLRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	now := r.clock().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Categories = cleanCategories(p.Categories)

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO products (`+productColumns+`)
			VALUES (?,?,?,?,?,?,?,?,?)
		`), p.ID, p.Name, p.Description, p.Price, p.Stock, p.Customizable, p.Status, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return database.Classify("insert product", err)
		}
		return setCategories(ctx, tx, p.ID, p.Categories)
	})
}

func (r *SQLRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return getProduct(ctx, r.db, id)
}

func getProduct(ctx context.Context, q sqlx.ExtContext, id string) (*Product, error) {
	var p Product
	err := sqlx.GetContext(ctx, q, &p, q.Rebind(`
		SELECT `+productColumns+` FROM products WHERE id = ? AND status <> 'deleted'
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrProductNotFound, id)
	}
	if err != nil {
		return nil, apperr.Storage("get product", err)
	}
	cats, err := categoriesOf(ctx, q, []string{id})
	if err != nil {
		return nil, err
	}
	p.Categories = cats[id]
	return &p, nil
}

func (r *SQLRepo) List(ctx context.Context, q Query) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		where = []string{"p.status <> 'deleted'"}
		args  []any
	)
	if q.ActiveOnly {
		where = append(where, "p.status = 'active'")
	}
	if search := strings.ToLower(strings.TrimSpace(q.Q)); search != "" {
		where = append(where, "(LOWER(p.name) LIKE ? OR LOWER(p.description) LIKE ?)")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	if cat := strings.TrimSpace(q.Category); cat != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM product_categories pc JOIN categories c ON c.id = pc.category_id
			WHERE pc.product_id = p.id AND LOWER(c.name) = ?)`)
		args = append(args, strings.ToLower(cat))
	}
	args = append(args, limit, offset)

	out := []Product{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT p.id, p.name, p.description, p.price, p.stock, p.customizable, p.status, p.created_at, p.updated_at
		FROM products p
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY p.created_at DESC, p.id
		LIMIT ? OFFSET ?
	`), args...)
	if err != nil {
		return nil, apperr.Storage("list products", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}
	cats, err := categoriesOf(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Categories = cats[out[i].ID]
	}
	return out, nil
}

func (r *SQLRepo) Update(ctx context.Context, id string, p Patch) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var out *Product
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var (
			sets []string
			args []any
		)
		add := func(col string, v any) {
			sets = append(sets, col+" = ?")
			args = append(args, v)
		}
		if p.Name != nil {
			add("name", *p.Name)
		}
		if p.Description != nil {
			add("description", *p.Description)
		}
		if p.Price != nil {
			add("price", *p.Price)
		}
		if p.Stock != nil {
			add("stock", *p.Stock)
		}
		if p.Customizable != nil {
			add("customizable", *p.Customizable)
		}
		if p.Status != nil {
			add("status", *p.Status)
		}
		add("updated_at", r.clock().UTC())
		args = append(args, id)

		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = ? AND status <> 'deleted'
		`), args...)
		if err != nil {
			return database.Classify("update product", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return apperr.Storage("update product", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", apperr.ErrProductNotFound, id)
		}
		if p.Categories != nil {
			if err := setCategories(ctx, tx, id, *p.Categories); err != nil {
				return err
			}
		}
		out, err = getProduct(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete marks the product deleted. false means there was no live product with that id.
func (r *SQLRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products SET status = 'deleted', updated_at = ? WHERE id = ? AND status <> 'deleted'
	`), r.clock().UTC(), id)
	if err != nil {
		return false, apperr.Storage("delete product", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Storage("delete product", err)
	}
	return n > 0, nil
}

// setCategories replaces the category links of a product, creating categories by name.
// Names are stored lowercased so "Mugs" and "mugs" are one category.
func setCategories(ctx context.Context, tx *sqlx.Tx, productID string, names []string) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM product_categories WHERE product_id = ?`), productID); err != nil {
		return apperr.Storage("clear product categories", err)
	}
	for _, name := range cleanCategories(names) {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO categories (id, name) VALUES (?, ?) ON CONFLICT (name) DO NOTHING
		`), uuid.NewString(), name); err != nil {
			return apperr.Storage("upsert category", err)
		}
		var catID string
		if err := tx.GetContext(ctx, &catID, tx.Rebind(`SELECT id FROM categories WHERE name = ?`), name); err != nil {
			return apperr.Storage("read category", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO product_categories (product_id, category_id) VALUES (?, ?)
		`), productID, catID); err != nil {
			return database.Classify("link category", err)
		}
	}
	return nil
}

func categoriesOf(ctx context.Context, q sqlx.ExtContext, productIDs []string) (map[string][]string, error) {
	query, args, err := sqlx.In(`
		SELECT pc.product_id, c.name
		FROM product_categories pc JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id IN (?)
		ORDER BY c.name
	`, productIDs)
	if err != nil {
		return nil, apperr.Storage("build category query", err)
	}
	var rows []struct {
		ProductID string `db:"product_id"`
		Name      string `db:"name"`
	}
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, apperr.Storage("list categories", err)
	}
	out := make(map[string][]string, len(productIDs))
	for _, r := range rows {
		out[r.ProductID] = append(out[r.ProductID], r.Name)
	}
	return out, nil
}
