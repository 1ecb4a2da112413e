package knowledge

import (
	"database/sql"
	"errors"
	"strings"
)

const productColumns = `id, name, description, icon, created_at, updated_at, last_activity_at`

// CreateProduct registers a new product.
func (s *Store) CreateProduct(p ProductInput) (*Product, error) {
	const op = "create product"
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, invalid(op, "name is required")
	}

	now := formatTime(s.now())
	id := newID()
	if _, err := s.execHook(s.db,
		`INSERT INTO products (id, name, description, icon, created_at, updated_at, last_activity_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, name, nullableString(strings.TrimSpace(p.Description)), nullableString(strings.TrimSpace(p.Icon)), now, now, now,
	); err != nil {
		return nil, unavailable(op, err)
	}
	return s.mustGetProduct(op, s.db, id)
}

// GetProduct retrieves a product by ID. It returns (nil, nil) when absent.
func (s *Store) GetProduct(id string) (*Product, error) {
	p, err := s.getProduct(s.db, id)
	if err != nil {
		return nil, unavailable("get product", err)
	}
	return p, nil
}

// ListProducts returns all products, most recently active first.
func (s *Store) ListProducts() ([]Product, error) {
	rows, err := s.queryHook(s.db,
		`SELECT `+productColumns+` FROM products ORDER BY last_activity_at DESC, created_at DESC`)
	if err != nil {
		return nil, unavailable("list products", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, unavailable("list products", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list products", err)
	}
	return out, nil
}

// UpdateProduct partially updates a product by ID.
func (s *Store) UpdateProduct(id string, p ProductPatch) (*Product, error) {
	const op = "update product"
	cur, err := s.getProduct(s.db, id)
	if err != nil {
		return nil, unavailable(op, err)
	}
	if cur == nil {
		return nil, notFound(op, "product %q not found", id)
	}

	name := cur.Name
	if p.Name != nil {
		name = strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, invalid(op, "name cannot be empty")
		}
	}
	desc := cur.Description
	if p.Description != nil {
		desc = nullableString(strings.TrimSpace(*p.Description))
	}
	icon := cur.Icon
	if p.Icon != nil {
		icon = nullableString(strings.TrimSpace(*p.Icon))
	}

	now := formatTime(s.now())
	if _, err := s.execHook(s.db,
		`UPDATE products
		 SET name = ?, description = ?, icon = ?, updated_at = ?, last_activity_at = ?
		 WHERE id = ?`,
		name, desc, icon, now, now, id,
	); err != nil {
		return nil, unavailable(op, err)
	}
	return s.mustGetProduct(op, s.db, id)
}

// DeleteProduct removes a product together with its entities, their tag
// memberships and relationships, and its taxonomy. Export history is kept.
func (s *Store) DeleteProduct(id string) error {
	const op = "delete product"
	cur, err := s.getProduct(s.db, id)
	if err != nil {
		return unavailable(op, err)
	}
	if cur == nil {
		return notFound(op, "product %q not found", id)
	}

	return s.withTx(op, func(tx *sql.Tx) error {
		stmts := []string{
			`DELETE FROM relationships WHERE product_id = ?
			    OR source_id IN (SELECT id FROM entities WHERE product_id = ?)
			    OR target_id IN (SELECT id FROM entities WHERE product_id = ?)`,
			`DELETE FROM entity_personas         WHERE entity_id IN (SELECT id FROM entities WHERE product_id = ?)`,
			`DELETE FROM entity_features         WHERE entity_id IN (SELECT id FROM entities WHERE product_id = ?)`,
			`DELETE FROM entity_dimension_values WHERE entity_id IN (SELECT id FROM entities WHERE product_id = ?)`,
			`UPDATE entities SET promoted_to_id = NULL WHERE product_id = ?`,
			`DELETE FROM entities WHERE product_id = ?`,
			`DELETE FROM taxonomy_items WHERE kind = 'dimension_value'
			    AND scope_id IN (SELECT id FROM taxonomy_items WHERE kind = 'dimension' AND scope_id = ?)`,
			`DELETE FROM taxonomy_items WHERE scope_id = ? AND kind IN ('persona', 'feature_area', 'dimension')`,
			`DELETE FROM products WHERE id = ?`,
		}
		for _, q := range stmts {
			args := make([]any, strings.Count(q, "?"))
			for i := range args {
				args[i] = id
			}
			if _, err := s.execHook(tx, q, args...); err != nil {
				return err
			}
		}
		return nil
	})
}

// touchProduct bumps last_activity_at; called from entity and
// relationship writes.
func (s *Store) touchProduct(db execer, productID, now string) error {
	_, err := s.execHook(db, `UPDATE products SET last_activity_at = ? WHERE id = ?`, now, productID)
	return err
}

func (s *Store) getProduct(db rowQueryer, id string) (*Product, error) {
	p, err := scanProduct(db.QueryRow(`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (s *Store) mustGetProduct(op string, db rowQueryer, id string) (*Product, error) {
	p, err := s.getProduct(db, id)
	if err != nil {
		return nil, unavailable(op, err)
	}
	if p == nil {
		return nil, notFound(op, "product %q not found", id)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*Product, error) {
	var (
		p                       Product
		created, updated, touch string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Icon, &created, &updated, &touch); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if p.LastActivityAt, err = parseTime(touch); err != nil {
		return nil, err
	}
	return &p, nil
}
