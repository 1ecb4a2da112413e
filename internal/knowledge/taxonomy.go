package knowledge

import (
	"database/sql"
	"errors"
	"strings"
)

// Taxonomy items are soft-deleted by archiving: the row and every tag
// membership pointing at it stay, only "active" listings skip it.
// DeleteTaxonomyItem is the hard delete and removes memberships.

const taxonomyColumns = `id, kind, scope_id, name, archived, created_at, updated_at`

// CreateTaxonomyItem adds a persona, feature area or dimension to a
// product, or a value to a dimension.
func (s *Store) CreateTaxonomyItem(kind TaxonomyKind, scopeID, name string) (*TaxonomyItem, error) {
	const op = "create taxonomy item"
	if err := ValidateTaxonomyKind(kind); err != nil {
		return nil, invalidErr(op, err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid(op, "name is required")
	}

	if kind == KindDimensionValue {
		dim, err := s.getTaxonomyItem(s.db, scopeID)
		if err != nil {
			return nil, unavailable(op, err)
		}
		if dim == nil || dim.Kind != KindDimension {
			return nil, notFound(op, "dimension %q not found", scopeID)
		}
	} else {
		p, err := s.getProduct(s.db, scopeID)
		if err != nil {
			return nil, unavailable(op, err)
		}
		if p == nil {
			return nil, notFound(op, "product %q not found", scopeID)
		}
	}

	now := formatTime(s.now())
	id := newID()
	if _, err := s.execHook(s.db,
		`INSERT INTO taxonomy_items (id, kind, scope_id, name, archived, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)`,
		id, string(kind), scopeID, name, now, now,
	); err != nil {
		return nil, unavailable(op, err)
	}
	return s.mustGetTaxonomyItem(op, id)
}

// CreatePersona is CreateTaxonomyItem for personas.
func (s *Store) CreatePersona(productID, name string) (*TaxonomyItem, error) {
	return s.CreateTaxonomyItem(KindPersona, productID, name)
}

// CreateFeatureArea is CreateTaxonomyItem for feature areas.
func (s *Store) CreateFeatureArea(productID, name string) (*TaxonomyItem, error) {
	return s.CreateTaxonomyItem(KindFeatureArea, productID, name)
}

// CreateDimension is CreateTaxonomyItem for dimensions.
func (s *Store) CreateDimension(productID, name string) (*TaxonomyItem, error) {
	return s.CreateTaxonomyItem(KindDimension, productID, name)
}

// CreateDimensionValue is CreateTaxonomyItem for dimension values.
func (s *Store) CreateDimensionValue(dimensionID, name string) (*TaxonomyItem, error) {
	return s.CreateTaxonomyItem(KindDimensionValue, dimensionID, name)
}

// GetTaxonomyItem retrieves an item by ID. It returns (nil, nil) when absent.
func (s *Store) GetTaxonomyItem(id string) (*TaxonomyItem, error) {
	it, err := s.getTaxonomyItem(s.db, id)
	if err != nil {
		return nil, unavailable("get taxonomy item", err)
	}
	return it, nil
}

// ListTaxonomyItems returns the items of one kind under scopeID in
// creation order. Archived items are skipped unless includeArchived.
func (s *Store) ListTaxonomyItems(kind TaxonomyKind, scopeID string, includeArchived bool) ([]TaxonomyItem, error) {
	const op = "list taxonomy items"
	if err := ValidateTaxonomyKind(kind); err != nil {
		return nil, invalidErr(op, err)
	}
	query := `SELECT ` + taxonomyColumns + ` FROM taxonomy_items WHERE kind = ? AND scope_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY created_at, rowid`

	items, err := s.queryTaxonomy(query, string(kind), scopeID)
	if err != nil {
		return nil, unavailable(op, err)
	}
	return items, nil
}

// ActivePersonas lists the non-archived personas of a product.
func (s *Store) ActivePersonas(productID string) ([]TaxonomyItem, error) {
	return s.ListTaxonomyItems(KindPersona, productID, false)
}

// ActiveFeatureAreas lists the non-archived feature areas of a product.
func (s *Store) ActiveFeatureAreas(productID string) ([]TaxonomyItem, error) {
	return s.ListTaxonomyItems(KindFeatureArea, productID, false)
}

// Taxonomy returns the whole tag vocabulary of a product. With
// includeArchived false, archived dimensions are dropped along with their
// values, and archived values of active dimensions are dropped.
func (s *Store) Taxonomy(productID string, includeArchived bool) (*Taxonomy, error) {
	const op = "get taxonomy"
	p, err := s.getProduct(s.db, productID)
	if err != nil {
		return nil, unavailable(op, err)
	}
	if p == nil {
		return nil, notFound(op, "product %q not found", productID)
	}

	tax := &Taxonomy{ProductID: productID}
	if tax.Personas, err = s.ListTaxonomyItems(KindPersona, productID, includeArchived); err != nil {
		return nil, err
	}
	if tax.FeatureAreas, err = s.ListTaxonomyItems(KindFeatureArea, productID, includeArchived); err != nil {
		return nil, err
	}
	dims, err := s.ListTaxonomyItems(KindDimension, productID, includeArchived)
	if err != nil {
		return nil, err
	}
	for _, d := range dims {
		values, err := s.ListTaxonomyItems(KindDimensionValue, d.ID, includeArchived)
		if err != nil {
			return nil, err
		}
		tax.Dimensions = append(tax.Dimensions, DimensionTree{TaxonomyItem: d, Values: values})
	}
	return tax, nil
}

// RenameTaxonomyItem changes an item's name.
func (s *Store) RenameTaxonomyItem(id, name string) (*TaxonomyItem, error) {
	const op = "rename taxonomy item"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid(op, "name is required")
	}
	if err := s.updateTaxonomyItem(op, id, `name = ?`, name); err != nil {
		return nil, err
	}
	return s.mustGetTaxonomyItem(op, id)
}

// ArchiveTaxonomyItem hides an item from active listings. Entities keep
// their existing tags.
func (s *Store) ArchiveTaxonomyItem(id string) (*TaxonomyItem, error) {
	const op = "archive taxonomy item"
	if err := s.updateTaxonomyItem(op, id, `archived = 1`); err != nil {
		return nil, err
	}
	return s.mustGetTaxonomyItem(op, id)
}

// UnarchiveTaxonomyItem reverses ArchiveTaxonomyItem.
func (s *Store) UnarchiveTaxonomyItem(id string) (*TaxonomyItem, error) {
	const op = "unarchive taxonomy item"
	if err := s.updateTaxonomyItem(op, id, `archived = 0`); err != nil {
		return nil, err
	}
	return s.mustGetTaxonomyItem(op, id)
}

// DeleteTaxonomyItem permanently removes an item and every tag membership
// that references it. Deleting a dimension deletes its values too.
func (s *Store) DeleteTaxonomyItem(id string) error {
	const op = "delete taxonomy item"
	it, err := s.getTaxonomyItem(s.db, id)
	if err != nil {
		return unavailable(op, err)
	}
	if it == nil {
		return notFound(op, "taxonomy item %q not found", id)
	}

	return s.withTx(op, func(tx *sql.Tx) error {
		var stmts []string
		switch it.Kind {
		case KindPersona:
			stmts = []string{`DELETE FROM entity_personas WHERE persona_id = ?`}
		case KindFeatureArea:
			stmts = []string{`DELETE FROM entity_features WHERE feature_id = ?`}
		case KindDimensionValue:
			stmts = []string{`DELETE FROM entity_dimension_values WHERE value_id = ?`}
		case KindDimension:
			stmts = []string{
				`DELETE FROM entity_dimension_values WHERE value_id IN
				    (SELECT id FROM taxonomy_items WHERE kind = 'dimension_value' AND scope_id = ?)`,
				`DELETE FROM taxonomy_items WHERE kind = 'dimension_value' AND scope_id = ?`,
			}
		}
		stmts = append(stmts, `DELETE FROM taxonomy_items WHERE id = ?`)
		for _, q := range stmts {
			if _, err := s.execHook(tx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// productOfTaxonomyItem resolves the product an item belongs to; for a
// dimension value that is its dimension's product.
func (s *Store) productOfTaxonomyItem(db rowQueryer, it *TaxonomyItem) (string, error) {
	if it.Kind != KindDimensionValue {
		return it.ScopeID, nil
	}
	dim, err := s.getTaxonomyItem(db, it.ScopeID)
	if err != nil {
		return "", err
	}
	if dim == nil {
		return "", nil
	}
	return dim.ScopeID, nil
}

func (s *Store) updateTaxonomyItem(op, id, set string, args ...any) error {
	args = append(args, formatTime(s.now()), id)
	res, err := s.execHook(s.db, `UPDATE taxonomy_items SET `+set+`, updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		return unavailable(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(op, err)
	}
	if n == 0 {
		return notFound(op, "taxonomy item %q not found", id)
	}
	return nil
}

func (s *Store) getTaxonomyItem(db rowQueryer, id string) (*TaxonomyItem, error) {
	it, err := scanTaxonomyItem(db.QueryRow(`SELECT `+taxonomyColumns+` FROM taxonomy_items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return it, err
}

func (s *Store) mustGetTaxonomyItem(op, id string) (*TaxonomyItem, error) {
	it, err := s.getTaxonomyItem(s.db, id)
	if err != nil {
		return nil, unavailable(op, err)
	}
	if it == nil {
		return nil, notFound(op, "taxonomy item %q not found", id)
	}
	return it, nil
}

func (s *Store) queryTaxonomy(query string, args ...any) ([]TaxonomyItem, error) {
	rows, err := s.queryHook(s.db, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TaxonomyItem
	for rows.Next() {
		it, err := scanTaxonomyItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func scanTaxonomyItem(row scanner) (*TaxonomyItem, error) {
	var (
		it               TaxonomyItem
		kind             string
		archived         int
		created, updated string
	)
	if err := row.Scan(&it.ID, &kind, &it.ScopeID, &it.Name, &archived, &created, &updated); err != nil {
		return nil, err
	}
	it.Kind = TaxonomyKind(kind)
	it.Archived = archived != 0
	var err error
	if it.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if it.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &it, nil
}
