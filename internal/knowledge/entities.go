package knowledge

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const entityColumns = `id, product_id, type, title, body, status, metadata, promoted_to_id, created_at, updated_at`

// tagTable describes one of the three membership join tables.
type tagTable struct {
	table  string
	column string
	kind   TaxonomyKind
}

var (
	personaTags   = tagTable{table: "entity_personas", column: "persona_id", kind: KindPersona}
	featureTags   = tagTable{table: "entity_features", column: "feature_id", kind: KindFeatureArea}
	dimensionTags = tagTable{table: "entity_dimension_values", column: "value_id", kind: KindDimensionValue}
)

// CreateEntity stores a new entity. A nil Status takes the type's default.
func (s *Store) CreateEntity(in EntityInput) (*Entity, error) {
	const op = "create entity"
	if err := ValidateEntityType(in.Type); err != nil {
		return nil, invalidErr(op, err)
	}
	p, err := s.getProduct(s.db, in.ProductID)
	if err != nil {
		return nil, unavailable(op, err)
	}
	if p == nil {
		return nil, notFound(op, "product %q not found", in.ProductID)
	}

	status := in.Status
	if status == nil {
		status = DefaultStatus(in.Type)
	}
	if err := ValidateStatus(in.Type, status); err != nil {
		return nil, invalidErr(op, err)
	}
	if err := ValidateMetadata(in.Type, in.Metadata); err != nil {
		return nil, invalidErr(op, err)
	}
	meta, err := encodeMetadata(in.Metadata)
	if err != nil {
		return nil, invalidErr(op, err)
	}

	personas, features, values := dedupe(in.PersonaIDs), dedupe(in.FeatureIDs), dedupe(in.DimensionValueIDs)
	if err := s.checkTags(op, in.ProductID, personas, features, values); err != nil {
		return nil, err
	}

	id := newID()
	now := formatTime(s.now())
	err = s.withTx(op, func(tx *sql.Tx) error {
		if _, err := s.execHook(tx,
			`INSERT INTO entities (id, product_id, type, title, body, status, metadata, promoted_to_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
			id, in.ProductID, string(in.Type), in.Title, in.Body, status, meta, now, now,
		); err != nil {
			return err
		}
		if err := s.replaceTags(tx, personaTags, id, personas); err != nil {
			return err
		}
		if err := s.replaceTags(tx, featureTags, id, features); err != nil {
			return err
		}
		if err := s.replaceTags(tx, dimensionTags, id, values); err != nil {
			return err
		}
		return s.touchProduct(tx, in.ProductID, now)
	})
	if err != nil {
		return nil, err
	}
	return s.mustGetEntity(op, id)
}

// GetEntity retrieves an entity with its tag lists. It returns (nil, nil)
// when absent.
func (s *Store) GetEntity(id string) (*Entity, error) {
	e, err := s.getEntity(s.db, id)
	if err != nil {
		return nil, unavailable("get entity", err)
	}
	return e, nil
}

// ListEntities returns the entities of a product that match every set
// field of f, newest first.
func (s *Store) ListEntities(productID string, f EntityFilter) ([]Entity, error) {
	const op = "list entities"
	query := `SELECT ` + entityColumns + ` FROM entities WHERE product_id = ?`
	args := []any{productID}

	if f.Type != nil {
		if err := ValidateEntityType(*f.Type); err != nil {
			return nil, invalidErr(op, err)
		}
		query += ` AND type = ?`
		args = append(args, string(*f.Type))
	}
	if len(f.Types) > 0 {
		marks := make([]string, len(f.Types))
		for i, t := range f.Types {
			if err := ValidateEntityType(t); err != nil {
				return nil, invalidErr(op, err)
			}
			marks[i] = "?"
			args = append(args, string(t))
		}
		query += ` AND type IN (` + strings.Join(marks, ", ") + `)`
	}
	if f.Status != nil {
		query += ` AND status = ?`
		args = append(args, *f.Status)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.queryHook(s.db, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	var out []Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			rows.Close()
			return nil, unavailable(op, err)
		}
		if !matchesSearch(e, f.Search) {
			continue
		}
		out = append(out, *e)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, unavailable(op, err)
	}

	if len(out) == 0 {
		return out, nil
	}
	tags, err := s.productTags(productID)
	if err != nil {
		return nil, unavailable(op, err)
	}
	for i := range out {
		id := out[i].ID
		out[i].PersonaIDs = nonNil(tags[personaTags.table][id])
		out[i].FeatureIDs = nonNil(tags[featureTags.table][id])
		out[i].DimensionValueIDs = nonNil(tags[dimensionTags.table][id])
	}
	return out, nil
}

// UpdateEntity applies a partial patch. Metadata fields are merged into
// the stored metadata; ClearMetadata drops it first. The type and the
// promotion pointer cannot be changed here.
func (s *Store) UpdateEntity(id string, p EntityPatch) (*Entity, error) {
	const op = "update entity"
	cur, err := s.getEntity(s.db, id)
	if err != nil {
		return nil, unavailable(op, err)
	}
	if cur == nil {
		return nil, notFound(op, "entity %q not found", id)
	}

	title, body := cur.Title, cur.Body
	if p.Title != nil {
		title = *p.Title
	}
	if p.Body != nil {
		body = *p.Body
	}

	status := cur.Status
	if p.Status != nil {
		status = nullableString(*p.Status)
		if err := ValidateStatus(cur.Type, status); err != nil {
			return nil, invalidErr(op, err)
		}
	}

	base := cur.Metadata
	if p.ClearMetadata {
		base = nil
	}
	merged, err := MergeMetadata(cur.Type, base, p.Metadata)
	if err != nil {
		return nil, invalidErr(op, err)
	}
	meta, err := encodeMetadata(merged)
	if err != nil {
		return nil, invalidErr(op, err)
	}

	var personas, features, values []string
	if p.PersonaIDs != nil {
		personas = dedupe(*p.PersonaIDs)
	}
	if p.FeatureIDs != nil {
		features = dedupe(*p.FeatureIDs)
	}
	if p.DimensionValueIDs != nil {
		values = dedupe(*p.DimensionValueIDs)
	}
	if err := s.checkTags(op, cur.ProductID, personas, features, values); err != nil {
		return nil, err
	}

	now := formatTime(s.now())
	err = s.withTx(op, func(tx *sql.Tx) error {
		if _, err := s.execHook(tx,
			`UPDATE entities SET title = ?, body = ?, status = ?, metadata = ?, updated_at = ? WHERE id = ?`,
			title, body, status, meta, now, id,
		); err != nil {
			return err
		}
		if p.PersonaIDs != nil {
			if err := s.replaceTags(tx, personaTags, id, personas); err != nil {
				return err
			}
		}
		if p.FeatureIDs != nil {
			if err := s.replaceTags(tx, featureTags, id, features); err != nil {
				return err
			}
		}
		if p.DimensionValueIDs != nil {
			if err := s.replaceTags(tx, dimensionTags, id, values); err != nil {
				return err
			}
		}
		return s.touchProduct(tx, cur.ProductID, now)
	})
	if err != nil {
		return nil, err
	}
	return s.mustGetEntity(op, id)
}

// DeleteEntity removes an entity, every relationship where it is source or
// target, and its tag memberships. Entities promoted into it lose their
// pointer.
func (s *Store) DeleteEntity(id string) error {
	const op = "delete entity"
	cur, err := s.getEntity(s.db, id)
	if err != nil {
		return unavailable(op, err)
	}
	if cur == nil {
		return notFound(op, "entity %q not found", id)
	}

	now := formatTime(s.now())
	return s.withTx(op, func(tx *sql.Tx) error {
		stmts := []struct {
			q    string
			args []any
		}{
			{`DELETE FROM relationships WHERE source_id = ? OR target_id = ?`, []any{id, id}},
			{`DELETE FROM entity_personas WHERE entity_id = ?`, []any{id}},
			{`DELETE FROM entity_features WHERE entity_id = ?`, []any{id}},
			{`DELETE FROM entity_dimension_values WHERE entity_id = ?`, []any{id}},
			{`UPDATE entities SET promoted_to_id = NULL WHERE promoted_to_id = ?`, []any{id}},
			{`DELETE FROM entities WHERE id = ?`, []any{id}},
		}
		for _, st := range stmts {
			if _, err := s.execHook(tx, st.q, st.args...); err != nil {
				return err
			}
		}
		return s.touchProduct(tx, cur.ProductID, now)
	})
}

// PromoteEntity creates a new entity of targetType in the source's
// product, copying title, body and tags, with status and metadata at the
// target type's defaults. The source's promotedToId is set to the new
// entity; promoting again creates another entity and overwrites it.
func (s *Store) PromoteEntity(id string, targetType EntityType) (*Entity, error) {
	const op = "promote entity"
	src, err := s.getEntity(s.db, id)
	if err != nil {
		return nil, unavailable(op, err)
	}
	if src == nil {
		return nil, notFound(op, "entity %q not found", id)
	}
	if err := ValidateEntityType(targetType); err != nil {
		return nil, invalidErr(op, err)
	}
	if targetType == src.Type {
		return nil, invalid(op, "cannot promote a %s into the same type", src.Type)
	}

	newEntityID := newID()
	now := formatTime(s.now())
	err = s.withTx(op, func(tx *sql.Tx) error {
		if _, err := s.execHook(tx,
			`INSERT INTO entities (id, product_id, type, title, body, status, metadata, promoted_to_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?)`,
			newEntityID, src.ProductID, string(targetType), src.Title, src.Body, DefaultStatus(targetType), now, now,
		); err != nil {
			return err
		}
		if err := s.replaceTags(tx, personaTags, newEntityID, src.PersonaIDs); err != nil {
			return err
		}
		if err := s.replaceTags(tx, featureTags, newEntityID, src.FeatureIDs); err != nil {
			return err
		}
		if err := s.replaceTags(tx, dimensionTags, newEntityID, src.DimensionValueIDs); err != nil {
			return err
		}
		if _, err := s.execHook(tx,
			`UPDATE entities SET promoted_to_id = ?, updated_at = ? WHERE id = ?`,
			newEntityID, now, id,
		); err != nil {
			return err
		}
		return s.touchProduct(tx, src.ProductID, now)
	})
	if err != nil {
		return nil, err
	}
	return s.mustGetEntity(op, newEntityID)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Store) getEntity(db dbtx, id string) (*Entity, error) {
	e, err := scanEntity(db.QueryRow(`SELECT `+entityColumns+` FROM entities WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if e.PersonaIDs, err = s.loadTags(db, personaTags, id); err != nil {
		return nil, err
	}
	if e.FeatureIDs, err = s.loadTags(db, featureTags, id); err != nil {
		return nil, err
	}
	if e.DimensionValueIDs, err = s.loadTags(db, dimensionTags, id); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) mustGetEntity(op, id string) (*Entity, error) {
	e, err := s.getEntity(s.db, id)
	if err != nil {
		return nil, unavailable(op, err)
	}
	if e == nil {
		return nil, notFound(op, "entity %q not found", id)
	}
	return e, nil
}

func (s *Store) loadTags(db queryer, t tagTable, entityID string) ([]string, error) {
	rows, err := s.queryHook(db,
		`SELECT `+t.column+` FROM `+t.table+` WHERE entity_id = ? ORDER BY position`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// productTags loads every membership of a product's entities, keyed by
// join table then entity id.
func (s *Store) productTags(productID string) (map[string]map[string][]string, error) {
	out := map[string]map[string][]string{}
	for _, t := range []tagTable{personaTags, featureTags, dimensionTags} {
		rows, err := s.queryHook(s.db,
			`SELECT j.entity_id, j.`+t.column+` FROM `+t.table+` j
			 JOIN entities e ON e.id = j.entity_id
			 WHERE e.product_id = ?
			 ORDER BY j.entity_id, j.position`, productID)
		if err != nil {
			return nil, err
		}
		byEntity := map[string][]string{}
		for rows.Next() {
			var entityID, tagID string
			if err := rows.Scan(&entityID, &tagID); err != nil {
				rows.Close()
				return nil, err
			}
			byEntity[entityID] = append(byEntity[entityID], tagID)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
		out[t.table] = byEntity
	}
	return out, nil
}

func (s *Store) replaceTags(tx *sql.Tx, t tagTable, entityID string, ids []string) error {
	if _, err := s.execHook(tx, `DELETE FROM `+t.table+` WHERE entity_id = ?`, entityID); err != nil {
		return err
	}
	for i, id := range ids {
		if _, err := s.execHook(tx,
			`INSERT INTO `+t.table+` (entity_id, `+t.column+`, position) VALUES (?, ?, ?)`,
			entityID, id, i,
		); err != nil {
			return err
		}
	}
	return nil
}

// checkTags verifies that every id names a taxonomy item of the expected
// kind owned by productID. Archived items are accepted.
func (s *Store) checkTags(op, productID string, personas, features, values []string) error {
	groups := []struct {
		kind TaxonomyKind
		ids  []string
	}{
		{KindPersona, personas},
		{KindFeatureArea, features},
		{KindDimensionValue, values},
	}
	for _, g := range groups {
		for _, id := range g.ids {
			it, err := s.getTaxonomyItem(s.db, id)
			if err != nil {
				return unavailable(op, err)
			}
			if it == nil {
				return notFound(op, "%s %q not found", g.kind, id)
			}
			if it.Kind != g.kind {
				return invalid(op, "%q is a %s, not a %s", id, it.Kind, g.kind)
			}
			owner, err := s.productOfTaxonomyItem(s.db, it)
			if err != nil {
				return unavailable(op, err)
			}
			if owner != productID {
				return invalid(op, "%s %q belongs to another product", g.kind, id)
			}
		}
	}
	return nil
}

func scanEntity(row scanner) (*Entity, error) {
	var (
		e                Entity
		typ              string
		meta             sql.NullString
		created, updated string
	)
	if err := row.Scan(&e.ID, &e.ProductID, &typ, &e.Title, &e.Body, &e.Status, &meta,
		&e.PromotedToID, &created, &updated); err != nil {
		return nil, err
	}
	e.Type = EntityType(typ)
	if meta.Valid {
		m, err := DecodeMetadata(e.Type, []byte(meta.String))
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", e.ID, err)
		}
		e.Metadata = m
	}
	var err error
	if e.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &e, nil
}

func matchesSearch(e *Entity, search string) bool {
	if search == "" {
		return true
	}
	q := strings.ToLower(search)
	return strings.Contains(strings.ToLower(e.Title), q) ||
		strings.Contains(strings.ToLower(e.Body), q)
}

// dedupe drops empty and repeated ids, keeping first-seen order.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
