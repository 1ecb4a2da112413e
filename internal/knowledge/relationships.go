package knowledge

import (
	"database/sql"
	"errors"
)

const relationshipColumns = `id, product_id, source_id, target_id, type, created_at, updated_at`

// CreateRelationship adds a directed edge between two entities of the
// same product. Preconditions are checked before anything is written.
func (s *Store) CreateRelationship(in RelationshipInput) (*Relationship, error) {
	const op = "create relationship"
	if in.Type == "" {
		in.Type = RelatesTo
	}
	if err := ValidateRelationshipType(in.Type); err != nil {
		return nil, invalidErr(op, err)
	}
	if in.SourceID == "" || in.TargetID == "" {
		return nil, invalid(op, "sourceId and targetId are required")
	}
	if in.SourceID == in.TargetID {
		return nil, invalid(op, "an entity cannot be related to itself")
	}

	src, err := s.entityHeader(in.SourceID)
	if err != nil {
		return nil, unavailable(op, err)
	}
	if src == nil {
		return nil, notFound(op, "source entity %q not found", in.SourceID)
	}
	dst, err := s.entityHeader(in.TargetID)
	if err != nil {
		return nil, unavailable(op, err)
	}
	if dst == nil {
		return nil, notFound(op, "target entity %q not found", in.TargetID)
	}
	if in.ProductID == "" {
		in.ProductID = src.ProductID
	}
	if src.ProductID != in.ProductID || dst.ProductID != in.ProductID {
		return nil, invalid(op, "both endpoints must belong to product %q", in.ProductID)
	}

	id := newID()
	now := formatTime(s.now())
	err = s.withTx(op, func(tx *sql.Tx) error {
		if _, err := s.execHook(tx,
			`INSERT INTO relationships (id, product_id, source_id, target_id, type, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, in.ProductID, in.SourceID, in.TargetID, string(in.Type), now, now,
		); err != nil {
			return err
		}
		return s.touchProduct(tx, in.ProductID, now)
	})
	if err != nil {
		return nil, err
	}

	r, err := s.GetRelationship(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, notFound(op, "relationship %q not found", id)
	}
	return r, nil
}

// GetRelationship retrieves a relationship by ID. It returns (nil, nil)
// when absent.
func (s *Store) GetRelationship(id string) (*Relationship, error) {
	r, err := scanRelationship(s.db.QueryRow(`SELECT `+relationshipColumns+` FROM relationships WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get relationship", err)
	}
	return r, nil
}

// DeleteRelationship removes a relationship by ID.
func (s *Store) DeleteRelationship(id string) error {
	const op = "delete relationship"
	res, err := s.execHook(s.db, `DELETE FROM relationships WHERE id = ?`, id)
	if err != nil {
		return unavailable(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(op, err)
	}
	if n == 0 {
		return notFound(op, "relationship %q not found", id)
	}
	return nil
}

// ListRelationships returns every relationship of a product in creation
// order.
func (s *Store) ListRelationships(productID string) ([]Relationship, error) {
	const op = "list relationships"
	rows, err := s.queryHook(s.db,
		`SELECT `+relationshipColumns+` FROM relationships WHERE product_id = ? ORDER BY created_at, rowid`, productID)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var out []Relationship
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, unavailable(op, err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

// LinkedEntities returns every relationship touching entityID, as seen
// from that entity, in relationship creation order. Edges whose
// counterpart no longer exists are skipped.
func (s *Store) LinkedEntities(entityID string) ([]LinkedEntity, error) {
	const op = "linked entities"
	rows, err := s.queryHook(s.db,
		`SELECT r.id, r.type, r.created_at,
		        CASE WHEN r.source_id = ? THEN 'outgoing' ELSE 'incoming' END,
		        e.id, e.type, e.title, e.status
		 FROM relationships r
		 JOIN entities e
		   ON e.id = CASE WHEN r.source_id = ? THEN r.target_id ELSE r.source_id END
		 WHERE r.source_id = ? OR r.target_id = ?
		 ORDER BY r.created_at, r.rowid`,
		entityID, entityID, entityID, entityID)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	out := []LinkedEntity{}
	for rows.Next() {
		var (
			l                LinkedEntity
			relType, created string
			direction, etype string
		)
		if err := rows.Scan(&l.RelationshipID, &relType, &created, &direction,
			&l.Entity.ID, &etype, &l.Entity.Title, &l.Entity.Status); err != nil {
			return nil, unavailable(op, err)
		}
		l.RelationshipType = RelationshipType(relType)
		l.Direction = Direction(direction)
		l.Entity.Type = EntityType(etype)
		if l.CreatedAt, err = parseTime(created); err != nil {
			return nil, unavailable(op, err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

// GroupedLinks partitions LinkedEntities by direction.
func (s *Store) GroupedLinks(entityID string) (*GroupedLinks, error) {
	links, err := s.LinkedEntities(entityID)
	if err != nil {
		return nil, err
	}
	g := &GroupedLinks{Outgoing: []LinkedEntity{}, Incoming: []LinkedEntity{}}
	for _, l := range links {
		if l.Direction == Outgoing {
			g.Outgoing = append(g.Outgoing, l)
		} else {
			g.Incoming = append(g.Incoming, l)
		}
	}
	return g, nil
}

type entityHeader struct {
	ID        string
	ProductID string
}

func (s *Store) entityHeader(id string) (*entityHeader, error) {
	var h entityHeader
	err := s.db.QueryRow(`SELECT id, product_id FROM entities WHERE id = ?`, id).Scan(&h.ID, &h.ProductID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanRelationship(row scanner) (*Relationship, error) {
	var (
		r                     Relationship
		typ, created, updated string
	)
	if err := row.Scan(&r.ID, &r.ProductID, &r.SourceID, &r.TargetID, &typ, &created, &updated); err != nil {
		return nil, err
	}
	r.Type = RelationshipType(typ)
	var err error
	if r.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &r, nil
}
