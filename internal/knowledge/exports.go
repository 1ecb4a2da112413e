package knowledge

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HendryAvila/thoughtbox/internal/config"
)

const exportColumns = `id, scope, product_id, mode, since, include_linked, total, counts, output_path, created_at`

// AddExportRecord appends one manifest to the export history.
func (s *Store) AddExportRecord(in ExportRecordInput) (*ExportRecord, error) {
	const op = "add export record"
	if err := config.ValidateExportMode(in.Mode); err != nil {
		return nil, invalidErr(op, err)
	}
	if in.OutputPath == "" {
		return nil, invalid(op, "outputPath is required")
	}
	if in.Total < 0 {
		return nil, invalid(op, "total cannot be negative")
	}

	scope := ScopeAll
	if in.ProductID != "" {
		scope = in.ProductID
	}
	counts := in.Counts
	if counts == nil {
		counts = map[EntityType]int{}
	}
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return nil, invalidErr(op, err)
	}
	var since *string
	if in.Since != nil {
		v := formatTime(*in.Since)
		since = &v
	}

	rec := &ExportRecord{
		ID:            newID(),
		Scope:         scope,
		ProductID:     nullableString(in.ProductID),
		Mode:          in.Mode,
		IncludeLinked: in.IncludeLinked,
		Total:         in.Total,
		Counts:        counts,
		OutputPath:    in.OutputPath,
		CreatedAt:     s.now(),
	}
	if in.Since != nil {
		t := in.Since.UTC().Truncate(time.Millisecond)
		rec.Since = &t
	}

	if _, err := s.execHook(s.db,
		`INSERT INTO export_records (`+exportColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Scope, rec.ProductID, string(rec.Mode), since, boolInt(rec.IncludeLinked),
		rec.Total, string(countsJSON), rec.OutputPath, formatTime(rec.CreatedAt),
	); err != nil {
		return nil, unavailable(op, err)
	}
	return rec, nil
}

// ListExportRecords returns the export history, newest first. A limit of
// zero or less returns everything.
func (s *Store) ListExportRecords(limit int) ([]ExportRecord, error) {
	const op = "list export records"
	query := `SELECT ` + exportColumns + ` FROM export_records ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.queryHook(s.db, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	out := []ExportRecord{}
	for rows.Next() {
		r, err := scanExportRecord(rows)
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

// ClearExportRecords deletes the whole export history and reports how many
// records were removed. Exported files are left alone.
func (s *Store) ClearExportRecords() (int64, error) {
	const op = "clear export records"
	var n int64
	err := s.withTx(op, func(tx *sql.Tx) error {
		res, err := s.execHook(tx, `DELETE FROM export_records`)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

func scanExportRecord(row scanner) (*ExportRecord, error) {
	var (
		r                     ExportRecord
		mode, counts, created string
		since                 sql.NullString
		includeLinked         int
	)
	if err := row.Scan(&r.ID, &r.Scope, &r.ProductID, &mode, &since, &includeLinked,
		&r.Total, &counts, &r.OutputPath, &created); err != nil {
		return nil, err
	}
	r.Mode = config.ExportMode(mode)
	r.IncludeLinked = includeLinked != 0
	if err := json.Unmarshal([]byte(counts), &r.Counts); err != nil {
		return nil, fmt.Errorf("export record %s: decode counts: %w", r.ID, err)
	}
	if since.Valid {
		t, err := parseTime(since.String)
		if err != nil {
			return nil, err
		}
		r.Since = &t
	}
	var err error
	if r.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &r, nil
}
