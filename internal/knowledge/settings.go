package knowledge

import (
	"database/sql"
	"errors"

	"github.com/HendryAvila/thoughtbox/internal/config"
)

// LoadSettings reads the settings row, writing config.DefaultSettings on
// first run.
func (s *Store) LoadSettings() (config.Settings, error) {
	const op = "load settings"
	var (
		st                               config.Settings
		lastProduct                      sql.NullString
		mode                             string
		restore, includeLinked, incrDays int
	)
	err := s.db.QueryRow(
		`SELECT workspace_path, last_product_id, restore_last_product, default_export_mode,
		        default_incremental_days, include_linked_context
		 FROM settings WHERE id = 1`,
	).Scan(&st.WorkspacePath, &lastProduct, &restore, &mode, &incrDays, &includeLinked)
	if errors.Is(err, sql.ErrNoRows) {
		st = config.DefaultSettings(s.cfg.DataDir)
		if err := s.writeSettings(op, st); err != nil {
			return config.Settings{}, err
		}
		return st, nil
	}
	if err != nil {
		return config.Settings{}, unavailable(op, err)
	}

	st.LastProductID = lastProduct.String
	st.RestoreLastProduct = restore != 0
	st.DefaultExportMode = config.ExportMode(mode)
	st.DefaultIncrementalDays = incrDays
	st.IncludeLinkedContext = includeLinked != 0
	return st, nil
}

// SaveSettings validates and replaces the settings row.
func (s *Store) SaveSettings(st config.Settings) (config.Settings, error) {
	const op = "save settings"
	if err := st.Validate(); err != nil {
		return config.Settings{}, invalidErr(op, err)
	}
	if err := s.writeSettings(op, st); err != nil {
		return config.Settings{}, err
	}
	return st, nil
}

func (s *Store) writeSettings(op string, st config.Settings) error {
	if _, err := s.execHook(s.db,
		`INSERT INTO settings (id, workspace_path, last_product_id, restore_last_product,
		                       default_export_mode, default_incremental_days, include_linked_context)
		 VALUES (1, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   workspace_path           = excluded.workspace_path,
		   last_product_id          = excluded.last_product_id,
		   restore_last_product     = excluded.restore_last_product,
		   default_export_mode      = excluded.default_export_mode,
		   default_incremental_days = excluded.default_incremental_days,
		   include_linked_context   = excluded.include_linked_context`,
		st.WorkspacePath, nullableString(st.LastProductID), boolInt(st.RestoreLastProduct),
		string(st.DefaultExportMode), st.DefaultIncrementalDays, boolInt(st.IncludeLinkedContext),
	); err != nil {
		return unavailable(op, err)
	}
	return nil
}
