// Package snapshot exports entity sets to files and renders text
// snapshots of a product.
//
// An export is all-or-nothing. The destination name is claimed with an
// exclusive create, so an existing file is never replaced. The archive is
// written to a temp file beside it, synced and renamed over the claimed
// name, and only then is an export record appended. Any failure removes
// the claimed file and appends nothing.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HendryAvila/thoughtbox/internal/config"
	"github.com/HendryAvila/thoughtbox/internal/knowledge"
	"github.com/HendryAvila/thoughtbox/internal/logger"
)

// ArchiveVersion is written into every archive.
const ArchiveVersion = 1

// Source is the part of the knowledge store the engine reads and writes.
type Source interface {
	GetProduct(id string) (*knowledge.Product, error)
	ListProducts() ([]knowledge.Product, error)
	ListEntities(productID string, f knowledge.EntityFilter) ([]knowledge.Entity, error)
	LinkedEntities(entityID string) ([]knowledge.LinkedEntity, error)
	AddExportRecord(in knowledge.ExportRecordInput) (*knowledge.ExportRecord, error)
}

// Request describes one export.
type Request struct {
	// ProductID scopes the export; "" exports every product.
	ProductID string
	Mode      config.ExportMode
	// Since is required for incremental exports: entities updated at or
	// after it are included.
	Since         *time.Time
	IncludeLinked bool
	// OutputPath is the archive file. When empty, a timestamped name is
	// chosen inside OutputDir.
	OutputPath string
	OutputDir  string
}

// RequestFromSettings builds a request for productID using the workspace
// defaults.
func RequestFromSettings(st config.Settings, productID string, now time.Time) Request {
	req := Request{
		ProductID:     productID,
		Mode:          st.DefaultExportMode,
		IncludeLinked: st.IncludeLinkedContext,
		OutputDir:     st.ExportsDir(),
	}
	if req.Mode == config.ExportIncremental {
		since := now.UTC().AddDate(0, 0, -st.DefaultIncrementalDays)
		req.Since = &since
	}
	return req
}

// Preview is what an export would contain.
type Preview struct {
	Scope    string                       `json:"scope"`
	Mode     config.ExportMode            `json:"mode"`
	Since    *time.Time                   `json:"since,omitempty"`
	Total    int                          `json:"total"`
	Counts   map[knowledge.EntityType]int `json:"counts"`
	Entities []knowledge.EntitySummary    `json:"entities"`
}

// Engine runs previews, exports and text snapshots.
type Engine struct {
	src Source
	log *logger.Logger
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine. A nil logger discards output.
func New(src Source, log *logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{src: src, log: log.With("component", "snapshot"), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// selection is the resolved content of a request.
type selection struct {
	scope    string
	products []knowledge.Product
	entities []knowledge.Entity
	counts   map[knowledge.EntityType]int
}

// Preview resolves req without writing anything.
func (e *Engine) Preview(req Request) (*Preview, error) {
	const op = "export preview"
	if err := validate(op, req); err != nil {
		return nil, err
	}
	sel, err := e.collect(op, req)
	if err != nil {
		return nil, err
	}

	p := &Preview{
		Scope:    sel.scope,
		Mode:     req.Mode,
		Since:    req.Since,
		Total:    len(sel.entities),
		Counts:   sel.counts,
		Entities: make([]knowledge.EntitySummary, len(sel.entities)),
	}
	for i := range sel.entities {
		p.Entities[i] = sel.entities[i].Summary()
	}
	return p, nil
}

type archive struct {
	Version       int                          `json:"version"`
	ExportedAt    time.Time                    `json:"exportedAt"`
	Scope         string                       `json:"scope"`
	Mode          config.ExportMode            `json:"mode"`
	Since         *time.Time                   `json:"since,omitempty"`
	IncludeLinked bool                         `json:"includeLinked"`
	Total         int                          `json:"total"`
	Counts        map[knowledge.EntityType]int `json:"counts"`
	Products      []knowledge.Product          `json:"products"`
	Entities      []archiveEntity              `json:"entities"`
}

type archiveEntity struct {
	knowledge.Entity
	Links []knowledge.LinkedEntity `json:"links,omitempty"`
}

// UnmarshalJSON decodes the entity fields and its links.
func (a *archiveEntity) UnmarshalJSON(data []byte) error {
	if err := a.Entity.UnmarshalJSON(data); err != nil {
		return err
	}
	var aux struct {
		Links []knowledge.LinkedEntity `json:"links"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.Links = aux.Links
	return nil
}

// Execute writes the archive for req and appends one export record.
func (e *Engine) Execute(req Request) (*knowledge.ExportRecord, error) {
	const op = "export"
	if err := validate(op, req); err != nil {
		return nil, err
	}
	if req.OutputPath == "" && req.OutputDir == "" {
		return nil, invalid(op, errors.New("an output path or directory is required"))
	}
	sel, err := e.collect(op, req)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	doc := archive{
		Version:       ArchiveVersion,
		ExportedAt:    now,
		Scope:         sel.scope,
		Mode:          req.Mode,
		Since:         req.Since,
		IncludeLinked: req.IncludeLinked,
		Total:         len(sel.entities),
		Counts:        sel.counts,
		Products:      sel.products,
		Entities:      make([]archiveEntity, len(sel.entities)),
	}
	for i, ent := range sel.entities {
		doc.Entities[i].Entity = ent
		if req.IncludeLinked {
			links, err := e.src.LinkedEntities(ent.ID)
			if err != nil {
				return nil, err
			}
			doc.Entities[i].Links = links
		}
	}

	path, err := reserveOutput(op, req, sel.scope, now)
	if err != nil {
		return nil, err
	}
	if err := writeArchive(path, doc); err != nil {
		e.log.Error("export write failed", "path", path, "error", err)
		e.discard(path)
		return nil, unavailable(op, err)
	}

	rec, err := e.src.AddExportRecord(knowledge.ExportRecordInput{
		ProductID:     req.ProductID,
		Mode:          req.Mode,
		Since:         req.Since,
		IncludeLinked: req.IncludeLinked,
		Total:         doc.Total,
		Counts:        sel.counts,
		OutputPath:    path,
	})
	if err != nil {
		e.discard(path)
		return nil, err
	}

	e.log.Info("export written", "path", path, "scope", sel.scope, "mode", req.Mode, "total", doc.Total)
	return rec, nil
}

// CopySnapshot renders a product as text: a "# name" heading, then one
// "## title (type)" section per entity followed by its body.
func (e *Engine) CopySnapshot(productID string) (string, error) {
	const op = "copy snapshot"
	p, err := e.src.GetProduct(productID)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", &knowledge.Error{Op: op, Kind: knowledge.ErrNotFound, Err: fmt.Errorf("product %q not found", productID)}
	}
	entities, err := e.src.ListEntities(productID, knowledge.EntityFilter{})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", p.Name)
	for _, ent := range entities {
		title := strings.TrimSpace(ent.Title)
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "\n## %s (%s)\n", title, ent.Type)
		if ent.Body != "" {
			b.WriteString("\n")
			b.WriteString(ent.Body)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// DefaultFileName is thoughtbox-<scope>-<timestamp>.json, with the
// timestamp down to the millisecond.
func DefaultFileName(scope string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("thoughtbox-%s-%s-%03d.json", scope, at.Format("20060102-150405"), at.Nanosecond()/int(time.Millisecond))
}

// maxNameAttempts bounds the numbered suffixes tried when default
// names collide.
const maxNameAttempts = 100

// reserveOutput claims the archive path by creating it exclusively. An
// explicit path that already exists is rejected; a taken default name
// gets a numbered suffix.
func reserveOutput(op string, req Request, scope string, at time.Time) (string, error) {
	if req.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
			return "", unavailable(op, fmt.Errorf("create export dir: %w", err))
		}
		err := claim(req.OutputPath)
		if errors.Is(err, os.ErrExist) {
			return "", invalid(op, fmt.Errorf("output file %q already exists", req.OutputPath))
		}
		if err != nil {
			return "", unavailable(op, err)
		}
		return req.OutputPath, nil
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return "", unavailable(op, fmt.Errorf("create export dir: %w", err))
	}
	base := strings.TrimSuffix(DefaultFileName(scope, at), ".json")
	for n := 1; n <= maxNameAttempts; n++ {
		name := base + ".json"
		if n > 1 {
			name = fmt.Sprintf("%s-%d.json", base, n)
		}
		path := filepath.Join(req.OutputDir, name)
		err := claim(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", unavailable(op, err)
		}
	}
	return "", unavailable(op, fmt.Errorf("no free file name for %s after %d attempts", base, maxNameAttempts))
}

func claim(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

// discard removes a reserved archive path after a failed export.
func (e *Engine) discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		e.log.Warn("failed to remove export after failure", "path", path, "error", err)
	}
}

func (e *Engine) collect(op string, req Request) (*selection, error) {
	sel := &selection{scope: knowledge.ScopeAll, counts: map[knowledge.EntityType]int{}}
	if req.ProductID != "" {
		p, err := e.src.GetProduct(req.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &knowledge.Error{Op: op, Kind: knowledge.ErrNotFound, Err: fmt.Errorf("product %q not found", req.ProductID)}
		}
		sel.scope = p.ID
		sel.products = []knowledge.Product{*p}
	} else {
		products, err := e.src.ListProducts()
		if err != nil {
			return nil, err
		}
		sel.products = products
	}
	if sel.products == nil {
		sel.products = []knowledge.Product{}
	}

	sel.entities = []knowledge.Entity{}
	for _, p := range sel.products {
		entities, err := e.src.ListEntities(p.ID, knowledge.EntityFilter{})
		if err != nil {
			return nil, err
		}
		for _, ent := range entities {
			if req.Mode == config.ExportIncremental && ent.UpdatedAt.Before(*req.Since) {
				continue
			}
			sel.entities = append(sel.entities, ent)
			sel.counts[ent.Type]++
		}
	}
	return sel, nil
}

func validate(op string, req Request) error {
	if err := config.ValidateExportMode(req.Mode); err != nil {
		return invalid(op, err)
	}
	if req.Mode == config.ExportIncremental && req.Since == nil {
		return invalid(op, errors.New("incremental export needs a since time"))
	}
	return nil
}

func invalid(op string, err error) error {
	return &knowledge.Error{Op: op, Kind: knowledge.ErrValidation, Err: err}
}

func unavailable(op string, err error) error {
	return &knowledge.Error{Op: op, Kind: knowledge.ErrUnavailable, Err: err}
}

// writeArchive encodes v to a temp file next to path and renames it over
// the reserved path.
func writeArchive(path string, v any) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".thoughtbox-export-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err = enc.Encode(v); err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync archive: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename archive: %w", err)
	}
	return nil
}
