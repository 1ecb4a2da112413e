package snapshot

import (
	"errors"
	"time"

	"github.com/HendryAvila/thoughtbox/internal/config"
)

// Overrides are per-call changes to the settings defaults. Nil fields keep
// the default.
type Overrides struct {
	Mode          *config.ExportMode
	SinceDays     *int
	IncludeLinked *bool
	OutputPath    string
}

// BuildRequest applies o on top of RequestFromSettings. SinceDays only
// matters for incremental exports and must be at least 1.
func BuildRequest(st config.Settings, productID string, now time.Time, o Overrides) (Request, error) {
	const op = "build export request"
	req := RequestFromSettings(st, productID, now)
	if o.Mode != nil {
		if err := config.ValidateExportMode(*o.Mode); err != nil {
			return Request{}, invalid(op, err)
		}
		req.Mode = *o.Mode
	}
	if o.IncludeLinked != nil {
		req.IncludeLinked = *o.IncludeLinked
	}
	req.OutputPath = o.OutputPath

	req.Since = nil
	if req.Mode == config.ExportIncremental {
		days := st.DefaultIncrementalDays
		if o.SinceDays != nil {
			days = *o.SinceDays
		}
		if days < 1 {
			return Request{}, invalid(op, errors.New("since days must be at least 1"))
		}
		since := now.UTC().AddDate(0, 0, -days)
		req.Since = &since
	}
	return req, nil
}
