package calibration

import "context"

// RecordRepository persists the baseline calibration record for the
// current device. Implementations serialize their own internal access;
// the session controller only ever reads. A failed Save is reported to
// the caller and never aborts a calibration that already computed.
type RecordRepository interface {
	Save(ctx context.Context, rec BaselineRecord) error
	// Load returns nil with a nil error when no record has been saved
	// yet. A missing record is the normal first-run state, not a fault.
	Load(ctx context.Context) (*BaselineRecord, error)
	Exists(ctx context.Context) (bool, error)
	Clear(ctx context.Context) error
}
