package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"roadsense/internal/calibration"
)

// SQLiteRepository keeps the baseline record in a single-row table. The
// record is keyed implicitly by "current device", so the row id is fixed
// and a save replaces the record wholesale.
type SQLiteRepository struct {
	db *sql.DB
}

var _ calibration.RecordRepository = (*SQLiteRepository)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS baseline_calibration (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	device_orientation TEXT NOT NULL,
	accel_x REAL NOT NULL,
	accel_y REAL NOT NULL,
	accel_z REAL NOT NULL,
	gyro_x REAL NOT NULL,
	gyro_y REAL NOT NULL,
	gyro_z REAL NOT NULL,
	calibration_timestamp INTEGER NOT NULL
)`

// OpenSQLiteRepository opens (or creates) the database at path. Access is
// serialized over a single connection; SQLite does not benefit from
// concurrent writers here and the caller is a single calibration flow.
func OpenSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) Save(ctx context.Context, rec calibration.BaselineRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO baseline_calibration
			(id, device_orientation, accel_x, accel_y, accel_z, gyro_x, gyro_y, gyro_z, calibration_timestamp)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			device_orientation = excluded.device_orientation,
			accel_x = excluded.accel_x,
			accel_y = excluded.accel_y,
			accel_z = excluded.accel_z,
			gyro_x = excluded.gyro_x,
			gyro_y = excluded.gyro_y,
			gyro_z = excluded.gyro_z,
			calibration_timestamp = excluded.calibration_timestamp`,
		rec.DeviceOrientation.String(),
		rec.AccelX, rec.AccelY, rec.AccelZ,
		rec.GyroX, rec.GyroY, rec.GyroZ,
		rec.CalibrationTimestamp,
	)
	if err != nil {
		return fmt.Errorf("store: save record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context) (*calibration.BaselineRecord, error) {
	var (
		orientation string
		rec         calibration.BaselineRecord
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT device_orientation, accel_x, accel_y, accel_z, gyro_x, gyro_y, gyro_z, calibration_timestamp
		FROM baseline_calibration WHERE id = 1`).Scan(
		&orientation,
		&rec.AccelX, &rec.AccelY, &rec.AccelZ,
		&rec.GyroX, &rec.GyroY, &rec.GyroZ,
		&rec.CalibrationTimestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: load record: %w", err)
	}
	rec.DeviceOrientation = calibration.ParseOrientation(orientation)
	return &rec, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM baseline_calibration WHERE id = 1`).Scan(&n); err != nil {
		return false, fmt.Errorf("store: exists: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM baseline_calibration WHERE id = 1`); err != nil {
		return fmt.Errorf("store: clear: %w", err)
	}
	return nil
}
