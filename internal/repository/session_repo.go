package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"evtrack/internal/models"
)

// ErrRecordNotFound indicates a missing charging record.
var ErrRecordNotFound = errors.New("charging record not found")

const sessionColumns = `id, user_id, ts, energy_kwh, cost_total, cost_per_kwh, peak_kw,
	location, latitude, longitude, provider, duration, odometer, source`

// SessionRepository handles persistence of charging sessions. Every query is
// scoped by user_id: one user's dataset is never visible to another.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// InsertSessions writes records for a user, skipping ids already present.
// Import is append-only: content-hash ids make re-imports of the same
// receipts no-ops. Returns how many rows were actually inserted.
func (r *SessionRepository) InsertSessions(ctx context.Context, userID int64, sessions []models.ChargingSession) (int, error) {
	const query = `
		INSERT INTO charging_sessions
			(id, user_id, ts, energy_kwh, cost_total, cost_per_kwh, peak_kw,
			 location, latitude, longitude, provider, duration, odometer, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`
	inserted := 0
	for _, s := range sessions {
		result, err := r.db.ExecContext(ctx, query,
			s.ID,
			userID,
			nullTime(s),
			s.EnergyKWh,
			s.CostTotal,
			s.CostPerKWh,
			nullFloat(s.PeakPowerKW),
			s.Location,
			nullFloat(latitude(s.Coordinates)),
			nullFloat(longitude(s.Coordinates)),
			s.Provider,
			s.Duration,
			nullFloat(s.Odometer),
			string(s.Source),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert session %s: %w", s.ID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return inserted, err
		}
		inserted += int(affected)
	}
	return inserted, nil
}

// GetByUser returns the user's full dataset, newest first; records without a
// timestamp sort last.
func (r *SessionRepository) GetByUser(ctx context.Context, userID int64) ([]models.ChargingSession, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM charging_sessions
		WHERE user_id = $1
		ORDER BY ts DESC NULLS LAST, id
	`, sessionColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.ChargingSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetByID fetches one record owned by the user.
func (r *SessionRepository) GetByID(ctx context.Context, userID int64, id string) (*models.ChargingSession, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM charging_sessions
		WHERE user_id = $1 AND id = $2
	`, sessionColumns)

	row := r.db.QueryRowContext(ctx, query, userID, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Update overwrites an existing record owned by the user.
func (r *SessionRepository) Update(ctx context.Context, userID int64, s models.ChargingSession) error {
	const query = `
		UPDATE charging_sessions
		SET ts = $3,
		    energy_kwh = $4,
		    cost_total = $5,
		    cost_per_kwh = $6,
		    peak_kw = $7,
		    location = $8,
		    latitude = $9,
		    longitude = $10,
		    provider = $11,
		    duration = $12,
		    odometer = $13,
		    updated_at = NOW()
		WHERE user_id = $1 AND id = $2
	`
	result, err := r.db.ExecContext(ctx, query,
		userID,
		s.ID,
		nullTime(s),
		s.EnergyKWh,
		s.CostTotal,
		s.CostPerKWh,
		nullFloat(s.PeakPowerKW),
		s.Location,
		nullFloat(latitude(s.Coordinates)),
		nullFloat(longitude(s.Coordinates)),
		s.Provider,
		s.Duration,
		nullFloat(s.Odometer),
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DeleteByIDs removes records owned by the user, returning how many existed.
func (r *SessionRepository) DeleteByIDs(ctx context.Context, userID int64, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		DELETE FROM charging_sessions
		WHERE user_id = $1 AND id IN (%s)
	`, strings.Join(placeholders, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// SetCoordinates stores geocoded coordinates for one record.
func (r *SessionRepository) SetCoordinates(ctx context.Context, userID int64, id string, point orb.Point) error {
	const query = `
		UPDATE charging_sessions
		SET latitude = $3, longitude = $4, updated_at = NOW()
		WHERE user_id = $1 AND id = $2
	`
	_, err := r.db.ExecContext(ctx, query, userID, id, point.Lat(), point.Lon())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (models.ChargingSession, error) {
	var (
		s        models.ChargingSession
		ts       sql.NullTime
		peak     sql.NullFloat64
		lat, lon sql.NullFloat64
		odometer sql.NullFloat64
		source   string
	)
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&ts,
		&s.EnergyKWh,
		&s.CostTotal,
		&s.CostPerKWh,
		&peak,
		&s.Location,
		&lat,
		&lon,
		&s.Provider,
		&s.Duration,
		&odometer,
		&source,
	)
	if err != nil {
		return models.ChargingSession{}, err
	}

	if ts.Valid {
		s.Timestamp = ts.Time.UTC()
	}
	if peak.Valid {
		s.PeakPowerKW = &peak.Float64
	}
	if odometer.Valid {
		s.Odometer = &odometer.Float64
	}
	if lat.Valid && lon.Valid {
		point := orb.Point{lon.Float64, lat.Float64}
		s.Coordinates = &point
	}
	s.Source = models.Source(source)
	return s, nil
}

func nullTime(s models.ChargingSession) sql.NullTime {
	if !s.HasTimestamp() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: s.Timestamp, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func latitude(p *orb.Point) *float64 {
	if p == nil {
		return nil
	}
	lat := p.Lat()
	return &lat
}

func longitude(p *orb.Point) *float64 {
	if p == nil {
		return nil
	}
	lon := p.Lon()
	return &lon
}
