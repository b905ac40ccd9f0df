package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"evtrack/internal/metrics"
	"evtrack/internal/models"
	"evtrack/internal/normalize"
	"evtrack/internal/repository"
	"evtrack/internal/ws"
)

// ErrUnparseableRecord is returned when a submitted record resolves neither
// a timestamp nor an energy value.
var ErrUnparseableRecord = errors.New("record has no resolvable timestamp or energy value")

// Locator resolves a location name to coordinates, best effort.
type Locator interface {
	Locate(ctx context.Context, location string) *orb.Point
}

// ImportResult reports the outcome of one import batch.
type ImportResult struct {
	Received   int
	Dropped    int
	Inserted   int
	Duplicates int
}

// Dashboard bundles everything a dashboard render needs: the enriched record
// set, the chart aggregates and the headline summary. Recomputed per call.
type Dashboard struct {
	Sessions        []models.DerivedSession
	Aggregates      models.Aggregates
	EfficiencyTrend []float64
	Summary         models.Summary
}

// ListFilter narrows a charging-data listing.
type ListFilter struct {
	Provider  string
	Location  string
	StartDate *time.Time
	EndDate   *time.Time
}

// SessionsService orchestrates normalization, persistence and derivation for
// one user's dataset.
type SessionsService struct {
	repo    *repository.SessionRepository
	locator Locator
	hub     *ws.Hub
	logger  *zap.Logger
}

// NewSessionsService builds service.
func NewSessionsService(repo *repository.SessionRepository, locator Locator, hub *ws.Hub, logger *zap.Logger) *SessionsService {
	return &SessionsService{
		repo:    repo,
		locator: locator,
		hub:     hub,
		logger:  logger,
	}
}

// ImportRecords normalizes raw importer records and appends the resulting
// sessions to the user's dataset. Data-quality problems never fail the batch;
// they show up in the result counts.
func (s *SessionsService) ImportRecords(ctx context.Context, userID int64, raw []normalize.RawRecord) (ImportResult, error) {
	sessions, dropped := normalize.Normalize(raw)
	for i := range sessions {
		assignID(&sessions[i])
	}

	inserted, err := s.repo.InsertSessions(ctx, userID, sessions)
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{
		Received:   len(raw),
		Dropped:    dropped,
		Inserted:   inserted,
		Duplicates: len(sessions) - inserted,
	}

	s.logger.Info("import finished",
		zap.Int64("user_id", userID),
		zap.Int("received", result.Received),
		zap.Int("inserted", result.Inserted),
		zap.Int("dropped", result.Dropped),
		zap.Int("duplicates", result.Duplicates),
	)

	if inserted > 0 {
		s.geocodeMissing(ctx, userID, sessions)
		if s.hub != nil {
			s.hub.Broadcast(ws.Event{Kind: ws.EventSessionsImported, UserID: userID, Count: inserted})
		}
	}
	return result, nil
}

// geocodeMissing backfills coordinates for freshly imported records. Failures
// only cost the map marker, so they are logged and swallowed.
func (s *SessionsService) geocodeMissing(ctx context.Context, userID int64, sessions []models.ChargingSession) {
	if s.locator == nil {
		return
	}
	for _, session := range sessions {
		if session.Coordinates != nil || session.Location == "" {
			continue
		}
		point := s.locator.Locate(ctx, session.Location)
		if point == nil {
			continue
		}
		if err := s.repo.SetCoordinates(ctx, userID, session.ID, *point); err != nil {
			s.logger.Warn("failed to store coordinates", zap.String("record_id", session.ID), zap.Error(err))
		}
	}
}

// ListSessions returns the user's enriched dataset, optionally filtered.
// Filters apply before derivation so distance gaps reflect the visible set.
func (s *SessionsService) ListSessions(ctx context.Context, userID int64, filter ListFilter) ([]models.DerivedSession, error) {
	sessions, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions = applyFilter(sessions, filter)
	enriched, _ := metrics.Derive(sessions)
	return enriched, nil
}

// GetSession fetches one record.
func (s *SessionsService) GetSession(ctx context.Context, userID int64, id string) (*models.ChargingSession, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// AddManualEntry normalizes one manually entered record and stores it.
func (s *SessionsService) AddManualEntry(ctx context.Context, userID int64, raw normalize.RawRecord) (*models.ChargingSession, error) {
	raw = cloneRaw(raw)
	raw["source"] = string(models.SourceManual)

	sessions, _ := normalize.Normalize([]normalize.RawRecord{raw})
	if len(sessions) == 0 {
		return nil, ErrUnparseableRecord
	}

	session := sessions[0]
	assignID(&session)
	session.UserID = userID

	if _, err := s.repo.InsertSessions(ctx, userID, []models.ChargingSession{session}); err != nil {
		return nil, err
	}

	s.geocodeMissing(ctx, userID, []models.ChargingSession{session})
	if s.hub != nil {
		s.hub.Broadcast(ws.Event{Kind: ws.EventSessionsImported, UserID: userID, Count: 1})
	}
	return &session, nil
}

// UpdateSession re-normalizes an edited record and overwrites it in place.
func (s *SessionsService) UpdateSession(ctx context.Context, userID int64, id string, raw normalize.RawRecord) (*models.ChargingSession, error) {
	existing, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	sessions, _ := normalize.Normalize([]normalize.RawRecord{cloneRaw(raw)})
	if len(sessions) == 0 {
		return nil, ErrUnparseableRecord
	}

	updated := sessions[0]
	updated.ID = existing.ID
	updated.UserID = userID
	updated.Source = existing.Source
	if err := s.repo.Update(ctx, userID, updated); err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.Broadcast(ws.Event{Kind: ws.EventSessionUpdated, UserID: userID, ID: id})
	}
	return &updated, nil
}

// DeleteSessions removes records by id.
func (s *SessionsService) DeleteSessions(ctx context.Context, userID int64, ids []string) (int, error) {
	deleted, err := s.repo.DeleteByIDs(ctx, userID, ids)
	if err != nil {
		return 0, err
	}
	if deleted > 0 && s.hub != nil {
		s.hub.Broadcast(ws.Event{Kind: ws.EventSessionsDeleted, UserID: userID, Count: deleted})
	}
	return deleted, nil
}

// BuildDashboard recomputes the derived view of the user's dataset. Nothing
// here is cached: the dataset may change between calls via import or edit.
func (s *SessionsService) BuildDashboard(ctx context.Context, userID int64) (Dashboard, error) {
	sessions, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}

	enriched, aggregates := metrics.Derive(sessions)
	return Dashboard{
		Sessions:        enriched,
		Aggregates:      aggregates,
		EfficiencyTrend: metrics.EfficiencyTrend(enriched),
		Summary:         metrics.Summarize(sessions),
	}, nil
}

func applyFilter(sessions []models.ChargingSession, filter ListFilter) []models.ChargingSession {
	provider := strings.ToLower(strings.TrimSpace(filter.Provider))
	location := strings.ToLower(strings.TrimSpace(filter.Location))
	if provider == "" && location == "" && filter.StartDate == nil && filter.EndDate == nil {
		return sessions
	}

	filtered := make([]models.ChargingSession, 0, len(sessions))
	for _, s := range sessions {
		if provider != "" && !strings.Contains(strings.ToLower(s.Provider), provider) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(s.Location), location) {
			continue
		}
		if filter.StartDate != nil && (!s.HasTimestamp() || s.Timestamp.Before(*filter.StartDate)) {
			continue
		}
		if filter.EndDate != nil && (!s.HasTimestamp() || s.Timestamp.After(*filter.EndDate)) {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}

func cloneRaw(raw normalize.RawRecord) normalize.RawRecord {
	clone := make(normalize.RawRecord, len(raw))
	for k, v := range raw {
		clone[k] = v
	}
	return clone
}
