package service

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"evtrack/internal/models"
)

// assignID fills an empty record ID. Imported records get a content hash so
// re-importing the same receipt dedupes against the stored dataset; manual
// entries get a random id because a user may legitimately enter two
// identical-looking sessions.
func assignID(s *models.ChargingSession) {
	if s.ID != "" {
		return
	}
	if s.Source == models.SourceManual {
		s.ID = uuid.NewString()
		return
	}
	s.ID = contentID(*s)
}

// contentID hashes the identifying fields of a record, matching its identity
// across repeated imports of the same source data.
func contentID(s models.ChargingSession) string {
	fields := make([]string, 0, 8)
	if s.HasTimestamp() {
		fields = append(fields, s.Timestamp.Format("2006-01-02 15:04:05"))
	}
	for _, f := range []string{s.Provider, s.Location, s.Duration, string(s.Source)} {
		if f != "" {
			fields = append(fields, f)
		}
	}
	if s.EnergyKWh > 0 {
		fields = append(fields, fmt.Sprintf("%.3f", s.EnergyKWh))
	}
	if s.CostTotal > 0 {
		fields = append(fields, fmt.Sprintf("%.2f", s.CostTotal))
	}
	if s.Odometer != nil {
		fields = append(fields, fmt.Sprintf("%.1f", *s.Odometer))
	}

	sum := md5.Sum([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}
