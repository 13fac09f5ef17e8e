package killparse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tinytelemetry/killfeed/internal/model"
)

// ErrMissingField is returned when a required kill field is blank.
var ErrMissingField = errors.New("missing required field")

// BuildRecord turns a match into a dispatchable record. Details folds in the
// damage type and the reporting username and is never validated.
func BuildRecord(m model.RawMatch, username string) (model.KillRecord, error) {
	rec := model.KillRecord{
		Killer:    m.Killer,
		Victim:    m.Victim,
		Weapon:    m.Weapon,
		Location:  m.Zone,
		Timestamp: m.Timestamp,
		EventId:   model.DefaultEventID,
		Details:   fmt.Sprintf("DamageType: %s; Username: %s", m.DamageType, username),
	}
	if err := Validate(rec); err != nil {
		return model.KillRecord{}, err
	}
	return rec, nil
}

// Validate checks that every required field is non-blank after trimming.
func Validate(rec model.KillRecord) error {
	required := []struct {
		name  string
		value string
	}{
		{"Killer", rec.Killer},
		{"Victim", rec.Victim},
		{"Weapon", rec.Weapon},
		{"Location", rec.Location},
		{"Timestamp", rec.Timestamp},
		{"EventId", rec.EventId},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	return nil
}
