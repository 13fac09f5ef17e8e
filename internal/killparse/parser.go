package killparse

import (
	"regexp"

	"github.com/tinytelemetry/killfeed/internal/model"
)

// KillLineRegex matches an actor death notice. Bracketed actor IDs are matched
// and discarded.
var KillLineRegex = regexp.MustCompile(
	`<(?P<timestamp>[0-9\-T:.Z]+)> \[Notice\] <Actor Death> CActor::Kill: ` +
		`'(?P<victim>[^']*)' \[\d+\] in zone '(?P<zone>[^']*)' ` +
		`killed by '(?P<killer>[^']*)' \[\d+\] using '(?P<weapon>[^']*)' \[Class unknown\] ` +
		`with damage type '(?P<damage>[^']*)' from direction`,
)

var (
	idxTimestamp = KillLineRegex.SubexpIndex("timestamp")
	idxVictim    = KillLineRegex.SubexpIndex("victim")
	idxZone      = KillLineRegex.SubexpIndex("zone")
	idxKiller    = KillLineRegex.SubexpIndex("killer")
	idxWeapon    = KillLineRegex.SubexpIndex("weapon")
	idxDamage    = KillLineRegex.SubexpIndex("damage")
)

// ParseLine extracts a kill notice from one log line. Lines that are not kill
// notices return ok=false.
func ParseLine(line string) (model.RawMatch, bool) {
	m := KillLineRegex.FindStringSubmatch(line)
	if m == nil {
		return model.RawMatch{}, false
	}
	return model.RawMatch{
		Timestamp:  m[idxTimestamp],
		Victim:     m[idxVictim],
		Zone:       m[idxZone],
		Killer:     m[idxKiller],
		Weapon:     m[idxWeapon],
		DamageType: m[idxDamage],
	}, true
}
