// Package fingerprint derives the stable identifier for a death record.
// Records describing the same death always hash to the same UUID, which is
// what makes repeated batch runs idempotent.
package fingerprint

import (
	"strings"

	"github.com/google/uuid"
)

// Namespace for record identifiers. Changing it would re-key every record in
// the dataset, so it is fixed.
var namespace = uuid.MustParse("7c9e2f41-8b3a-4d6e-9f12-a4b8c0d35e76")

// RecordIdentity names the fields an identifier is derived from.
type RecordIdentity struct {
	PersonName  string
	DateOfDeath string
	LocationKey string
	Context     string
}

// ID produces the deterministic UUID for a record identity. Named records
// hash on name, date, and location; unnamed records fall back to date,
// location, and context.
func ID(identity RecordIdentity) string {
	var base string
	if identity.PersonName != "" {
		base = strings.Join([]string{identity.PersonName, identity.DateOfDeath, identity.LocationKey}, "|")
	} else {
		base = strings.Join([]string{identity.DateOfDeath, identity.LocationKey, identity.Context}, "|")
	}
	base = strings.ToLower(base)
	return uuid.NewSHA1(namespace, []byte(base)).String()
}
