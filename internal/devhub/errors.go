package devhub

import (
	"errors"
	"strings"
)

var (
	// ErrFeatureUnavailable marks snapshot lookups on DevHubs where the
	// OrgSnapshot object is not provisioned or not accessible.
	ErrFeatureUnavailable = errors.New("org snapshots are not available on this dev hub")

	// ErrScratchOrgNotFound is returned when neither deletion path found the scratch org.
	ErrScratchOrgNotFound = errors.New("no ActiveScratchOrg record found")
)

// Error fragments the CLI reports when snapshots cannot be queried.
var unavailableSignatures = []string{
	"sObject type 'OrgSnapshot' is not supported",
	"INVALID_TYPE",
	"insufficient access",
	"not authorized",
	"INSUFFICIENT_ACCESS",
}

// IsUnavailableError reports whether err means "feature not provisioned or
// no permission" rather than a transient failure.
func IsUnavailableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrFeatureUnavailable) {
		return true
	}
	msg := err.Error()
	for _, sig := range unavailableSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
