package sfcli

import (
	"regexp"
	"strings"
)

var recordIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{15}([a-zA-Z0-9]{3})?$`)

// IsRecordID reports whether s has the shape of a 15 or 18 character Salesforce id.
func IsRecordID(s string) bool {
	return recordIDPattern.MatchString(s)
}

// QuoteLiteral renders s as a SOQL string literal.
func QuoteLiteral(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}
