package sfcli

import (
	"fmt"
	"strconv"
	"strings"
)

// Binary is the executable name used when rendering commands for logs.
const Binary = "sf"

// Command is one CLI invocation as an argv (binary excluded). Arguments are
// never passed through a shell.
type Command struct {
	Args []string
}

// String renders the command the way a user would type it. Only used for
// logs, metrics and test fakes.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, Binary)
	for _, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			parts = append(parts, strconv.Quote(a))
			continue
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Name is a short, cardinality-safe label: the leading subcommand words.
func (c Command) Name() string {
	var words []string
	for _, a := range c.Args {
		if strings.HasPrefix(a, "-") || len(words) == 3 {
			break
		}
		words = append(words, a)
	}
	return strings.Join(words, " ")
}

// ListOrgs lists every org the CLI is authorized against.
func ListOrgs() Command {
	return Command{Args: []string{"org", "list", "--json"}}
}

// Query runs a SOQL query against targetOrg.
func Query(soql, targetOrg string) Command {
	return Command{Args: []string{"data", "query", "--query", soql, "--target-org", targetOrg, "--json"}}
}

// ListLimits lists the API limits of targetOrg.
func ListLimits(targetOrg string) Command {
	return Command{Args: []string{"org", "list", "limits", "--target-org", targetOrg, "--json"}}
}

// DeleteRecord deletes one record of sobject on targetOrg.
func DeleteRecord(sobject, recordID, targetOrg string) Command {
	return Command{Args: []string{
		"data", "delete", "record",
		"--sobject", sobject,
		"--record-id", recordID,
		"--target-org", targetOrg,
		"--json",
	}}
}

// DeleteScratchOrg deletes a locally authenticated scratch org.
func DeleteScratchOrg(targetOrg, devHub string) Command {
	return Command{Args: []string{
		"org", "delete", "scratch",
		"--target-org", targetOrg,
		"--target-dev-hub", devHub,
		"--no-prompt",
		"--json",
	}}
}

// ValidateOrgRef rejects usernames/aliases that could be read as a flag or
// that carry control characters.
func ValidateOrgRef(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("org reference is empty")
	}
	if strings.HasPrefix(ref, "-") {
		return fmt.Errorf("org reference %q must not start with '-'", ref)
	}
	for _, r := range ref {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("org reference %q contains control characters", ref)
		}
	}
	return nil
}
