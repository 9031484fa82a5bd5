package git

import (
	"fmt"
	"regexp"

	pcErrors "github.com/bashhack/periodic-commit/internal/errors"
)

// DefaultPrefixRegex matches ticket IDs such as INSTA-1234.
const DefaultPrefixRegex = `(INSTA-\d+)`

// CompilePrefixRegex compiles a ticket prefix expression. The expression
// must have at least one capture group; group 1 is the ticket ID.
func CompilePrefixRegex(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("expression %q has no capture group for the ticket ID", expr)
	}
	return re, nil
}

// ExtractTicketID returns capture group 1 of re matched at the start of
// branch. Matches that begin later in the name do not count, so
// "feature/INSTA-1" does not yield a ticket with the default expression.
func ExtractTicketID(branch string, re *regexp.Regexp) (string, error) {
	loc := re.FindStringSubmatchIndex(branch)
	if loc == nil || loc[0] != 0 || len(loc) < 4 || loc[2] < 0 {
		return "", pcErrors.Wrapf(pcErrors.ErrTicketNotFound, "branch %q does not match %q", branch, re.String())
	}
	return branch[loc[2]:loc[3]], nil
}

// FormatCommitMessage prefixes body with the bracketed ticket ID.
func FormatCommitMessage(ticketID, body string) string {
	return fmt.Sprintf("[%s] %s", ticketID, body)
}
