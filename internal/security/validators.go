package security

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// lowPIDReserved is the upper bound (inclusive) of the PID range treated
// as reserved for system processes; kill targets must be above it.
const lowPIDReserved = 300

// dangerousRmPatterns is a regex-pattern table applied to rm invocations
// specifically.
var dangerousRmPatterns = []struct {
	name  string
	regex *regexp.Regexp
	desc  string
}{
	{"bare_root", regexp.MustCompile(`(?:^|\s)/+\s*$`), "targets the filesystem root"},
	{"rf_root", regexp.MustCompile(`-[a-zA-Z]*[rR][a-zA-Z]*\s+/+\s*$`), "recursive force-delete of root"},
	{"wildcard_root", regexp.MustCompile(`(?:^|\s)/\*+`), "wildcard expansion rooted at /"},
	{"home_wildcard", regexp.MustCompile(`~/?\*\s*$`), "wildcard expansion of the entire home directory"},
}

// validateRm runs rm-specific dangerous-pattern checks against the
// original (untokenized) segment text, since the dangerous shapes
// (trailing bare "/", "-rf /") are easiest to recognize textually.
func validateRm(segment string) (ok bool, reason string) {
	for _, p := range dangerousRmPatterns {
		if p.regex.MatchString(segment) {
			return false, fmt.Sprintf("rm blocked: %s", p.desc)
		}
	}
	return true, ""
}

// validateKill checks that every argument to kill is a numeric PID
// strictly above the reserved low range; a non-numeric argument blocks.
// Flags (signal names like -TERM, -9) never reach it, since nonFlagArgs
// skips them at the call site.
func validateKill(args []string) (ok bool, reason string) {
	for _, a := range args {
		a = strings.TrimPrefix(a, "%") // job-spec prefix, treat numeral as-is
		pid, err := strconv.Atoi(a)
		if err != nil {
			return false, fmt.Sprintf("kill blocked: argument %q is not a numeric PID", a)
		}
		if pid <= lowPIDReserved {
			return false, fmt.Sprintf("kill blocked: PID %d is within the reserved low-PID range (<=%d)", pid, lowPIDReserved)
		}
	}
	return true, ""
}
