package loader

import (
	"regexp"
	"strings"
)

// failedCustomers returns the distinct customer keys matched by re in stdout,
// in output order. Group 1 of re is the key.
func failedCustomers(stdout string, re *regexp.Regexp) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, line := range strings.Split(stdout, "\n") {
		m := re.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if len(m) < 2 || m[1] == "" {
			continue
		}
		id := strings.TrimRight(m[1], ";,")
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
