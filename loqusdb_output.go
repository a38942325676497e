package labops

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	objectIDPattern = regexp.MustCompile(`ObjectId\('([^']*)'\)`)
	pythonLiterals  = strings.NewReplacer(": None", ": null", ": True", ": true", ": False", ": false")
)

type LoqusdbCase struct {
	ID      string `json:"_id"`
	CaseID  string `json:"case_id"`
	VcfPath string `json:"vcf_path,omitempty"`
}

// ParseLoadedVariants reads the variant count from the log of a load command. The last line
// mentioning inserted variants or the number of variants in the vcf wins; no such line means 0.
func ParseLoadedVariants(output string) (int, error) {
	variants := 0
	for _, line := range strings.Split(output, "\n") {
		parts := strings.Split(line, "INFO")
		message := strings.TrimSpace(parts[len(parts)-1])
		if !strings.Contains(message, "inserted") && !strings.Contains(message, "Nr of variants in vcf") {
			continue
		}
		fields := strings.Split(message, ":")
		count, err := strconv.Atoi(strings.TrimSpace(fields[len(fields)-1]))
		if err != nil {
			return 0, errors.Wrapf(ErrLoqusdbCommandFailed, "unreadable variant count in %q", line)
		}
		variants = count
	}
	return variants, nil
}

// ParseCases reads the output of the cases command, one python dict per line.
func ParseCases(output string) ([]LoqusdbCase, error) {
	cases := make([]LoqusdbCase, 0)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		normalised := objectIDPattern.ReplaceAllString(line, "'$1'")
		normalised = pythonLiterals.Replace(strings.ReplaceAll(normalised, "'", `"`))

		var loqusdbCase LoqusdbCase
		err := json.Unmarshal([]byte(normalised), &loqusdbCase)
		if err != nil {
			return nil, errors.Wrapf(ErrLoqusdbCommandFailed, "unreadable case line %q: %s", line, err)
		}
		cases = append(cases, loqusdbCase)
	}
	return cases, nil
}
