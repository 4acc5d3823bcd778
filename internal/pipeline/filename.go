package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"reimburse/internal"
)

var (
	payerPattern      = regexp.MustCompile(`(\w+)-(\w+ \w+)\s+\((\w+)\s+(\d{1,2}),\s+(\d{4})\)`)
	sourceFilePattern = regexp.MustCompile(`.+\s\(.+\s+\d{1,2},\s+\d{4}\)\.pdf$`)
)

// ParsePayer reads "<LASTNAME>-<FIRST LAST> (<Month> <Day>, <Year>)" out of
// a report file name. Directories are ignored.
func ParsePayer(name string) (internal.Payer, error) {
	base := filepath.Base(name)
	m := payerPattern.FindStringSubmatch(base)
	if m == nil {
		return internal.Payer{}, fmt.Errorf("%w: %q", ErrFilenameFormat, base)
	}
	return internal.Payer{
		LastName:  m[1],
		FirstName: m[2],
		Month:     m[3],
		Day:       m[4],
		Year:      m[5],
	}, nil
}

// GenerateOutputFilename names the finished form after the payer and the
// date span of the records, e.g. "Reimbursement_JOHN DOE SMITH_03.01-15.24.xlsx"
// or "..._02.28-03.02.24.xlsx" when the span crosses a month.
func GenerateOutputFilename(sourceName string, b internal.DateBounds) (string, error) {
	payer, err := ParsePayer(sourceName)
	if err != nil {
		return "", err
	}
	year := b.EndYear
	if len(year) > 2 {
		year = year[len(year)-2:]
	}
	if b.StartMonth == b.EndMonth {
		return fmt.Sprintf("Reimbursement_%s_%s.%s-%s.%s.xlsx", payer.FullName(), b.EndMonth, b.StartDay, b.EndDay, year), nil
	}
	return fmt.Sprintf("Reimbursement_%s_%s.%s-%s.%s.%s.xlsx", payer.FullName(), b.StartMonth, b.StartDay, b.EndMonth, b.EndDay, year), nil
}

// IsSourceFileName reports whether name looks like an exported expense report.
func IsSourceFileName(name string) bool {
	return sourceFilePattern.MatchString(filepath.Base(name))
}

// FindPDF returns the first report PDF in dir by name. ok is false when the
// directory has none.
func FindPDF(dir string) (path string, ok bool, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsSourceFileName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return "", false, nil
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), true, nil
}
