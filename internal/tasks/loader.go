package tasks

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/selvaggiesteban/form-tester/internal/model"
)

// ErrNoDomains is returned when the domains file contains no usable rows.
var ErrNoDomains = errors.New("domains file contains no domains")

// sampleDomainsFile is written by CreateSampleFile so a new user has a
// template to edit instead of guessing the format.
const sampleDomainsFile = `# One domain per line, optional contact email in the second column.
# Lines starting with '#' are ignored.
example.com,info@example.com
example.org
`

// LoadDomains reads the domains CSV file and returns one task per row.
//
// Each row is "domain" or "domain,email". A header row is not expected;
// rows whose first column contains '#' as the first character are
// treated as comments. Duplicate domains keep the first occurrence so a
// careless paste does not process a site twice.
func LoadDomains(path string) ([]*model.DomainTask, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided domains path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open domains file: %w", err)
	}
	defer f.Close()

	return parseDomains(f)
}

// parseDomains reads tasks from CSV data.
func parseDomains(r io.Reader) ([]*model.DomainTask, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows may have 1 or 2 columns
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	tasks := make([]*model.DomainTask, 0)
	seen := make(map[string]bool)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse domains file: %w", err)
		}

		domain := strings.ToLower(strings.TrimSpace(record[0]))
		if domain == "" || seen[domain] {
			continue
		}
		seen[domain] = true

		email := ""
		if len(record) > 1 {
			email = strings.ToLower(strings.TrimSpace(record[1]))
		}

		tasks = append(tasks, model.NewDomainTask(domain, email))
	}

	if len(tasks) == 0 {
		return nil, ErrNoDomains
	}

	return tasks, nil
}

// CreateSampleFile writes a template domains file at path. It refuses to
// overwrite an existing file.
func CreateSampleFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	}

	if err := os.WriteFile(path, []byte(sampleDomainsFile), 0o600); err != nil {
		return fmt.Errorf("failed to write sample file: %w", err)
	}

	return nil
}
