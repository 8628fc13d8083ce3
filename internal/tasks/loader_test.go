package tasks

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLoadDomains tests CSV parsing, comments, and deduplication.
func TestLoadDomains(t *testing.T) {
	t.Parallel()

	t.Run("domains with and without emails", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "domains.csv")
		content := `# targets for this week
example.com,info@example.com
example.org

EXAMPLE.COM,other@example.com
  spaced.example.net , Contact@Spaced.example.NET
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		tasks, err := LoadDomains(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(tasks) != 3 {
			t.Fatalf("expected 3 tasks, got %d", len(tasks))
		}

		if tasks[0].Domain != "example.com" || tasks[0].TargetEmail != "info@example.com" {
			t.Errorf("tasks[0] = %q/%q", tasks[0].Domain, tasks[0].TargetEmail)
		}
		if tasks[1].Domain != "example.org" || tasks[1].TargetEmail != "" {
			t.Errorf("tasks[1] = %q/%q", tasks[1].Domain, tasks[1].TargetEmail)
		}
		// Duplicate EXAMPLE.COM keeps the first row's email.
		if tasks[0].TargetEmail != "info@example.com" {
			t.Errorf("duplicate domain should keep first email, got %q", tasks[0].TargetEmail)
		}
		if tasks[2].Domain != "spaced.example.net" || tasks[2].TargetEmail != "contact@spaced.example.net" {
			t.Errorf("tasks[2] = %q/%q, want trimmed lowercase", tasks[2].Domain, tasks[2].TargetEmail)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "domains.csv")
		if err := os.WriteFile(path, []byte("# only comments\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		_, err := LoadDomains(path)
		if !errors.Is(err, ErrNoDomains) {
			t.Errorf("expected ErrNoDomains, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadDomains(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

// TestCreateSampleFile tests template creation and overwrite protection.
func TestCreateSampleFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "domains.csv")

	if err := CreateSampleFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "example.com") {
		t.Error("sample should contain an example row")
	}

	// The sample must itself be loadable.
	tasks, err := LoadDomains(path)
	if err != nil {
		t.Fatalf("sample file should parse: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("sample should yield 2 tasks, got %d", len(tasks))
	}

	if err := CreateSampleFile(path); err == nil {
		t.Error("expected error when file already exists")
	}
}
