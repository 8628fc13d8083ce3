package model

import "testing"

// TestIsContactForm tests the contact-form acceptance predicate.
func TestIsContactForm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields map[Role]RawField
		want   bool
	}{
		{
			name: "email and message is accepted",
			fields: map[Role]RawField{
				RoleEmail:   {Name: "email"},
				RoleMessage: {Name: "message"},
			},
			want: true,
		},
		{
			name: "email and name is accepted",
			fields: map[Role]RawField{
				RoleEmail: {Name: "email"},
				RoleName:  {Name: "full_name"},
			},
			want: true,
		},
		{
			name: "email alone is rejected",
			fields: map[Role]RawField{
				RoleEmail: {Name: "email"},
			},
			want: false,
		},
		{
			name: "name and message without email is rejected",
			fields: map[Role]RawField{
				RoleName:    {Name: "name"},
				RoleMessage: {Name: "message"},
			},
			want: false,
		},
		{
			name:   "empty map is rejected",
			fields: map[Role]RawField{},
			want:   false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsContactForm(tt.fields); got != tt.want {
				t.Errorf("IsContactForm() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestReasonCodeDescription tests reason code descriptions.
func TestReasonCodeDescription(t *testing.T) {
	t.Parallel()

	t.Run("known code has description", func(t *testing.T) {
		t.Parallel()

		got := ReasonHoneypotDetected.Description()
		if got != "Honeypot detectado, envío omitido" {
			t.Errorf("unexpected description: %q", got)
		}
	})

	t.Run("unknown code falls back to the code itself", func(t *testing.T) {
		t.Parallel()

		code := ReasonCode("SOMETHING_ELSE")
		if got := code.Description(); got != "SOMETHING_ELSE" {
			t.Errorf("expected code itself, got %q", got)
		}
	})
}

// TestNewCrawlResult tests result construction from task state.
func TestNewCrawlResult(t *testing.T) {
	t.Parallel()

	task := NewDomainTask("example.com", "")
	task.Emails["zeta@example.com"] = true
	task.Emails["alpha@example.com"] = true
	task.Forms = append(task.Forms, &FormData{URL: "https://example.com/contact"})

	result := NewCrawlResult(task)

	if len(result.Forms) != 1 {
		t.Fatalf("expected 1 form, got %d", len(result.Forms))
	}
	want := []string{"alpha@example.com", "zeta@example.com"}
	if len(result.Emails) != len(want) {
		t.Fatalf("expected %d emails, got %d", len(want), len(result.Emails))
	}
	for i, email := range want {
		if result.Emails[i] != email {
			t.Errorf("emails[%d] = %q, want %q", i, result.Emails[i], email)
		}
	}
}
