package workflow

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Fix login bug", "fix-login-bug"},
		{"Add OAuth2 support!", "add-oauth2-support"},
		{"  spaces   everywhere  ", "spaces-everywhere"},
		{"UPPER case", "upper-case"},
		{"---", ""},
		{"", ""},
		{"très élégant", "très-élégant"},
	}

	for _, tt := range tests {
		if got := Slugify(tt.title); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestSlugifyTruncates(t *testing.T) {
	long := "this is a very long ticket title that keeps going and going and going"
	got := Slugify(long)
	if len(got) > maxSlugLen+1 {
		t.Errorf("slug too long (%d): %q", len(got), got)
	}
}

func TestBranchName(t *testing.T) {
	tests := []struct {
		id    string
		title string
		want  string
	}{
		{"rk-7", "Fix login bug", "feature/rk-7-fix-login-bug"},
		{"rk-7", "!!!", "feature/rk-7"},
		{"0123456789abcdef", "Short it", "feature/01234567-short-it"},
	}

	for _, tt := range tests {
		if got := BranchName(tt.id, tt.title); got != tt.want {
			t.Errorf("BranchName(%q, %q) = %q, want %q", tt.id, tt.title, got, tt.want)
		}
	}
}
