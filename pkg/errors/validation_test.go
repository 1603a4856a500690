package errors

import (
	"strings"
	"testing"
)

func TestValidateLimit(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"one", "1", 1, false},
		{"many", "25", 25, false},

		{"empty", "", 0, true},
		{"zero", "0", 0, true},
		{"leading zero", "01", 0, true},
		{"negative", "-3", 0, true},
		{"plus sign", "+3", 0, true},
		{"letters", "abc", 0, true},
		{"decimal", "1.5", 0, true},
		{"overflow", strings.Repeat("9", 40), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateLimit(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateLimit(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeUsage) {
				t.Errorf("ValidateLimit(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeUsage)
			}
			if got != tt.want {
				t.Errorf("ValidateLimit(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateAbsoluteURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://github.com/owner/repo", false},
		{"http", "http://example.com/", false},

		{"empty", "", true},
		{"relative", "/owner/repo", true},
		{"no host", "https:///path", true},
		{"ftp", "ftp://example.com/file", true},
		{"malformed", "https://exa mple.com/%zz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAbsoluteURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAbsoluteURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCacheKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"url", "https://hexo.io/themes/", false},
		{"empty", "", true},
		{"newline", "https://a\nb", true},
		{"null byte", "key\x00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCacheKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateCacheKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvariant) {
				t.Errorf("ValidateCacheKey(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvariant)
			}
		})
	}
}
