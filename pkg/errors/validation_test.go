package errors

import (
	"testing"
)

func TestValidateDumpKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"flathub", "flathub", false},
		{"gitlab instance", "gitlab_gnome_org", false},
		{"search", "github_repo_search_flatpak", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 200)), true},
		{"slash", "a/b", true},
		{"traversal", "..", true},
		{"backslash", "a\\b", true},
		{"control char", "foo\x01bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDumpKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDumpKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRecordID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"project id", "com.github.louib.fpm", false},
		{"dashes", "org.gnome.gitlab.GNOME.gnome-builder", false},

		{"empty", "", true},
		{"slash", "com/github", true},
		{"traversal", "com..github", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecordID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRecordID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidIdentifier) {
				t.Errorf("ValidateRecordID(%q) code = %v", tt.input, GetCode(err))
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://github.com/louib/fpm.git", false},
		{"http", "http://ftp.gnu.org/gnu/autoconf/autoconf-2.13.tar.gz", false},
		{"empty", "", true},
		{"git scheme", "git://example.org/repo.git", true},
		{"file scheme", "file:///tmp/repo", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"manifest", "com.example.App.yaml", false},
		{"nested", "build-aux/flatpak/org.gnome.App.json", false},
		{"with dots", "v1.2.3/meson.build", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"absolute path", "/etc/passwd", true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "foo/../bar", true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidFormat,
		ErrCodeInvalidManifest,
		ErrCodeInvalidModule,
		ErrCodeInvalidIdentifier,
		ErrCodeInvalidPath,
		ErrCodeNotFound,
		ErrCodeFileNotFound,
		ErrCodeNetwork,
		ErrCodeCloneFailed,
		ErrCodeUnauthorized,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
