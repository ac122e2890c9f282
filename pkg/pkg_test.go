package pkg

import (
	"os"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("read VERSION: %v", err)
	}

	if want := strings.TrimSpace(string(buf)); Version != want {
		t.Errorf("Version = %q, want %q", Version, want)
	}

	if strings.ContainsAny(Version, " \n") {
		t.Errorf("Version %q contains whitespace", Version)
	}
}

func TestExtensions(t *testing.T) {
	if PackageExt != ".jvavpkg" || SourceExt != ".jvav" {
		t.Errorf("extensions = %q %q", PackageExt, SourceExt)
	}
}

func TestAuthorInfo_String(t *testing.T) {
	tests := []struct {
		a    AuthorInfo
		want string
	}{
		{AuthorInfo{"ardnew", "andrew@ardnew.com"}, "ardnew <andrew@ardnew.com>"},
		{AuthorInfo{Name: "ardnew"}, "ardnew"},
		{AuthorInfo{Email: "a@b.c"}, "<a@b.c>"},
	}

	for _, tt := range tests {
		if got := tt.a.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}

	for i, a := range Author {
		if a.Name == "" && a.Email == "" {
			t.Errorf("Author[%d] is empty", i)
		}
	}
}
