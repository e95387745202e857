package ingest

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://www.Example.COM///", "example.com"},
		{"http://example.com", "example.com"},
		{"example.com", "example.com"},
		{"  example.com  ", "example.com"},
		{"WWW.EXAMPLE.COM", "example.com"},
		{"example.com/shop/products?id=1", "example.com"},
		{"example.com:8443", "example.com"},
		{"user:pass@example.com", "example.com"},
		{"example.com.", "example.com"},
		{"münchen.de", "xn--mnchen-3ya.de"},
		{"", ""},
		{"https://", ""},
		{"   ", ""},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestDedupeCollapsesVariants(t *testing.T) {
	got := Dedupe([]string{
		"example.com",
		"www.example.com",
		"https://example.com",
		"other.example.org",
		"",
		"https://",
	})
	want := []string{"example.com", "other.example.org"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Dedupe mismatch (-want +got):\n%s", diff)
	}
}

func TestReadList(t *testing.T) {
	input := "# merchant list\nexample.com\n\nhttps://www.shop.example\nexample.com\n"
	got, err := ReadList(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadList: %v", err)
	}
	want := []string{"example.com", "shop.example"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadList mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVWithHeader(t *testing.T) {
	input := "name,domain,notes\nAcme,https://www.acme.test/,fine\nDup,acme.test,\nEmpty,,skipped\n"
	got, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	want := []string{"acme.test"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadCSV mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVNoHeader(t *testing.T) {
	input := "example.com,Acme\nshop.example,Shop\n"
	got, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	want := []string{"example.com", "shop.example"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadCSV mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVMalformed(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("a,\"unterminated\n")); err == nil {
		t.Error("ReadCSV accepted malformed CSV, want error")
	}
}
