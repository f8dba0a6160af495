package isbn

import (
	"strings"
	"testing"
	"unicode"

	"bookshelf/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "isbn13 hyphenated", raw: "978-0-451-52493-5", want: "9780451524935"},
		{name: "isbn13 plain", raw: "9780451524935", want: "9780451524935"},
		{name: "isbn10 spaced", raw: "0 451 52493 4", want: "0451524934"},
		{name: "surrounding whitespace", raw: "\t0451524934\n", want: "0451524934"},
		{name: "all zeros", raw: "0000000000", want: "0000000000"},
		{name: "isbn10 with X check digit", raw: "080442957X", wantErr: true},
		{name: "too short", raw: "123456789", wantErr: true},
		{name: "eleven digits", raw: "12345678901", wantErr: true},
		{name: "fourteen digits", raw: "97804515249351", wantErr: true},
		{name: "letters", raw: "abcdefghij", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "only separators", raw: "- - -", wantErr: true},
		{name: "dots are not separators", raw: "978.0451524935", wantErr: true},
		{name: "non ascii digits", raw: "٠١٢٣٤٥٦٧٨٩", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperr.ErrValidation)
				assert.Contains(t, err.Error(), tt.raw)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func TestNormalizeAcceptsExactlyTenOrThirteenDigits(t *testing.T) {
	alphabet := []rune("0123456789-  \tX.a٣")
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.StringOf(rapid.SampledFrom(alphabet)).Draw(t, "raw")

		got, err := Normalize(raw)
		stripped := stripSeparators(raw)
		valid := (len(stripped) == 10 || len(stripped) == 13) && isDigits(stripped)

		if valid {
			if err != nil {
				t.Fatalf("Normalize(%q) rejected a valid ISBN: %v", raw, err)
			}
			if got != stripped {
				t.Fatalf("Normalize(%q) = %q, want %q", raw, got, stripped)
			}
			return
		}
		if err == nil {
			t.Fatalf("Normalize(%q) = %q, want validation error", raw, got)
		}
	})
}

func TestNormalizeIgnoresSeparatorPlacement(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.SampledFrom([]int{10, 13}).Draw(t, "length")
		digits := rapid.StringOfN(rapid.RuneFrom([]rune("0123456789")), n, n, -1).Draw(t, "digits")

		var b strings.Builder
		for _, r := range digits {
			b.WriteString(rapid.SampledFrom([]string{"", "", "-", " ", "\t"}).Draw(t, "separator"))
			b.WriteRune(r)
		}
		b.WriteString(rapid.SampledFrom([]string{"", "-", " "}).Draw(t, "trailing"))

		got, err := Normalize(b.String())
		if err != nil {
			t.Fatalf("Normalize(%q): %v", b.String(), err)
		}
		if got != digits {
			t.Fatalf("Normalize(%q) = %q, want %q", b.String(), got, digits)
		}
	})
}
