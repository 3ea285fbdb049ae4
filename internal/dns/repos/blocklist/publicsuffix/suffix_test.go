package publicsuffix

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	xpsl "golang.org/x/net/publicsuffix"
)

func TestDefault_LabelCount(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"tracker.com", 1},
		{"x.y.z.tracker.com", 1},
		{"a.b.tracker.co.uk", 2},
		{"example.co.uk", 2},
		{"co.uk", 1}, // a suffix never matches itself
		{"uk", 1},
		{"", 1},
		{"myapp.appspot.com", 2},
		{"static.user.githubusercontent.com", 2},
		{"portal.service.gov.uk", 3},
		{"school.k12.ca.us", 3},
		{"city.ca.us", 2},
		{"shop.ltd.co.im", 3},
		{"notco.uk", 1},
	}
	tbl := Default()
	for _, tt := range tests {
		if got := tbl.LabelCount(tt.name); got != tt.want {
			t.Errorf("LabelCount(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestTable_MatchLongest(t *testing.T) {
	tbl := New([]string{"ak.us", "k12.ak.us", "us"})
	got, ok := tbl.Match("school.k12.ak.us")
	if !ok || got != "k12.ak.us" {
		t.Fatalf("Match = (%q, %v), want k12.ak.us", got, ok)
	}
	got, ok = tbl.Match("juneau.ak.us")
	if !ok || got != "ak.us" {
		t.Fatalf("Match = (%q, %v), want ak.us", got, ok)
	}
	got, ok = tbl.Match("k12.ak.us")
	if !ok || got != "ak.us" {
		t.Fatalf("Match(k12.ak.us) = (%q, %v), want ak.us", got, ok)
	}
	if _, ok := tbl.Match("example.com"); ok {
		t.Fatalf("unexpected match for example.com")
	}
}

func TestNew_CanonicalisesAndDedupes(t *testing.T) {
	tbl := New([]string{"CO.UK", ".co.uk", "co.uk.", "", "  "})
	if tbl.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tbl.Len())
	}
	if got := tbl.LabelCount("shop.example.co.uk"); got != 2 {
		t.Fatalf("LabelCount = %d, want 2", got)
	}
}

func TestDefault_EveryEntryMatchesBelowItself(t *testing.T) {
	tbl := Default()
	if tbl.Len() != len(multiLabelSuffixes) {
		t.Fatalf("Len() = %d, want %d (duplicate entries in table?)", tbl.Len(), len(multiLabelSuffixes))
	}
	for _, s := range multiLabelSuffixes {
		got, ok := tbl.Match("host." + s)
		if !ok {
			t.Errorf("Match(host.%s) found nothing", s)
			continue
		}
		// a longer entry may legitimately win, but never a shorter one
		if !strings.HasSuffix(got, s) {
			t.Errorf("Match(host.%s) = %q, want %q or longer", s, got, s)
		}
	}
}

func TestDefault_AgreesWithICANNListForCommonSuffixes(t *testing.T) {
	for _, name := range []string{"example.co.uk", "example.org.uk", "example.ac.uk", "example.com.au", "example.co.jp"} {
		want, _ := xpsl.PublicSuffix(name)
		got, ok := Default().Match(name)
		if !ok {
			// only assert on suffixes the fixed table claims to know
			if strings.Count(want, ".") > 0 && strings.HasSuffix(name, ".uk") {
				t.Errorf("Match(%q) found nothing, ICANN list says %q", name, want)
			}
			continue
		}
		if got != want {
			t.Errorf("Match(%q) = %q, ICANN list says %q", name, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	input := `// ===BEGIN ICANN DOMAINS===
com
co.uk
// wildcard and exception rules are skipped
*.ck
!www.ck
# hash comments too
  k12.ak.us  some trailing text

`
	tbl, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
	if got := tbl.LabelCount("a.k12.ak.us"); got != 3 {
		t.Fatalf("LabelCount(a.k12.ak.us) = %d, want 3", got)
	}
	if got := tbl.LabelCount("www.ck"); got != 1 {
		t.Fatalf("LabelCount(www.ck) = %d, want 1", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suffixes.dat")
	if err := os.WriteFile(path, []byte("// custom\nexample.net\nco.uk\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tbl.LabelCount("ads.tracker.example.net"); got != 2 {
		t.Fatalf("LabelCount(ads.tracker.example.net) = %d, want 2", got)
	}
	if got := tbl.LabelCount("myapp.appspot.com"); got != 1 {
		t.Fatalf("replacement table should not keep built-in entries, got %d", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.dat")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func BenchmarkLabelCount(b *testing.B) {
	names := []string{"x.y.z.tracker.com", "a.b.tracker.co.uk", "myapp.appspot.com", "school.k12.ca.us"}
	tbl := Default()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tbl.LabelCount(names[i%len(names)])
	}
}
