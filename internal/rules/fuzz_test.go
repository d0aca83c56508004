package rules

import (
	"strconv"
	"strings"
	"testing"
)

func FuzzValidatePrefix(f *testing.F) {
	seed := []string{
		"",
		"0.0.0.0/0",
		"10.1.0.0/16",
		"300.1.1.1/24",
		"10.0.0.0/33",
		"2001:db8::/32",
		"1.2.3.4",
		"01.02.03.004/08",
	}
	for _, s := range seed {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, s string) {
		if err := ValidatePrefix(s); err != nil {
			return
		}
		addr, bits, ok := strings.Cut(s, "/")
		if !ok {
			t.Fatalf("accepted prefix without '/': %q", s)
		}
		n, err := strconv.Atoi(bits)
		if err != nil || n < 0 || n > 32 {
			t.Fatalf("accepted bad length: %q", s)
		}
		octets := strings.Split(addr, ".")
		if len(octets) != 4 {
			t.Fatalf("accepted %d octets: %q", len(octets), s)
		}
		for _, o := range octets {
			v, err := strconv.Atoi(o)
			if err != nil || v < 0 || v > 255 {
				t.Fatalf("accepted bad octet %q in %q", o, s)
			}
		}
	})
}
