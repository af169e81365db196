package guauth

import "testing"

func TestCountryByCode(t *testing.T) {
	c, ok := CountryByCode("au")
	if !ok {
		t.Fatal("AU must be in the dataset")
	}
	if c.DialCode != "+61" || c.Flag != "🇦🇺" {
		t.Fatalf("unexpected AU entry: %+v", c)
	}

	if _, ok := CountryByCode("ZZ"); ok {
		t.Fatal("unknown code must not resolve")
	}
}

func TestCountryByDialCode(t *testing.T) {
	c, ok := CountryByDialCode("+64")
	if !ok || c.Code != "NZ" {
		t.Fatalf("expected NZ for +64, got %+v (ok=%v)", c, ok)
	}

	// +1 is shared; the first dataset entry wins.
	c, ok = CountryByDialCode("+1")
	if !ok || c.Code != "CA" {
		t.Fatalf("expected first +1 entry CA, got %+v (ok=%v)", c, ok)
	}
}

func TestCountriesReturnsCopy(t *testing.T) {
	list := Countries()
	if len(list) == 0 {
		t.Fatal("dataset must not be empty")
	}
	list[0].DialCode = "+999"
	if countries[0].DialCode == "+999" {
		t.Fatal("Countries must not expose the internal slice")
	}
}
