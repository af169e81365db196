package guauth

import "strings"

// Country describes one entry of the dial-code picker dataset. Pattern is
// the national-number grouping hint ("### ### ###") and Limit the maximum
// digit count, both presentation aids for the caller.
type Country struct {
	Name     string
	Code     string // ISO 3166-1 alpha-2
	DialCode string
	Flag     string
	Pattern  string
	Limit    int
}

var countries = []Country{
	{Name: "Australia", Code: "AU", DialCode: "+61", Flag: "🇦🇺", Pattern: "### ### ###", Limit: 9},
	{Name: "Austria", Code: "AT", DialCode: "+43", Flag: "🇦🇹", Pattern: "### ######", Limit: 11},
	{Name: "Bangladesh", Code: "BD", DialCode: "+880", Flag: "🇧🇩", Pattern: "####-######", Limit: 10},
	{Name: "Belgium", Code: "BE", DialCode: "+32", Flag: "🇧🇪", Pattern: "### ## ## ##", Limit: 9},
	{Name: "Brazil", Code: "BR", DialCode: "+55", Flag: "🇧🇷", Pattern: "(##) #####-####", Limit: 11},
	{Name: "Canada", Code: "CA", DialCode: "+1", Flag: "🇨🇦", Pattern: "(###) ###-####", Limit: 10},
	{Name: "China", Code: "CN", DialCode: "+86", Flag: "🇨🇳", Pattern: "### #### ####", Limit: 11},
	{Name: "Denmark", Code: "DK", DialCode: "+45", Flag: "🇩🇰", Pattern: "## ## ## ##", Limit: 8},
	{Name: "Fiji", Code: "FJ", DialCode: "+679", Flag: "🇫🇯", Pattern: "### ####", Limit: 7},
	{Name: "France", Code: "FR", DialCode: "+33", Flag: "🇫🇷", Pattern: "# ## ## ## ##", Limit: 9},
	{Name: "Germany", Code: "DE", DialCode: "+49", Flag: "🇩🇪", Pattern: "### #######", Limit: 11},
	{Name: "Hong Kong", Code: "HK", DialCode: "+852", Flag: "🇭🇰", Pattern: "#### ####", Limit: 8},
	{Name: "India", Code: "IN", DialCode: "+91", Flag: "🇮🇳", Pattern: "##### #####", Limit: 10},
	{Name: "Indonesia", Code: "ID", DialCode: "+62", Flag: "🇮🇩", Pattern: "###-###-###", Limit: 11},
	{Name: "Ireland", Code: "IE", DialCode: "+353", Flag: "🇮🇪", Pattern: "## ### ####", Limit: 9},
	{Name: "Italy", Code: "IT", DialCode: "+39", Flag: "🇮🇹", Pattern: "### ### ####", Limit: 10},
	{Name: "Japan", Code: "JP", DialCode: "+81", Flag: "🇯🇵", Pattern: "##-####-####", Limit: 10},
	{Name: "Malaysia", Code: "MY", DialCode: "+60", Flag: "🇲🇾", Pattern: "##-### ####", Limit: 10},
	{Name: "Netherlands", Code: "NL", DialCode: "+31", Flag: "🇳🇱", Pattern: "# ########", Limit: 9},
	{Name: "New Zealand", Code: "NZ", DialCode: "+64", Flag: "🇳🇿", Pattern: "## ### ####", Limit: 9},
	{Name: "Norway", Code: "NO", DialCode: "+47", Flag: "🇳🇴", Pattern: "### ## ###", Limit: 8},
	{Name: "Pakistan", Code: "PK", DialCode: "+92", Flag: "🇵🇰", Pattern: "### #######", Limit: 10},
	{Name: "Papua New Guinea", Code: "PG", DialCode: "+675", Flag: "🇵🇬", Pattern: "### ####", Limit: 7},
	{Name: "Philippines", Code: "PH", DialCode: "+63", Flag: "🇵🇭", Pattern: "### ### ####", Limit: 10},
	{Name: "Singapore", Code: "SG", DialCode: "+65", Flag: "🇸🇬", Pattern: "#### ####", Limit: 8},
	{Name: "South Africa", Code: "ZA", DialCode: "+27", Flag: "🇿🇦", Pattern: "## ### ####", Limit: 9},
	{Name: "South Korea", Code: "KR", DialCode: "+82", Flag: "🇰🇷", Pattern: "##-####-####", Limit: 10},
	{Name: "Spain", Code: "ES", DialCode: "+34", Flag: "🇪🇸", Pattern: "### ### ###", Limit: 9},
	{Name: "Sri Lanka", Code: "LK", DialCode: "+94", Flag: "🇱🇰", Pattern: "## ### ####", Limit: 9},
	{Name: "Sweden", Code: "SE", DialCode: "+46", Flag: "🇸🇪", Pattern: "##-### ## ##", Limit: 9},
	{Name: "Switzerland", Code: "CH", DialCode: "+41", Flag: "🇨🇭", Pattern: "## ### ## ##", Limit: 9},
	{Name: "Thailand", Code: "TH", DialCode: "+66", Flag: "🇹🇭", Pattern: "#-####-####", Limit: 9},
	{Name: "United Arab Emirates", Code: "AE", DialCode: "+971", Flag: "🇦🇪", Pattern: "## ### ####", Limit: 9},
	{Name: "United Kingdom", Code: "GB", DialCode: "+44", Flag: "🇬🇧", Pattern: "#### ######", Limit: 10},
	{Name: "United States", Code: "US", DialCode: "+1", Flag: "🇺🇸", Pattern: "(###) ###-####", Limit: 10},
	{Name: "Vietnam", Code: "VN", DialCode: "+84", Flag: "🇻🇳", Pattern: "### ### ####", Limit: 10},
}

// Countries returns the picker dataset ordered by name.
func Countries() []Country {
	out := make([]Country, len(countries))
	copy(out, countries)
	return out
}

// CountryByCode looks a country up by ISO 3166-1 alpha-2 code,
// case-insensitively.
func CountryByCode(code string) (Country, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range countries {
		if c.Code == code {
			return c, true
		}
	}
	return Country{}, false
}

// CountryByDialCode returns the first country carrying the given dial code.
// Shared dial codes (+1) resolve to the first dataset entry.
func CountryByDialCode(dial string) (Country, bool) {
	dial = strings.TrimSpace(dial)
	for _, c := range countries {
		if c.DialCode == dial {
			return c, true
		}
	}
	return Country{}, false
}
