package merging

import (
	"fmt"
	"strings"
)

// FormatAddress renders an address object as "{street}, {postcode} {city}".
// An address without a street has no formatted form.
func FormatAddress(address map[string]any) (string, bool) {
	street, ok := AsString(address["street"])
	if !ok {
		return "", false
	}
	zip, _ := AsString(address["zipcode"])
	city, _ := AsString(address["city"])
	return strings.TrimSpace(fmt.Sprintf("%s, %s %s", street, zip, city)), true
}
