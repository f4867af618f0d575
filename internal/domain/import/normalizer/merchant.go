package normalizer

import (
	"regexp"
	"strings"
	"unicode"
)

// brand maps a recognisable description fragment to a display name.
type brand struct {
	pattern *regexp.Regexp
	name    string
}

// MerchantNamer derives a short display name from a raw statement
// description. The raw description stays the source of truth; the name is
// presentation only.
type MerchantNamer struct {
	brands []brand
}

var (
	channelPrefixes = []string{
		"COMPRA ", "COMPRAS ", "PAGAMENTO ", "PAG ", "TRF ", "TRANSF ", "TRANSFERENCIA ",
		"MB WAY ", "MBWAY ", "VISA ", "MASTERCARD ", "PURCHASE ", "PAYMENT ", "POS ", "PIX ",
	}
	trailingReference = regexp.MustCompile(`\s+\d{4,}$`)
	trailingShortDate = regexp.MustCompile(`\s+\d{1,2}/\d{1,2}/?$`)
)

// NewMerchantNamer returns a namer with a built-in list of common brands.
func NewMerchantNamer() *MerchantNamer {
	n := &MerchantNamer{}
	for _, b := range []struct{ pattern, name string }{
		{`PINGO\s*DOCE|PGO\s*DOCE`, "Pingo Doce"},
		{`CONTINENTE`, "Continente"},
		{`\bLIDL\b`, "Lidl"},
		{`MERCADONA`, "Mercadona"},
		{`STARBUCKS`, "Starbucks"},
		{`UBER\s*EATS`, "Uber Eats"},
		{`\bUBER\b`, "Uber"},
		{`\bBOLT\b`, "Bolt"},
		{`AMAZON|AMZN`, "Amazon"},
		{`NETFLIX`, "Netflix"},
		{`SPOTIFY`, "Spotify"},
		{`APPLE\.COM`, "Apple"},
		{`PAYPAL`, "PayPal"},
		{`IFOOD`, "iFood"},
	} {
		n.brands = append(n.brands, brand{pattern: regexp.MustCompile(`(?i)` + b.pattern), name: b.name})
	}
	return n
}

// AddBrand registers an extra pattern; later brands have lower priority.
func (n *MerchantNamer) AddBrand(pattern, name string) error {
	re, err := regexp.Compile(`(?i)` + pattern)
	if err != nil {
		return err
	}
	n.brands = append(n.brands, brand{pattern: re, name: name})
	return nil
}

// Name returns the brand name when one matches, otherwise the description
// stripped of channel prefixes and trailing references, in title case.
func (n *MerchantNamer) Name(description string) string {
	cleaned := stripChannelNoise(description)
	for _, b := range n.brands {
		if b.pattern.MatchString(cleaned) {
			return b.name
		}
	}
	return titleCase(cleaned)
}

func stripChannelNoise(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	upper := strings.ToUpper(s)
	for _, prefix := range channelPrefixes {
		if strings.HasPrefix(upper, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	s = trailingReference.ReplaceAllString(s, "")
	s = trailingShortDate.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
