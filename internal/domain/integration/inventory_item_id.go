package integration

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf16"
)

// InventoryItemID is the decomposed form of integration_inventory_item_id.
// On the wire it is an embedded JSON document {"sku":...,"source":...}
// carried as a string inside the outer JSON payload.
type InventoryItemID struct {
	SKU    string `json:"sku"`
	Source string `json:"source"`
}

// Encode returns the wire form of the identifier.
// The output matches the byte layout external callers already store:
// keys in sku/source order, "/" escaped as "\/", non-ASCII as \uXXXX.
func (id InventoryItemID) Encode() string {
	var b strings.Builder
	b.WriteString(`{"sku":`)
	writeLegacyJSONString(&b, id.SKU)
	b.WriteString(`,"source":`)
	writeLegacyJSONString(&b, id.Source)
	b.WriteByte('}')
	return b.String()
}

// String implements fmt.Stringer
func (id InventoryItemID) String() string {
	return id.Encode()
}

// ParseInventoryItemID decodes the wire form of integration_inventory_item_id
func ParseInventoryItemID(raw string) (InventoryItemID, error) {
	var id InventoryItemID
	if strings.TrimSpace(raw) == "" {
		return id, fmt.Errorf("%w: empty value", ErrInventoryItemIDInvalid)
	}
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return id, fmt.Errorf("%w: %v", ErrInventoryItemIDInvalid, err)
	}
	if id.SKU == "" || id.Source == "" {
		return id, fmt.Errorf("%w: sku and source are required", ErrInventoryItemIDInvalid)
	}
	return id, nil
}

// writeLegacyJSONString writes s as a JSON string literal using the escaping
// rules of the platform the identifiers were first generated by.
func writeLegacyJSONString(b *strings.Builder, s string) {
	const hex = "0123456789abcdef"
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '/':
			b.WriteString(`\/`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			switch {
			case r < 0x20:
				b.WriteString(`\u00`)
				b.WriteByte(hex[r>>4])
				b.WriteByte(hex[r&0xf])
			case r < 0x80:
				b.WriteRune(r)
			default:
				units := []rune{r}
				if r > 0xffff {
					r1, r2 := utf16.EncodeRune(r)
					units = []rune{r1, r2}
				}
				for _, u := range units {
					fmt.Fprintf(b, `\u%04x`, u)
				}
			}
		}
	}
	b.WriteByte('"')
}
