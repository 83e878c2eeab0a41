package domain

import (
	"regexp"
	"strings"
)

// SmartCodePrefix is the only recognized namespace for smart codes.
const SmartCodePrefix = "HERA"

// SmartCode is a parsed, normalized smart code.
// "HERA.SALON.POS.CART.REPRICE.v1" canonicalizes to
// "HERA.SALON.POS.CART.REPRICE.V1" with routing key
// "hera_salon_pos_cart_reprice_v1".
type SmartCode struct {
	Canonical  string   `json:"canonical"`
	RoutingKey string   `json:"routing_key"`
	Segments   []string `json:"segments"`
	Version    int      `json:"version"`
}

var (
	segmentPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_]*$`)
	versionPattern = regexp.MustCompile(`^[vV]([0-9]+)$`)
)

// ParseSmartCode validates and normalizes a raw smart code string. The
// version suffix is case-insensitive on input; everything else must already
// be uppercase dotted segments. At least two business segments are required
// between the namespace and the version.
func ParseSmartCode(raw string) (*SmartCode, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, NewError(ErrCodeInvalidSmartCode, "smart code is empty")
	}

	parts := strings.Split(trimmed, ".")
	if len(parts) < 4 {
		return nil, Errorf(ErrCodeInvalidSmartCode, "smart code %q has too few segments", raw)
	}
	if parts[0] != SmartCodePrefix {
		return nil, Errorf(ErrCodeInvalidSmartCode, "smart code %q is outside the %s namespace", raw, SmartCodePrefix)
	}

	last := parts[len(parts)-1]
	m := versionPattern.FindStringSubmatch(last)
	if m == nil {
		return nil, Errorf(ErrCodeInvalidSmartCode, "smart code %q is missing a version suffix", raw)
	}

	version := 0
	for _, ch := range m[1] {
		version = version*10 + int(ch-'0')
	}

	segments := parts[1 : len(parts)-1]
	for _, seg := range segments {
		if !segmentPattern.MatchString(seg) {
			return nil, Errorf(ErrCodeInvalidSmartCode, "smart code %q has malformed segment %q", raw, seg)
		}
	}

	canonicalParts := make([]string, 0, len(parts))
	canonicalParts = append(canonicalParts, SmartCodePrefix)
	canonicalParts = append(canonicalParts, segments...)
	canonicalParts = append(canonicalParts, "V"+m[1])
	canonical := strings.Join(canonicalParts, ".")

	return &SmartCode{
		Canonical:  canonical,
		RoutingKey: strings.ToLower(strings.ReplaceAll(canonical, ".", "_")),
		Segments:   segments,
		Version:    version,
	}, nil
}

// HasSegment reports whether the code contains the given business segment.
func (c *SmartCode) HasSegment(segment string) bool {
	if c == nil {
		return false
	}
	for _, seg := range c.Segments {
		if seg == segment {
			return true
		}
	}
	return false
}
