package invoke

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DeriveKey computes the idempotency key for a logical request: a stable
// hash over the canonical smart code, the organization id, and the
// canonicalized payload. Logically identical retries always derive the same
// key; changing any of the three changes it.
func DeriveKey(canonical, organizationID string, payload []byte) (string, error) {
	stable, err := stableJSON(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canonical + "|" + organizationID + "|" + stable))
	return hex.EncodeToString(sum[:]), nil
}

// PayloadHash fingerprints the canonicalized payload alone. The ledger
// stores it so a retried key paired with a different payload is rejected
// instead of silently replayed.
func PayloadHash(payload []byte) (string, error) {
	stable, err := stableJSON(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(stable))
	return hex.EncodeToString(sum[:]), nil
}

// stableJSON re-encodes a JSON document with object keys sorted at every
// depth, so semantically identical payloads hash identically regardless of
// the order the client serialized them in.
func stableJSON(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "null", nil
	}
	var value interface{}
	if err := json.Unmarshal(payload, &value); err != nil {
		return "", err
	}
	var b strings.Builder
	if err := encodeStable(&b, value); err != nil {
		return "", err
	}
	return b.String(), nil
}

func encodeStable(b *strings.Builder, value interface{}) error {
	switch v := value.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case float64:
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	case string:
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		b.Write(encoded)
	case []interface{}:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := encodeStable(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			encodedKey, err := json.Marshal(key)
			if err != nil {
				return err
			}
			b.Write(encodedKey)
			b.WriteByte(':')
			if err := encodeStable(b, v[key]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return fmt.Errorf("unsupported JSON value %T", value)
	}
	return nil
}
