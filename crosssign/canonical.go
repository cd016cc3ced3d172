package crosssign

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/ratchet-sdk/crosssign/internal/errors"
)

// excludedSigningFields are never part of the bytes a signature is computed
// or verified over. "verified" and "blocked" are local flags that sometimes
// end up embedded in legacy serializations; "unsigned" is metadata by
// definition; "signatures" obviously can't sign itself.
var excludedSigningFields = map[string]bool{
	"verified":   true,
	"blocked":    true,
	"unsigned":   true,
	"signatures": true,
}

// CanonicalJSON produces the canonical (RFC 8785-flavored) byte sequence for
// a key's signable attributes: sorted object keys, no insignificant
// whitespace, UTF-8, numbers encoded with no superfluous digits. attrs is
// never mutated (excluded fields are dropped from a shallow copy), so callers
// can pass their live attribute map.
func CanonicalJSON(attrs map[string]interface{}) ([]byte, error) {
	clean := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		if excludedSigningFields[k] {
			continue
		}
		clean[k] = v
	}

	var buf strings.Builder
	if err := encodeCanonical(&buf, clean); err != nil {
		return nil, errors.Wrap(err, "failed to produce canonical JSON")
	}
	return []byte(buf.String()), nil
}

// encodeCanonical writes v to buf using canonical JSON rules. Object keys are
// sorted; arrays keep their given order; strings round-trip through
// encoding/json for correct escaping.
func encodeCanonical(buf *strings.Builder, v interface{}) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		encoded, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(encoded)
	case json.Number:
		buf.WriteString(canonicalNumber(val.String()))
	case float64:
		buf.WriteString(canonicalNumber(strconv.FormatFloat(val, 'g', -1, 64)))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case map[string]interface{}:
		return encodeCanonicalObject(buf, val)
	case []interface{}:
		return encodeCanonicalArray(buf, val)
	case []string:
		arr := make([]interface{}, len(val))
		for i, s := range val {
			arr[i] = s
		}
		return encodeCanonicalArray(buf, arr)
	default:
		// Fall back to encoding/json for anything else reachable through a
		// decoded JSON document (shouldn't normally happen for signable
		// content, which is always maps/arrays/scalars).
		encoded, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(encoded)
	}
	return nil
}

func encodeCanonicalObject(buf *strings.Builder, obj map[string]interface{}) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		if err := encodeCanonical(buf, obj[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeCanonicalArray(buf *strings.Builder, arr []interface{}) error {
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeCanonical(buf, elem); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// canonicalNumber strips a superfluous trailing ".0" left by formatting
// whole-valued floats, matching RFC 8785's minimal integer encoding.
func canonicalNumber(s string) string {
	if strings.HasSuffix(s, ".0") {
		return strings.TrimSuffix(s, ".0")
	}
	return s
}

// toAttrMap round-trips a value through encoding/json to get the generic
// map[string]interface{} shape CanonicalJSON expects, preserving numbers as
// json.Number rather than lossy float64.
func toAttrMap(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal key attributes")
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(err, "failed to decode key attributes")
	}
	return m, nil
}
