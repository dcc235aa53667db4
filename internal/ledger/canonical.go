package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical renders a value from the ledger's JSON value domain as
// deterministic JSON:
//
//  1. Object keys sorted bytewise after NFC normalization
//  2. Strings NFC normalized, no HTML escaping (< > & kept literal)
//  3. Integral floats rendered without a fraction part
//
// Two structurally equal values always render to identical bytes, which
// is what makes golden-file comparison and audit-row dedup meaningful.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case string:
		return marshalCanonicalString(buf, val)
	case float64:
		return marshalCanonicalNumber(buf, val)
	case float32:
		return marshalCanonicalNumber(buf, float64(val))
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
		return nil
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		return marshalCanonicalObject(buf, val)
	case Record:
		return marshalCanonicalObject(buf, map[string]any(val))
	case Ledger:
		obj := make(map[string]any, len(val))
		for id, rec := range val {
			obj[id] = map[string]any(rec)
		}
		return marshalCanonicalObject(buf, obj)
	default:
		return fmt.Errorf("unsupported type %T in canonical JSON", v)
	}
}

func marshalCanonicalObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	normed := make(map[string]string, len(obj))
	for k := range obj {
		nk := norm.NFC.String(k)
		normed[nk] = k
		keys = append(keys, nk)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, nk := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalCanonicalString(buf, nk); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := marshalCanonical(buf, obj[normed[nk]]); err != nil {
			return fmt.Errorf("object[%q]: %w", nk, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// marshalCanonicalString encodes s as a JSON string with HTML escaping
// disabled and NFC normalization applied.
func marshalCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return fmt.Errorf("marshal string: %w", err)
	}
	// Encode appends a newline; drop it.
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

// marshalCanonicalNumber renders integral floats as integers so that a
// value survives a decode/encode round trip unchanged (JSON decoding
// turns every number into float64).
func marshalCanonicalNumber(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite number %v is forbidden in canonical JSON", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

// MarshalCanonical renders the change record as deterministic JSON.
// Absent sides of a Change are omitted rather than rendered as null, so
// created and deleted accounts stay distinguishable from empty records.
func (r *ChangeRecord) MarshalCanonical() ([]byte, error) {
	changes := make(map[string]any, len(r.Changes))
	for id, c := range r.Changes {
		entry := make(map[string]any, 2)
		if c.Before != nil {
			entry["before"] = map[string]any(c.Before)
		}
		if c.After != nil {
			entry["after"] = map[string]any(c.After)
		}
		changes[id] = entry
	}
	return MarshalCanonical(map[string]any{
		"id":      r.ID,
		"actor":   r.Actor,
		"reason":  r.Reason,
		"at":      r.At.UTC().Format(time.RFC3339Nano),
		"changes": changes,
	})
}
