package repo

import (
	"reflect"
	"time"
)

// Compact returns a copy of doc with falsy-valued entries stripped: empty
// strings, zero numbers, false, zero timestamps, nils and empty collections.
// Keeping documents small is deliberate; a record with views=0 stores no
// views key at all. Compacting an already-compacted document is a no-op.
func Compact(doc Doc) Doc {
	out := make(Doc, len(doc))
	for key, val := range doc {
		if !falsy(val) {
			out[key] = val
		}
	}
	return out
}

// compactBatch compacts every document and drops the ones that became
// completely empty. Returns the surviving documents and the dropped count.
func compactBatch(docs []Doc) ([]Doc, int) {
	kept := make([]Doc, 0, len(docs))
	for _, doc := range docs {
		if c := Compact(doc); len(c) > 0 {
			kept = append(kept, c)
		}
	}
	return kept, len(docs) - len(kept)
}

func falsy(val any) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case int:
		return v == 0
	case int32:
		return v == 0
	case int64:
		return v == 0
	case float32:
		return v == 0
	case float64:
		return v == 0
	case time.Time:
		return v.IsZero()
	}

	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
