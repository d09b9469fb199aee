package repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompact(t *testing.T) {
	doc := Doc{
		"msg_id":    42,
		"chat_id":   int64(100),
		"msg":       "hello",
		"views":     0,
		"forwards":  0,
		"replies":   7,
		"reactions": map[string]int{},
		"fwd_from":  nil,
		"chat_name": "",
		"date":      time.Time{},
	}

	got := Compact(doc)

	assert.Equal(t, Doc{
		"msg_id":  42,
		"chat_id": int64(100),
		"msg":     "hello",
		"replies": 7,
	}, got)

	// input is left untouched
	assert.Contains(t, doc, "views")
}

func TestCompact_Idempotent(t *testing.T) {
	doc := Doc{"msg": "x", "views": 0, "flag": false}
	once := Compact(doc)
	twice := Compact(once)
	assert.Equal(t, once, twice)
}

func TestCompact_KeepsMeaningfulValues(t *testing.T) {
	now := time.Now()
	doc := Doc{
		"flag":      true,
		"count":     int64(1),
		"ratio":     0.5,
		"when":      now,
		"reactions": map[string]int{"👍": 3},
		"chats":     []int64{1, 2},
	}
	assert.Equal(t, doc, Compact(doc))
}

func TestFalsy(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"zero int", 0, true},
		{"zero int64", int64(0), true},
		{"zero float", 0.0, true},
		{"false", false, true},
		{"zero time", time.Time{}, true},
		{"empty map", map[string]int{}, true},
		{"empty slice", []int64{}, true},
		{"non-empty string", "x", false},
		{"negative int", -1, false},
		{"true", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, falsy(tt.val), "falsy(%v)", tt.val)
		})
	}
}
