// Package record builds canonical message records from raw provider messages.
package record

import (
	"time"

	"github.com/channelscan/channelscan/internal/repo"
)

// Record is the canonical, storage-ready representation of one message.
// (chat_id, msg_id) is the natural unique key. Records are built once and
// never updated in place; the live and backfill paths produce structurally
// identical records.
type Record struct {
	MsgID  int
	ChatID int64
	Msg    string
	Date   time.Time

	ChatName  string
	ChatTitle string

	Views    int
	Forwards int
	Replies  int
	// Reactions maps a reaction label (emoji text, or the resolved label of
	// a custom emoji) to its count.
	Reactions map[string]int

	// FwdFrom is the stripped descriptor document of the forward origin,
	// or {"full_name": ...} when only a display name was available.
	FwdFrom map[string]any
}

// Document returns the storage document. Falsy fields survive here; the
// repository's compaction strips them uniformly for every backend.
func (r *Record) Document() repo.Doc {
	return repo.Doc{
		"msg_id":     r.MsgID,
		"chat_id":    r.ChatID,
		"msg":        r.Msg,
		"date":       r.Date,
		"chat_name":  r.ChatName,
		"chat_title": r.ChatTitle,
		"views":      r.Views,
		"forwards":   r.Forwards,
		"replies":    r.Replies,
		"reactions":  r.Reactions,
		"fwd_from":   r.FwdFrom,
	}
}
