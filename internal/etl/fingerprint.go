package etl

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/tasknest/go-task-export/internal/domain"
)

// Fingerprint computes the change-detection digest for a task sequence:
// sha256 over a canonical serialization, returned as lowercase hex.
//
// The serialization walks tasks in order and writes each field in the
// fixed TaskExport declaration order, length-prefixed so adjacent fields
// can never be confused. It deliberately does not go through a JSON
// encoder: the digest must depend only on logical content, never on
// incidental key ordering or whitespace introduced by a driver or
// encoder. Metadata is excluded because it changes on every run.
func Fingerprint(tasks []domain.TaskExport) string {
	h := sha256.New()

	writeField := func(data []byte) {
		var length [8]byte
		binary.BigEndian.PutUint64(length[:], uint64(len(data)))
		h.Write(length[:])
		h.Write(data)
	}
	writeString := func(s string) { writeField([]byte(s)) }
	writeOptional := func(s *string) {
		if s == nil {
			writeField([]byte{0})
			return
		}
		writeField([]byte{1})
		writeString(*s)
	}
	writeBool := func(b bool) {
		if b {
			writeField([]byte{1})
		} else {
			writeField([]byte{0})
		}
	}

	var count [8]byte
	binary.BigEndian.PutUint64(count[:], uint64(len(tasks)))
	h.Write(count[:])

	for _, t := range tasks {
		writeString(t.ID)
		writeString(t.Title)
		writeOptional(t.Description)
		writeBool(t.Completed)
		writeString(t.Priority)
		writeOptional(t.DueDate)
		writeString(t.CreatedAt)
		writeString(t.UpdatedAt)
	}

	return hex.EncodeToString(h.Sum(nil))
}
