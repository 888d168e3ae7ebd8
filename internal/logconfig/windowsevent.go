package logconfig

import "github.com/jmurray2011/skein/internal/infer"

// WindowsEventTimeKey is the timestamp field of a Windows event record.
const WindowsEventTimeKey = "TimeCreated"

// WindowsEventFields returns the fixed schema of a Windows event record.
func WindowsEventFields() []infer.FieldSpec {
	return []infer.FieldSpec{
		{Key: "ProviderName", Type: infer.Keyword},
		{Key: "EventID", Type: infer.Long},
		{Key: "Level", Type: infer.Keyword},
		{Key: "Task", Type: infer.Keyword},
		{Key: "Keywords", Type: infer.Keyword},
		{Key: WindowsEventTimeKey, Type: infer.Date, Format: "%Y-%m-%dT%H:%M:%S.%LZ"},
		{Key: "EventRecordID", Type: infer.Long},
		{Key: "Channel", Type: infer.Keyword},
		{Key: "Computer", Type: infer.Text},
		{Key: "UserID", Type: infer.Keyword},
		{Key: "Message", Type: infer.Text},
	}
}
