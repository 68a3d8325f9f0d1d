package snapshot

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Stream identifies one of the three snapshot streams.
type Stream uint8

const (
	StreamController Stream = iota
	StreamProxy
	StreamModel
)

// Streams lists every stream in write order.
var Streams = []Stream{StreamController, StreamProxy, StreamModel}

var streamInfo = [...]struct {
	name string
	file string
}{
	StreamController: {"controller", "cntrl.dat"},
	StreamProxy:      {"proxy", "bldgp.dat"},
	StreamModel:      {"model", "bldgm.dat"},
}

// String returns the stream name used in storage and messages.
func (s Stream) String() string {
	if int(s) < len(streamInfo) {
		return streamInfo[s].name
	}
	return fmt.Sprintf("stream(%d)", uint8(s))
}

// FileName returns the text-stream file name.
func (s Stream) FileName() string {
	if int(s) < len(streamInfo) {
		return streamInfo[s].file
	}
	return ""
}

// ParseStream resolves a stream name.
func ParseStream(name string) (Stream, error) {
	for i, info := range streamInfo {
		if info.name == name {
			return Stream(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stream %q (want controller, proxy or model)", name)
}

// MarshalText encodes the stream by name.
func (s Stream) MarshalText() ([]byte, error) {
	if int(s) >= len(streamInfo) {
		return nil, fmt.Errorf("unknown stream %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stream name.
func (s *Stream) UnmarshalText(b []byte) error {
	v, err := ParseStream(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Record is one stream's state at one snapshot instant.
type Record struct {
	RunID  string  `json:"run_id"`
	Stream Stream  `json:"stream"`
	Seq    int64   `json:"seq"`
	Time   float64 `json:"time"`
	State  string  `json:"state"`
}

// NewRecord builds a record with normalized state text.
func NewRecord(runID string, stream Stream, seq int64, t float64, state string) Record {
	return Record{
		RunID:  runID,
		Stream: stream,
		Seq:    seq,
		Time:   t,
		State:  NormalizeState(state),
	}
}

// Line formats the record as a text-stream line without the newline.
func (r Record) Line() string {
	return FormatTime(r.Time) + " " + r.State
}

// FormatTime renders simulation time with the shortest exact representation.
func FormatTime(t float64) string {
	return strconv.FormatFloat(t, 'g', -1, 64)
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// NormalizeState NFC-normalizes s and replaces line breaks with spaces.
func NormalizeState(s string) string {
	return lineBreaks.Replace(norm.NFC.String(s))
}
