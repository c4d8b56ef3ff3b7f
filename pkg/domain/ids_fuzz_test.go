//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseStudentID tests that parsing never panics on arbitrary input and
// always returns either a valid ID or an error.
func FuzzParseStudentID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE students;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseStudentID(input)

		if err == nil {
			// A valid ID must round-trip.
			roundTrip, err2 := ParseStudentID(id.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("round-trip changed ID value")
			}
		}

		if !utf8.ValidString(input) && err == nil {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzParseAllIDs ensures the ID types validate consistently, since they all
// funnel through the same helper.
func FuzzParseAllIDs(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errStudent := ParseStudentID(input)
		_, errBus := ParseBusID(input)
		_, errSession := ParseSessionID(input)
		_, errLeave := ParseLeaveID(input)

		if errStudent == nil {
			if errBus != nil || errSession != nil || errLeave != nil {
				t.Error("inconsistent parsing across ID types")
			}
		}
		if errStudent != nil {
			if errBus == nil || errSession == nil || errLeave == nil {
				t.Error("inconsistent rejection across ID types")
			}
		}
	})
}
