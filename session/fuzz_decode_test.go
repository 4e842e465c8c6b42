package session

import "testing"

// FuzzSessionDecode exercises the binary session decoder with arbitrary inputs.
// Goal: no panics, no unexpected nil dereferences, graceful error handling.
func FuzzSessionDecode(f *testing.F) {
	sess := &Session{
		MemberID:     "member1",
		EmailAddress: "a@b.com",
		Nickname:     "mo",
		AccessToken:  "aaa.bbb.ccc",
		CreatedAt:    1700000000,
		ExpiresAt:    1700003600,
	}
	encoded, err := Encode(sess)
	if err == nil {
		f.Add(encoded)
	}

	f.Add([]byte{})
	f.Add([]byte{0})
	f.Add([]byte{1})
	f.Add([]byte{2, 255, 255, 255})

	if len(encoded) > 10 {
		f.Add(encoded[:10])
	}
	if len(encoded) > 20 {
		f.Add(encoded[:20])
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Decode(data)
		if err != nil {
			return
		}
		if s == nil {
			t.Fatal("Decode returned nil session without error")
		}
		if _, err := Encode(s); err != nil {
			t.Fatalf("re-encode of decoded session failed: %v", err)
		}
	})
}
