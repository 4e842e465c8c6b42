package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	sessionFormatVersionCurrent = 2
	sessionFormatVersionV1      = 1
)

// CurrentSchemaVersion is the schema byte written by Encode.
const CurrentSchemaVersion = sessionFormatVersionCurrent

// ErrSessionCorrupt is returned for a blob that cannot be decoded.
var ErrSessionCorrupt = errors.New("session corrupt")

// Encode serializes s in the current binary schema.
//
// Layout (v2): version | u8 len + memberID | u8 len + email | u8 len + nickname |
// u16 len + access token | i64 createdAt | i64 expiresAt. v1 had no nickname.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(1 + 3 + 2 + len(s.MemberID) + len(s.EmailAddress) + len(s.Nickname) + len(s.AccessToken) + 16)

	buf.WriteByte(sessionFormatVersionCurrent)

	if err := writeShort(&buf, "memberID", s.MemberID); err != nil {
		return nil, err
	}
	if err := writeShort(&buf, "emailAddress", s.EmailAddress); err != nil {
		return nil, err
	}
	if err := writeShort(&buf, "nickname", s.Nickname); err != nil {
		return nil, err
	}

	if len(s.AccessToken) > math.MaxUint16 {
		return nil, errors.New("access token too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(s.AccessToken))); err != nil {
		return nil, err
	}
	buf.WriteString(s.AccessToken)

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a blob written by Encode in any supported schema version.
// The returned session carries the version it was read from; ID is not
// part of the blob.
func Decode(data []byte) (*Session, error) {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil {
		return nil, ErrSessionCorrupt
	}
	if version < sessionFormatVersionV1 || version > sessionFormatVersionCurrent {
		return nil, fmt.Errorf("unsupported session schema version %d", version)
	}

	s := &Session{SchemaVersion: version}

	if s.MemberID, err = readShort(r); err != nil {
		return nil, ErrSessionCorrupt
	}
	if s.EmailAddress, err = readShort(r); err != nil {
		return nil, ErrSessionCorrupt
	}
	if version >= 2 {
		if s.Nickname, err = readShort(r); err != nil {
			return nil, ErrSessionCorrupt
		}
	}

	var tokenLen uint16
	if err := binary.Read(r, binary.BigEndian, &tokenLen); err != nil {
		return nil, ErrSessionCorrupt
	}
	token := make([]byte, tokenLen)
	if _, err := io.ReadFull(r, token); err != nil {
		return nil, ErrSessionCorrupt
	}
	s.AccessToken = string(token)

	if err := binary.Read(r, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, ErrSessionCorrupt
	}
	if err := binary.Read(r, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, ErrSessionCorrupt
	}
	if r.Len() != 0 {
		return nil, ErrSessionCorrupt
	}

	return s, nil
}

func writeShort(buf *bytes.Buffer, field, v string) error {
	if len(v) > 255 {
		return fmt.Errorf("%s too long", field)
	}
	buf.WriteByte(byte(len(v)))
	buf.WriteString(v)
	return nil
}

func readShort(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
