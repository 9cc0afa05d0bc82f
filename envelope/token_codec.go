package envelope

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/MrEthical07/sessiongate/session"
)

const tokenFormatVersionCurrent = 1

const tokenFlagPersistent = 0x01

func encodeToken(t *session.Token) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(tokenFormatVersionCurrent)

	if err := binary.Write(&buf, binary.BigEndian, t.Generation); err != nil {
		return nil, err
	}

	var flags byte
	if t.Persistent {
		flags |= tokenFlagPersistent
	}
	buf.WriteByte(flags)

	if err := binary.Write(&buf, binary.BigEndian, t.RefreshedUTC.UnixMilli()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, int64(t.RefreshAfter)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, int64(t.ValidFor)); err != nil {
		return nil, err
	}

	if len(t.SessionID) > 255 {
		return nil, errors.New("sessionID too long")
	}
	buf.WriteByte(byte(len(t.SessionID)))
	buf.WriteString(t.SessionID)

	if len(t.UserID) > 255 {
		return nil, errors.New("userID too long")
	}
	buf.WriteByte(byte(len(t.UserID)))
	buf.WriteString(t.UserID)

	return buf.Bytes(), nil
}

func decodeToken(data []byte) (*session.Token, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != tokenFormatVersionCurrent {
		return nil, errors.New("invalid token format version")
	}

	t := &session.Token{}

	if err := binary.Read(reader, binary.BigEndian, &t.Generation); err != nil {
		return nil, err
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	t.Persistent = flags&tokenFlagPersistent != 0

	var refreshedMilli, refreshAfter, validFor int64
	if err := binary.Read(reader, binary.BigEndian, &refreshedMilli); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &refreshAfter); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &validFor); err != nil {
		return nil, err
	}
	t.RefreshedUTC = time.UnixMilli(refreshedMilli).UTC()
	t.RefreshAfter = time.Duration(refreshAfter)
	t.ValidFor = time.Duration(validFor)

	sidLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	sid := make([]byte, sidLen)
	if _, err := io.ReadFull(reader, sid); err != nil {
		return nil, err
	}
	t.SessionID = string(sid)

	uidLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	uid := make([]byte, uidLen)
	if _, err := io.ReadFull(reader, uid); err != nil {
		return nil, err
	}
	t.UserID = string(uid)

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes after token payload")
	}

	return t, nil
}
