package redistore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/MrEthical07/sessiongate/session"
)

// Record blob layout, version 1. The generation lives at a fixed offset
// (bytes 2–5, big-endian) so the compare-and-update Lua script can read it
// without parsing the variable-length tail.
const recordFormatVersionCurrent = 1

const recordFlagPersistent = 0x01

func encodeRecord(r *session.Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionCurrent)

	if err := binary.Write(&buf, binary.BigEndian, r.Generation); err != nil {
		return nil, err
	}

	var flags byte
	if r.Persistent {
		flags |= recordFlagPersistent
	}
	buf.WriteByte(flags)

	if err := binary.Write(&buf, binary.BigEndian, r.RefreshedUTC.UnixMilli()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, int64(r.RefreshAfter)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, int64(r.ValidFor)); err != nil {
		return nil, err
	}

	if len(r.UserID) > 255 {
		return nil, errors.New("userID too long")
	}
	buf.WriteByte(byte(len(r.UserID)))
	buf.WriteString(r.UserID)

	if len(r.Device) > 65535 {
		return nil, errors.New("device too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(r.Device))); err != nil {
		return nil, err
	}
	buf.WriteString(r.Device)

	if len(r.IPAddress) > 255 {
		return nil, errors.New("ipAddress too long")
	}
	buf.WriteByte(byte(len(r.IPAddress)))
	buf.WriteString(r.IPAddress)

	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*session.Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionCurrent {
		return nil, errors.New("invalid record format version")
	}

	r := &session.Record{}

	if err := binary.Read(reader, binary.BigEndian, &r.Generation); err != nil {
		return nil, err
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	r.Persistent = flags&recordFlagPersistent != 0

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
	r.RefreshedUTC = time.UnixMilli(refreshedMilli).UTC()
	r.RefreshAfter = time.Duration(refreshAfter)
	r.ValidFor = time.Duration(validFor)

	uidLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	uid := make([]byte, uidLen)
	if _, err := io.ReadFull(reader, uid); err != nil {
		return nil, err
	}
	r.UserID = string(uid)

	var devLen uint16
	if err := binary.Read(reader, binary.BigEndian, &devLen); err != nil {
		return nil, err
	}
	dev := make([]byte, devLen)
	if _, err := io.ReadFull(reader, dev); err != nil {
		return nil, err
	}
	r.Device = string(dev)

	ipLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	ip := make([]byte, ipLen)
	if _, err := io.ReadFull(reader, ip); err != nil {
		return nil, err
	}
	r.IPAddress = string(ip)

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes after record payload")
	}

	return r, nil
}
