/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package protocol implements the NTPv3 wire packet: a fixed 48-byte,
big-endian layout, and the fixed-point timestamp formats it carries.
*/
package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// PacketSizeBytes is the size of a well-formed NTP packet on the wire.
const PacketSizeBytes = 48

// secondsFrom1900To1970 is the offset between the NTP epoch (1 Jan 1900) and
// the Unix epoch (1 Jan 1970), in seconds: ((365*70)+17)*86400.
const secondsFrom1900To1970 = 2208988800

// Mode values used in the LI|VN|Mode settings byte.
const (
	ModeReserved mode = iota
	ModeSymmetricActive
	ModeSymmetricPassive
	ModeClient
	ModeServer
	ModeBroadcast
	ModeControl
	ModeReservedPrivate
)

type mode uint8

// LeapIndicator is the 2-bit leap-second warning field.
type LeapIndicator uint8

// Leap indicator values.
const (
	LeapNoWarning LeapIndicator = 0
	LeapAddSecond LeapIndicator = 1
	LeapDelSecond LeapIndicator = 2
	LeapNotInSync LeapIndicator = 3
)

// RequestVersion is the NTP protocol version this client speaks.
const RequestVersion = 3

// Time32 is the 32-bit (Q16.16) fixed-point seconds format used for root
// delay and root dispersion.
type Time32 struct {
	Whole    uint16
	Fraction uint16
}

// DurationMilliseconds returns the duration represented by t, in milliseconds.
func (t Time32) DurationMilliseconds() int64 {
	return int64(t.Whole)*1000 + int64(t.Fraction)*1000/65536
}

// Time64 is the 64-bit (Q32.32) fixed-point NTP timestamp: Whole counts
// seconds since the NTP epoch (1 Jan 1900 UTC), Fraction is a binary
// fixed-point fraction of a second (f represents f/2^32 seconds).
type Time64 struct {
	Whole    uint32
	Fraction uint32
}

// Time64FromUnix builds a Time64 from a Unix (seconds, microseconds) pair.
func Time64FromUnix(sec, usec int64) Time64 {
	return Time64{
		Whole:    uint32(sec + secondsFrom1900To1970),
		Fraction: uint32(usec * (1 << 32) / 1_000_000),
	}
}

// Milliseconds converts t into milliseconds since the Unix epoch.
func (t Time64) Milliseconds() int64 {
	fracUsec := (int64(t.Fraction)*1_000_000 + 1<<31) >> 32
	return (int64(t.Whole)-secondsFrom1900To1970)*1000 + fracUsec/1000
}

// Packet is an NTPv3 packet, 48 bytes on the wire, big-endian.
//
//	0                   1                   2                   3
//	0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|LI | VN  |Mode |    Stratum    |     Poll      |  Precision    |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                         Root Delay                            |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                         Root Dispersion                        |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                          Reference ID                          |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                     Reference Timestamp (64)                   |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                      Origin Timestamp (64)                     |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                      Receive Timestamp (64)                    |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                     Transmit Timestamp (64)                    |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
type Packet struct {
	Settings       uint8 // leap indicator, version, mode
	Stratum        uint8
	Poll           int8
	Precision      int8
	RootDelay      Time32
	RootDispersion Time32
	ReferenceID    uint32
	ReferenceTime  Time64
	OriginTime     Time64
	ReceiveTime    Time64
	TransmitTime   Time64
}

// Mode returns the mode field from Settings.
func (p *Packet) Mode() mode {
	return mode(p.Settings & 0x07)
}

// Version returns the version field from Settings.
func (p *Packet) Version() int {
	return int((p.Settings >> 3) & 0x07)
}

// Leap returns the leap indicator field from Settings.
func (p *Packet) Leap() LeapIndicator {
	return LeapIndicator((p.Settings >> 6) & 0x03)
}

func settings(li LeapIndicator, version int, md mode) uint8 {
	return uint8(li)<<6 | uint8(version)<<3 | uint8(md)
}

// EncodeRequest builds a 48-byte client-mode NTPv3 request carrying
// transmit as the correlation timestamp.
func EncodeRequest(transmit Time64) []byte {
	p := &Packet{
		Settings:     settings(LeapNoWarning, RequestVersion, ModeClient),
		TransmitTime: transmit,
	}
	buf, err := p.Bytes()
	if err != nil {
		// binary.Write only fails on unsupported types; Packet is fixed-size
		// and entirely made of fixed-width integers, so this is unreachable.
		panic(err)
	}
	return buf
}

// ErrBadResponse is returned when a datagram cannot be decoded as a 48-byte
// NTP packet.
var ErrBadResponse = fmt.Errorf("malformed NTP response")

// DecodeResponse parses a 48-byte big-endian datagram into a Packet.
func DecodeResponse(raw []byte) (*Packet, error) {
	if len(raw) != PacketSizeBytes {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrBadResponse, len(raw), PacketSizeBytes)
	}
	return BytesToPacket(raw)
}

// Bytes serializes p into a 48-byte big-endian buffer.
func (p *Packet) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BytesToPacket parses a 48-byte big-endian buffer into a Packet.
func BytesToPacket(raw []byte) (*Packet, error) {
	p := &Packet{}
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, p); err != nil {
		return nil, err
	}
	return p, nil
}
