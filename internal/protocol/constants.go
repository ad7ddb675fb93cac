package protocol

const (
	// Preamble marks the start of every frame ("IDTP" little-endian).
	Preamble uint32 = 0x50544449
	// Version packs major<<4 | minor. v2.1 on the wire is 0x21.
	Version uint8 = 0x21

	HeaderSize     = 20
	FrameMaxSize   = 1024
	FrameMinSize   = HeaderSize
	CRC32Size      = 4
	HMACSize       = 32
	PayloadMaxSize = FrameMaxSize - HeaderSize - HMACSize // 972

	// header byte offsets
	offPreamble    = 0
	offTimestamp   = 4
	offSequence    = 8
	offDeviceID    = 12
	offPayloadSize = 14
	offVersion     = 16
	offMode        = 17
	offPayloadType = 18
	offCRC         = 19

	// HeaderCRCOffset is the index of the header CRC-8 byte. The CRC covers
	// bytes [0, HeaderCRCOffset).
	HeaderCRCOffset = offCRC
)
