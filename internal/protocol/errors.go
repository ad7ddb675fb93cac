package protocol

import "errors"

var (
	ErrBufferUnderflow = errors.New("idtp: buffer underflow")
	ErrBufferOverflow  = errors.New("idtp: buffer overflow")
	ErrInvalidCRC      = errors.New("idtp: invalid crc")
	ErrInvalidHMAC     = errors.New("idtp: invalid hmac")
	ErrInvalidHMACKey  = errors.New("idtp: invalid hmac key")
	ErrParse           = errors.New("idtp: parse error")
)
