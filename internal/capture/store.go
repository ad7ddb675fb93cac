// Package capture persists validated frames to a local pebble store so a
// session can be replayed or inspected after the fact.
package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/danmuck/idtp/internal/protocol"
	"github.com/segmentio/ksuid"
)

// KeySize is device_id(2, BE) | session ksuid | sequence(4, BE). Big-endian
// fields keep pebble's byte order equal to (device, session, sequence) order.
const KeySize = 2 + len(ksuid.KSUID{}) + 4

var ErrShortFrame = errors.New("capture: frame shorter than its header declares")

// Record is one stored frame.
type Record struct {
	DeviceID uint16
	Session  ksuid.KSUID
	Sequence uint32
	Frame    []byte
}

type Store struct {
	db      *pebble.DB
	session ksuid.KSUID
}

// Open opens or creates the store at dir and starts a new capture session.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", dir, err)
	}
	return &Store{db: db, session: ksuid.New()}, nil
}

// Session identifies frames written through this Store.
func (s *Store) Session() ksuid.KSUID {
	return s.session
}

// Put stores raw keyed by the header it carries. raw is expected to be a
// validated frame; bytes past the declared frame size are dropped.
func (s *Store) Put(raw []byte) error {
	h, err := protocol.DecodeHeader(raw)
	if err != nil {
		return err
	}
	n := h.FrameSize()
	if n > len(raw) {
		return ErrShortFrame
	}
	key := EncodeKey(h.DeviceID, s.session, h.Sequence)
	return s.db.Set(key, raw[:n], pebble.NoSync)
}

// Scan calls fn for every frame of deviceID in (session, sequence) order.
// Returning an error from fn stops the scan and is returned.
func (s *Store) Scan(deviceID uint16, fn func(Record) error) error {
	lower := make([]byte, 2)
	binary.BigEndian.PutUint16(lower, deviceID)
	opts := &pebble.IterOptions{LowerBound: lower}
	if deviceID < 0xFFFF {
		upper := make([]byte, 2)
		binary.BigEndian.PutUint16(upper, deviceID+1)
		opts.UpperBound = upper
	}
	return s.iterate(opts, func(key, value []byte) error {
		if !bytes.HasPrefix(key, lower) {
			return nil
		}
		rec, err := decodeRecord(key, value)
		if err != nil {
			return err
		}
		return fn(rec)
	})
}

// Count returns the number of stored frames across all sessions.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.iterate(&pebble.IterOptions{}, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) iterate(opts *pebble.IterOptions, fn func(key, value []byte) error) error {
	iter, err := s.db.NewIter(opts)
	if err != nil {
		return err
	}
	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			_ = iter.Close()
			return err
		}
	}
	return iter.Close()
}

func EncodeKey(deviceID uint16, session ksuid.KSUID, seq uint32) []byte {
	key := make([]byte, KeySize)
	binary.BigEndian.PutUint16(key[0:2], deviceID)
	copy(key[2:2+len(ksuid.KSUID{})], session.Bytes())
	binary.BigEndian.PutUint32(key[2+len(ksuid.KSUID{}):], seq)
	return key
}

func decodeRecord(key, value []byte) (Record, error) {
	if len(key) != KeySize {
		return Record{}, fmt.Errorf("capture: bad key length %d", len(key))
	}
	session, err := ksuid.FromBytes(key[2 : 2+len(ksuid.KSUID{})])
	if err != nil {
		return Record{}, fmt.Errorf("capture: bad session id: %w", err)
	}
	return Record{
		DeviceID: binary.BigEndian.Uint16(key[0:2]),
		Session:  session,
		Sequence: binary.BigEndian.Uint32(key[2+len(ksuid.KSUID{}):]),
		Frame:    append([]byte(nil), value...),
	}, nil
}
