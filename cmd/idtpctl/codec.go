package main

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/danmuck/idtp/internal/keys"
	"github.com/danmuck/idtp/internal/protocol"
	"github.com/danmuck/idtp/internal/protocol/frame"
	"github.com/danmuck/idtp/internal/protocol/payload"
	"github.com/danmuck/idtp/internal/protocol/payload/imu"
	"github.com/spf13/cobra"
)

type encodeOptions struct {
	device  uint16
	seq     uint32
	ts      uint32
	mode    string
	kind    string
	values  string
	rawHex  string
	typeID  uint8
	keyHex  string
	version uint8
}

func newEncodeCmd() *cobra.Command {
	var o encodeOptions
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Pack one frame and print it as hex",
		Example: `  idtpctl encode --device 0xab --seq 1 --kind imu3acc --values 0.1,0.2,0.3
  idtpctl encode --mode lite --raw deadbeef --type 0x80`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := encodeFrame(o)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(out))
			return nil
		},
	}
	f := cmd.Flags()
	f.Uint16Var(&o.device, "device", 0, "device id")
	f.Uint32Var(&o.seq, "seq", 0, "sequence number")
	f.Uint32Var(&o.ts, "ts", 0, "timestamp")
	f.StringVar(&o.mode, "mode", "safety", "lite|safety|secure")
	f.StringVar(&o.kind, "kind", "imu3acc", "standard payload kind")
	f.StringVar(&o.values, "values", "", "comma separated float32 fields for --kind")
	f.StringVar(&o.rawHex, "raw", "", "raw payload hex (overrides --kind)")
	f.Uint8Var(&o.typeID, "type", 0x80, "payload type for --raw")
	f.StringVar(&o.keyHex, "key", "", "hex HMAC key for secure mode")
	f.Uint8Var(&o.version, "version", protocol.Version, "version byte")
	return cmd
}

func encodeFrame(o encodeOptions) ([]byte, error) {
	mode, err := protocol.ParseMode(strings.ToLower(o.mode))
	if err != nil {
		return nil, err
	}
	var key []byte
	if o.keyHex != "" {
		if key, err = keys.ParseHex(o.keyHex); err != nil {
			return nil, err
		}
	}

	h := protocol.NewHeader()
	h.DeviceID = o.device
	h.Sequence = o.seq
	h.Timestamp = o.ts
	h.Version = o.version
	h.SetMode(mode)
	f := frame.New()
	f.SetHeader(h)

	if o.rawHex != "" {
		data, err := hex.DecodeString(strings.TrimSpace(o.rawHex))
		if err != nil {
			return nil, fmt.Errorf("raw payload: %w", err)
		}
		if err := f.SetPayloadRaw(data, o.typeID); err != nil {
			return nil, err
		}
	} else {
		id, data, err := recordFromValues(imu.NewRegistry(), o.kind, o.values)
		if err != nil {
			return nil, err
		}
		if err := f.SetPayloadRaw(data, id); err != nil {
			return nil, err
		}
	}

	out := make([]byte, protocol.FrameMaxSize)
	n, err := f.Pack(out, key)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

// recordFromValues packs float32 fields for a registered fixed-size kind.
// Missing trailing values are zero.
func recordFromValues(reg *payload.Registry, kind, values string) (uint8, []byte, error) {
	var entry payload.Entry
	found := false
	for _, e := range reg.All() {
		if e.Name == kind {
			entry, found = e, true
			break
		}
	}
	if !found {
		return 0, nil, fmt.Errorf("unknown payload kind %q", kind)
	}
	size := entry.New().Size()
	data := make([]byte, size)
	if strings.TrimSpace(values) == "" {
		return entry.ID, data, nil
	}
	fields := strings.Split(values, ",")
	if len(fields)*4 > size {
		return 0, nil, fmt.Errorf("%s takes at most %d values, got %d", kind, size/4, len(fields))
	}
	for i, s := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
		if err != nil {
			return 0, nil, fmt.Errorf("value %d: %w", i, err)
		}
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(float32(v)))
	}
	return entry.ID, data, nil
}

func newDecodeCmd() *cobra.Command {
	var keyHex string
	cmd := &cobra.Command{
		Use:   "decode <hex>",
		Short: "Validate and decode one hex frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := hex.DecodeString(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("frame hex: %w", err)
			}
			var key []byte
			if keyHex != "" {
				if key, err = keys.ParseHex(keyHex); err != nil {
					return err
				}
			}
			return describeFrame(cmd.OutOrStdout(), b, key)
		},
	}
	cmd.Flags().StringVar(&keyHex, "key", "", "hex HMAC key for secure frames")
	return cmd
}

func describeFrame(w io.Writer, b, key []byte) error {
	verr := frame.Validate(b, key)
	f, err := frame.Decode(b)
	if err != nil {
		if verr != nil {
			return verr
		}
		return err
	}
	h := f.Header()
	reg := imu.NewRegistry()
	fmt.Fprintln(w, h.String())
	fmt.Fprintf(w, "frame:   %d bytes (header %d, payload %d, trailer %d)\n",
		f.Size(), protocol.HeaderSize, f.PayloadSize(), f.TrailerSize())
	if verr != nil {
		fmt.Fprintf(w, "valid:   no (%v)\n", verr)
	} else {
		fmt.Fprintln(w, "valid:   yes")
	}
	raw, err := f.PayloadRaw()
	if err != nil {
		return err
	}
	p, err := reg.Decode(h.PayloadType, raw)
	if err != nil {
		fmt.Fprintf(w, "payload: %s %x (%v)\n", reg.Name(h.PayloadType), raw, err)
		return verr
	}
	fmt.Fprintf(w, "payload: %s %+v\n", reg.Name(h.PayloadType), p)
	return verr
}
