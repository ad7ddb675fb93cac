package main

import (
	"fmt"

	"github.com/danmuck/idtp/internal/capture"
	"github.com/danmuck/idtp/internal/protocol"
	"github.com/spf13/cobra"
)

func newCaptureCmd() *cobra.Command {
	var (
		dir    string
		device uint16
	)
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "List frames stored by recv",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := capture.Open(dir)
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			total, err := store.Count()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%d frames stored\n", total)
			return store.Scan(device, func(r capture.Record) error {
				h, err := protocol.DecodeHeader(r.Frame)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s seq=%d ts=%d type=0x%02x size=%d\n",
					r.Session, r.Sequence, h.Timestamp, h.PayloadType, len(r.Frame))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "./capture", "capture directory")
	cmd.Flags().Uint16Var(&device, "device", 0, "device id to list")
	return cmd
}
