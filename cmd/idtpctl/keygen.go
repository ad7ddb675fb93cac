package main

import (
	"encoding/hex"
	"fmt"

	"github.com/danmuck/idtp/internal/keys"
	"github.com/spf13/cobra"
)

func newKeygenCmd() *cobra.Command {
	var (
		master string
		device uint16
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a random key, or derive a device key from a master",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				k   []byte
				err error
			)
			if master != "" {
				m, perr := keys.ParseHex(master)
				if perr != nil {
					return perr
				}
				k, err = keys.DeriveDeviceKey(m, device)
			} else {
				k, err = keys.Generate()
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(k))
			return nil
		},
	}
	cmd.Flags().StringVar(&master, "master", "", "hex master secret to derive from")
	cmd.Flags().Uint16Var(&device, "device", 0, "device id for derivation")
	return cmd
}
