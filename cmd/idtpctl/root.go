package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "idtpctl",
		Short: "Send, receive and inspect IDTP frames",
		Long: `idtpctl drives the IDTP inertial data transfer protocol from the
command line: stream synthetic IMU frames, receive and verify them, and
encode or decode single frames as hex.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newSendCmd(),
		newRecvCmd(),
		newEncodeCmd(),
		newDecodeCmd(),
		newConfigCmd(),
		newKeygenCmd(),
		newCaptureCmd(),
	)
	return root
}
