package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/icco/possumbox/internal/midiport"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI input and output ports",
	Run: func(cmd *cobra.Command, args []string) {
		ins, outs := midiport.List()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Inputs:")
		printPorts(cmd, ins)
		fmt.Fprintln(out, "Outputs:")
		printPorts(cmd, outs)
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

func printPorts(cmd *cobra.Command, names []string) {
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "  (none)")
		return
	}
	for i, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "  %d: %s\n", i, name)
	}
}
