package main

import (
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/breeding-verifier/internal/host"
	"github.com/danielpatrickdp/breeding-verifier/internal/journal"
)

var decodeJSON bool

var decodeCmd = &cobra.Command{
	Use:   "decode <journal-hex>",
	Short: "Decode a 54-byte public record",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeJSON, "json", false, "output as JSON")
}

func runDecode(cmd *cobra.Command, args []string) error {
	rec, err := journal.DecodeHex(args[0])
	if err != nil {
		return err
	}
	enc := journal.Encode(rec)
	return printProof(cmd.OutOrStdout(), host.Proof{Record: rec, Journal: enc[:]}, decodeJSON)
}
