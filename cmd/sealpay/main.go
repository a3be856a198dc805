package main

import (
	"os"

	"github.com/spf13/cobra"

	"sealpay/internal/interfaces/cli/migrate"
	"sealpay/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sealpay",
		Short: "sealpay - crypto payment verification and sealed coupon disclosure",
		Long:  `sealpay verifies fiat-priced crypto payments against chain truth and gates time-boxed reveal of threshold-encrypted promotional codes.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
