package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "codetrust-api",
	Short: "CodeTrust AI authentication backend",
	Long:  `Account, session and password recovery backend for CodeTrust AI, served over HTTP and optionally gRPC.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
