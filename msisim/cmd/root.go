// Package cmd provides the command-line interface of msisim.
package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var rootCmd = &cobra.Command{
	Use:   "msisim",
	Short: "msisim simulates a two-level MSI cache hierarchy.",
	Long: `msisim simulates requesters with private L1 caches that share an ` +
		`L2 cache and a main memory over a snooping bus. Flag defaults can ` +
		`be set with MSISIM_* variables, also read from a .env file.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Cannot load .env: %v\n", err)
	}
}

func envString(name, fallback string) string {
	if value, found := os.LookupEnv("MSISIM_" + name); found {
		return value
	}

	return fallback
}

func envInt(name string, fallback int) int {
	value, found := os.LookupEnv("MSISIM_" + name)
	if !found {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ignoring MSISIM_%s=%q: %v\n", name, value, err)
		return fallback
	}

	return n
}

func envFloat(name string, fallback float64) float64 {
	value, found := os.LookupEnv("MSISIM_" + name)
	if !found {
		return fallback
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ignoring MSISIM_%s=%q: %v\n", name, value, err)
		return fallback
	}

	return f
}

func envBool(name string, fallback bool) bool {
	value, found := os.LookupEnv("MSISIM_" + name)
	if !found {
		return fallback
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ignoring MSISIM_%s=%q: %v\n", name, value, err)
		return fallback
	}

	return b
}
