// research is the command-line front end of the market-research pipeline.
//
// Usage:
//
//	research run "<product idea>" [--with strategist,coach] [--force] [--export output]
//	research capabilities
//	research history list | show <topic> | search <query>
//	research runs
//	research serve [--addr :8080]
//	research mcp
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
