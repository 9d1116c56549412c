// claimcheck is the command line front end: serve the API, verify claims in
// batch, inspect triple extraction and load a graph store KG mirror.
//
// Usage:
//
//	claimcheck serve [--port=8080] [--time-steps]
//	claimcheck verify [--file=claims.txt] [--concurrency=N] [--mode=hybrid] [claim...]
//	claimcheck triples <sentence>
//	claimcheck load <triples.nt>
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
