// Package main provides a one-shot utility for founding-grant key generation.
//
// It emits the asymmetric keypair used to sign co-founder invite grants,
// either as shell exports or as .env file lines.
package main

import (
	"flag"
	"os"

	"github.com/hearthhold/hearthhold/internal/platform/config"
	"github.com/hearthhold/hearthhold/internal/tools/grantkey"
)

func main() {
	format := flag.String("format", string(grantkey.FormatShell), "output format: shell or env")
	flag.Parse()

	if err := grantkey.Run(os.Stdout, nil, grantkey.Format(*format)); err != nil {
		config.Exitf("generate founding grant key: %v", err)
	}
}
