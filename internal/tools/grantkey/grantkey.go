package grantkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// Format selects how the generated key pair is written.
type Format string

const (
	// FormatShell writes export lines suitable for eval in a shell.
	FormatShell Format = "shell"
	// FormatEnvFile writes KEY=value lines suitable for a .env file.
	FormatEnvFile Format = "env"
)

const (
	privateKeyVar = "HEARTHHOLD_FOUNDING_GRANT_PRIVATE_KEY"
	publicKeyVar  = "HEARTHHOLD_FOUNDING_GRANT_PUBLIC_KEY"
)

// Run generates a founding grant key pair and writes both halves in the
// requested format. An empty format defaults to shell exports.
func Run(out io.Writer, reader io.Reader, format Format) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}
	var prefix string
	switch format {
	case FormatShell, "":
		prefix = "export "
	case FormatEnvFile:
		prefix = ""
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	publicKey, privateKey, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate founding grant key: %w", err)
	}
	if _, err := fmt.Fprintf(out, "%s%s=%s\n", prefix, privateKeyVar, base64.RawStdEncoding.EncodeToString(privateKey)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "%s%s=%s\n", prefix, publicKeyVar, base64.RawStdEncoding.EncodeToString(publicKey)); err != nil {
		return err
	}
	return nil
}
