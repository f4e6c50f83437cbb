package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strings"

	"tipfinity/crypto"
)

func (c *cli) runGenerateKey(args []string) int {
	fs := flag.NewFlagSet("generate-key", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var out string
	var encrypt bool
	fs.StringVar(&out, "out", "wallet.key", "file to write the key to")
	fs.BoolVar(&encrypt, "keystore", false, "encrypt the key into a passphrase-protected keystore")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	out = strings.TrimSpace(out)
	if out == "" {
		fmt.Fprintln(c.stderr, "Error: --out is required")
		return 1
	}
	if _, err := os.Stat(out); err == nil {
		fmt.Fprintf(c.stderr, "Error: %s already exists; refusing to overwrite a wallet key\n", out)
		return 1
	}

	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		fmt.Fprintf(c.stderr, "Error generating key: %v\n", err)
		return 1
	}
	if encrypt {
		pass, err := c.passphrase.Get()
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 1
		}
		if err := crypto.SaveKeystore(out, key, pass, crypto.KeystoreStandard); err != nil {
			fmt.Fprintf(c.stderr, "Failed to write keystore %s: %v\n", out, err)
			return 1
		}
	} else if err := os.WriteFile(out, []byte(key.Hex()+"\n"), 0o600); err != nil {
		fmt.Fprintf(c.stderr, "Failed to save key to %s: %v\n", out, err)
		return 1
	}

	fmt.Fprintf(c.stdout, "Generated new key and saved to %s\n", out)
	fmt.Fprintf(c.stdout, "Your public address is: %s\n", key.PubKey().Address().String())
	return 0
}

func (c *cli) runAddress(args []string) int {
	fs := flag.NewFlagSet("address", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var keyFile string
	fs.StringVar(&keyFile, "key", "wallet.key", "wallet key file")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	key, err := c.loadSigner(keyFile)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error loading private key: %v\n", err)
		return 1
	}
	fmt.Fprintln(c.stdout, key.PubKey().Address().String())
	return 0
}

// loadSigner reads a hex or raw key file, or an encrypted keystore.
func (c *cli) loadSigner(path string) (*crypto.PrivateKey, error) {
	path = strings.TrimSpace(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("private key file %s not found. run tip-cli generate-key first", path)
		}
		return nil, fmt.Errorf("failed to read private key file %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("private key file %s is empty", path)
	}
	if crypto.IsKeystore(data) {
		pass, err := c.passphrase.Get()
		if err != nil {
			return nil, err
		}
		key, err := crypto.LoadKeystore(path, pass)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt keystore %s: %w", path, err)
		}
		return key, nil
	}
	key, err := crypto.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key in %s: %w", path, err)
	}
	return key, nil
}
