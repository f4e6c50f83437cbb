package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"tipfinity/cmd/internal/passphrase"
	"tipfinity/rpc"
)

const (
	rpcURLEnv         = "RPC_URL"
	rpcTokenEnv       = "TIP_RPC_TOKEN"
	keystorePassEnv   = "TIP_KEYSTORE_PASS"
	defaultRPCURL     = "http://localhost:8545"
	defaultRPCTimeout = 30 * time.Second
)

// cli carries the per-invocation settings shared by every subcommand.
type cli struct {
	endpoint   string
	client     *rpc.Client
	passphrase *passphrase.Source
	stdout     io.Writer
	stderr     io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	endpoint := defaultRPCEndpoint()
	args, endpoint, err := applyGlobalFlags(args, endpoint)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if len(args) < 1 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	c := &cli{
		endpoint:   endpoint,
		client:     rpc.NewClient(endpoint, os.Getenv(rpcTokenEnv)),
		passphrase: passphrase.NewSource(keystorePassEnv, "wallet keystore"),
		stdout:     stdout,
		stderr:     stderr,
	}

	command, rest := args[0], args[1:]
	switch command {
	case "generate-key":
		return c.runGenerateKey(rest)
	case "address":
		return c.runAddress(rest)
	case "balance":
		return c.runBalance(rest)
	case "transfer":
		return c.runTransfer(rest)
	case "register":
		return c.runRegister(rest)
	case "tip":
		return c.runTip(rest)
	case "creator":
		return c.runCreator(rest)
	case "tips":
		return c.runTips(rest)
	case "export":
		return c.runExport(rest)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		fmt.Fprintln(stderr, usage())
		return 1
	}
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv(rpcURLEnv)); v != "" {
		return v
	}
	return defaultRPCURL
}

func applyGlobalFlags(args []string, endpoint string) ([]string, string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--rpc" {
			if i+1 >= len(args) {
				return nil, "", fmt.Errorf("missing value for --rpc")
			}
			endpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--rpc=") {
			endpoint = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		out = append(out, arg)
	}
	return out, endpoint, nil
}

func (c *cli) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), defaultRPCTimeout)
}

// handleRPCError prints err, expanding structured transaction failures.
func (c *cli) handleRPCError(err error) int {
	if txErr, ok := rpc.TransactionErrorOf(err); ok {
		fmt.Fprintf(c.stderr, "Transaction failed (%s/%s): %s\n", txErr.Kind, txErr.Code, txErr.Message)
		if txErr.TxHash != "" {
			fmt.Fprintf(c.stderr, "  tx: %s\n", txErr.TxHash)
		}
		return 1
	}
	var rpcErr *rpc.RPCError
	if errors.As(err, &rpcErr) {
		fmt.Fprintf(c.stderr, "Error from node: %s (code %d)\n", rpcErr.Message, rpcErr.Code)
		return 1
	}
	fmt.Fprintf(c.stderr, "Error contacting %s: %v\n", c.endpoint, err)
	return 1
}

func (c *cli) printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(c.stdout, "%+v\n", v)
		return
	}
	fmt.Fprintln(c.stdout, string(data))
}

func usage() string {
	return strings.TrimSpace(`
Usage: tip-cli [--rpc URL] <command> [flags]

Commands:
  generate-key --out FILE [--keystore]          create a wallet key
  address      --key FILE                        print the wallet address
  balance      ADDRESS                           show balance and nonce
  transfer     --key FILE --to ADDRESS --amount N
  register     --key FILE --username NAME        register a creator record
  tip          --key FILE (--to OWNER | --creator RECORD) --amount N [--note TEXT]
  creator      (--address RECORD | --owner ADDRESS)
  tips         --creator RECORD [--offset N] [--limit N]
  export       --creator RECORD --out FILE [--format jsonl|csv|parquet]

Environment:
  RPC_URL            node endpoint (default http://localhost:8545)
  TIP_RPC_TOKEN      bearer token for tip_sendTransaction
  TIP_KEYSTORE_PASS  passphrase for encrypted wallet keys`)
}
