package main

import (
	"flag"
	"fmt"
	"strings"

	"tipfinity/core/types"
	"tipfinity/crypto"
	"tipfinity/native/creator"
)

// submit fills in chain id and nonce from the node, signs tx and sends it.
func (c *cli) submit(keyFile string, tx *types.Transaction) int {
	key, err := c.loadSigner(keyFile)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error loading private key: %v\n", err)
		return 1
	}
	ctx, cancel := c.context()
	defer cancel()

	chainID, err := c.client.ChainID(ctx)
	if err != nil {
		return c.handleRPCError(err)
	}
	account, err := c.client.Account(ctx, key.PubKey().Address().String())
	if err != nil {
		return c.handleRPCError(err)
	}
	tx.ChainID = chainID
	tx.Nonce = account.Nonce
	if err := tx.Sign(key.PrivateKey); err != nil {
		fmt.Fprintf(c.stderr, "Error signing transaction: %v\n", err)
		return 1
	}
	receipt, err := c.client.SendTransaction(ctx, tx)
	if err != nil {
		return c.handleRPCError(err)
	}
	c.printJSON(receipt)
	return 0
}

func (c *cli) runTransfer(args []string) int {
	fs := flag.NewFlagSet("transfer", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var keyFile, to string
	var amount uint64
	fs.StringVar(&keyFile, "key", "wallet.key", "wallet key file")
	fs.StringVar(&to, "to", "", "recipient address")
	fs.Uint64Var(&amount, "amount", 0, "amount to send")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(to) == "" {
		fmt.Fprintln(c.stderr, "Error: --to is required")
		return 1
	}
	recipient, err := crypto.ParseAddress(strings.TrimSpace(to))
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: invalid --to address: %v\n", err)
		return 1
	}
	if amount == 0 {
		fmt.Fprintln(c.stderr, "Error: --amount must be positive")
		return 1
	}
	return c.submit(keyFile, &types.Transaction{
		Type:  types.TxTypeTransfer,
		To:    recipient[:],
		Value: amount,
	})
}

func (c *cli) runRegister(args []string) int {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var keyFile, username string
	fs.StringVar(&keyFile, "key", "wallet.key", "wallet key file")
	fs.StringVar(&username, "username", "", "creator username (at most 32 bytes)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if len(username) > creator.UsernameCapacity {
		fmt.Fprintf(c.stderr, "Error: username exceeds %d bytes\n", creator.UsernameCapacity)
		return 1
	}
	data, err := types.EncodePayload(&types.RegisterCreatorPayload{Username: username})
	if err != nil {
		fmt.Fprintf(c.stderr, "Error encoding payload: %v\n", err)
		return 1
	}
	return c.submit(keyFile, &types.Transaction{Type: types.TxTypeRegisterCreator, Data: data})
}

func (c *cli) runTip(args []string) int {
	fs := flag.NewFlagSet("tip", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var keyFile, to, record, note string
	var amount uint64
	fs.StringVar(&keyFile, "key", "wallet.key", "wallet key file")
	fs.StringVar(&to, "to", "", "creator wallet (owner) address")
	fs.StringVar(&record, "creator", "", "creator record address")
	fs.Uint64Var(&amount, "amount", 0, "amount to tip")
	fs.StringVar(&note, "note", "", "annotation stored with the tip (at most 256 bytes)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	to, record = strings.TrimSpace(to), strings.TrimSpace(record)
	if (to == "") == (record == "") {
		fmt.Fprintln(c.stderr, "Error: exactly one of --to or --creator is required")
		return 1
	}
	if amount == 0 {
		fmt.Fprintln(c.stderr, "Error: --amount must be positive")
		return 1
	}
	if len(note) > creator.MaxAnnotationLength {
		fmt.Fprintf(c.stderr, "Error: --note exceeds %d bytes\n", creator.MaxAnnotationLength)
		return 1
	}

	var creatorAddr, wallet [20]byte
	if to != "" {
		owner, err := crypto.ParseAddress(to)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: invalid --to address: %v\n", err)
			return 1
		}
		wallet = owner
		creatorAddr = creator.DeriveCreatorAddress(owner)
	} else {
		parsed, err := crypto.ParseAddress(record)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: invalid --creator address: %v\n", err)
			return 1
		}
		creatorAddr = parsed
		ctx, cancel := c.context()
		view, err := c.client.Creator(ctx, record)
		cancel()
		if err != nil {
			return c.handleRPCError(err)
		}
		if wallet, err = crypto.ParseAddress(view.Owner); err != nil {
			fmt.Fprintf(c.stderr, "Error: node returned invalid owner: %v\n", err)
			return 1
		}
	}

	data, err := types.EncodePayload(&types.RecordTipPayload{
		Creator:    creatorAddr,
		Wallet:     wallet,
		Amount:     amount,
		Annotation: []byte(note),
	})
	if err != nil {
		fmt.Fprintf(c.stderr, "Error encoding payload: %v\n", err)
		return 1
	}
	return c.submit(keyFile, &types.Transaction{Type: types.TxTypeRecordTip, Data: data})
}
