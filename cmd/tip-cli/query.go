package main

import (
	"flag"
	"fmt"
	"strings"
)

func (c *cli) runBalance(args []string) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(c.stderr, "Usage: balance ADDRESS")
		return 1
	}
	ctx, cancel := c.context()
	defer cancel()
	account, err := c.client.Account(ctx, strings.TrimSpace(args[0]))
	if err != nil {
		return c.handleRPCError(err)
	}
	fmt.Fprintf(c.stdout, "State for: %s\n", account.Address)
	fmt.Fprintf(c.stdout, "  Balance: %d\n", account.Balance)
	fmt.Fprintf(c.stdout, "  Nonce:   %d\n", account.Nonce)
	return 0
}

func (c *cli) runCreator(args []string) int {
	fs := flag.NewFlagSet("creator", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var address, owner string
	fs.StringVar(&address, "address", "", "creator record address")
	fs.StringVar(&owner, "owner", "", "creator wallet address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	address, owner = strings.TrimSpace(address), strings.TrimSpace(owner)
	if (address == "") == (owner == "") {
		fmt.Fprintln(c.stderr, "Error: exactly one of --address or --owner is required")
		return 1
	}
	ctx, cancel := c.context()
	defer cancel()
	var err error
	var view interface{}
	if address != "" {
		view, err = c.client.Creator(ctx, address)
	} else {
		view, err = c.client.CreatorByOwner(ctx, owner)
	}
	if err != nil {
		return c.handleRPCError(err)
	}
	c.printJSON(view)
	return 0
}

func (c *cli) runTips(args []string) int {
	fs := flag.NewFlagSet("tips", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var record string
	var offset, limit uint64
	fs.StringVar(&record, "creator", "", "creator record address")
	fs.Uint64Var(&offset, "offset", 0, "first sequence number to return")
	fs.Uint64Var(&limit, "limit", 20, "maximum tips to return (at most 100)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(record) == "" {
		fmt.Fprintln(c.stderr, "Error: --creator is required")
		return 1
	}
	ctx, cancel := c.context()
	defer cancel()
	page, err := c.client.ListTips(ctx, strings.TrimSpace(record), offset, limit)
	if err != nil {
		return c.handleRPCError(err)
	}
	c.printJSON(page)
	return 0
}
