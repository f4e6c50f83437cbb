package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tipfinity/core/types"
)

// Client is a typed JSON-RPC client for the node.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// NewClient builds a client for endpoint. token is sent on privileged calls.
func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		token:    strings.TrimSpace(token),
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// WithHTTPClient swaps the underlying transport.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	if h != nil {
		c.http = h
	}
	return c
}

// Call invokes method with params and decodes the result into out. A JSON-RPC
// error is returned as *RPCError.
func (c *Client) Call(ctx context.Context, method string, params []interface{}, requireAuth bool, out interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	payload, err := json.Marshal(map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requireAuth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode response from node (status %d): %w", resp.StatusCode, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// TransactionErrorOf extracts the structured failure from an error returned by
// SendTransaction.
func TransactionErrorOf(err error) (*TransactionError, bool) {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != codeTransactionFailed || rpcErr.Data == nil {
		return nil, false
	}
	raw, marshalErr := json.Marshal(rpcErr.Data)
	if marshalErr != nil {
		return nil, false
	}
	out := new(TransactionError)
	if json.Unmarshal(raw, out) != nil {
		return nil, false
	}
	return out, true
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) (*ReceiptResult, error) {
	out := new(ReceiptResult)
	if err := c.Call(ctx, "tip_sendTransaction", []interface{}{tx}, true, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	var out uint64
	err := c.Call(ctx, "tip_chainId", nil, false, &out)
	return out, err
}

func (c *Client) Account(ctx context.Context, address string) (*AccountResult, error) {
	out := new(AccountResult)
	if err := c.Call(ctx, "tip_getAccount", []interface{}{address}, false, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Creator fetches a creator record by record address.
func (c *Client) Creator(ctx context.Context, address string) (*CreatorResult, error) {
	return c.getCreator(ctx, creatorQuery{Address: address})
}

// CreatorByOwner fetches the creator record registered by owner.
func (c *Client) CreatorByOwner(ctx context.Context, owner string) (*CreatorResult, error) {
	return c.getCreator(ctx, creatorQuery{Owner: owner})
}

func (c *Client) getCreator(ctx context.Context, q creatorQuery) (*CreatorResult, error) {
	out := new(CreatorResult)
	if err := c.Call(ctx, "tip_getCreator", []interface{}{q}, false, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Tip(ctx context.Context, creatorAddr string, sequence uint64) (*TipResult, error) {
	out := new(TipResult)
	if err := c.Call(ctx, "tip_getTip", []interface{}{tipQuery{Creator: creatorAddr, Sequence: sequence}}, false, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListTips(ctx context.Context, creatorAddr string, offset, limit uint64) (*TipsPage, error) {
	out := new(TipsPage)
	q := listTipsQuery{Creator: creatorAddr, Offset: offset, Limit: limit}
	if err := c.Call(ctx, "tip_listTips", []interface{}{q}, false, out); err != nil {
		return nil, err
	}
	return out, nil
}

// AllTips pages through every tip of a creator in sequence order.
func (c *Client) AllTips(ctx context.Context, creatorAddr string) (*CreatorResult, []TipResult, error) {
	var (
		offset uint64
		tips   []TipResult
	)
	for {
		page, err := c.ListTips(ctx, creatorAddr, offset, maxTipsLimit)
		if err != nil {
			return nil, nil, err
		}
		tips = append(tips, page.Tips...)
		if page.NextOffset == nil {
			creatorView := page.Creator
			return &creatorView, tips, nil
		}
		offset = *page.NextOffset
	}
}

func (c *Client) DeriveAddresses(ctx context.Context, owner string, sequence *uint64) (*DerivedAddresses, error) {
	out := new(DerivedAddresses)
	if err := c.Call(ctx, "tip_deriveAddresses", []interface{}{deriveQuery{Owner: owner, Sequence: sequence}}, false, out); err != nil {
		return nil, err
	}
	return out, nil
}
