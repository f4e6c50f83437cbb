package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tipfinity/core"
	"tipfinity/core/genesis"
	"tipfinity/crypto"
	"tipfinity/native/creator"
	"tipfinity/rpc"
	"tipfinity/storage"
)

type testEnv struct {
	url      string
	aliceKey string
	bobKey   string
	alice    string
	bob      string
}

func writeKey(t *testing.T, dir, name string) (string, string) {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, key.Bytes(), 0o600))
	return path, key.PubKey().Address().String()
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{}
	env.aliceKey, env.alice = writeKey(t, dir, "alice.key")
	env.bobKey, env.bob = writeKey(t, dir, "bob.key")

	spec, err := genesis.ParseGenesisSpec([]byte(fmt.Sprintf(
		`{"chainId": 5, "alloc": [{"address": %q, "balance": "500"}, {"address": %q, "balance": "500"}]}`,
		env.alice, env.bob)))
	require.NoError(t, err)
	node, err := core.NewNode(storage.NewMemDB(), spec, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(rpc.NewServer(node, rpc.ServerConfig{}, nil).Handler())
	t.Cleanup(srv.Close)
	env.url = srv.URL
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := run(append([]string{"--rpc", e.url}, args...), stdout, stderr)
	return code, stdout.String(), stderr.String()
}

func TestCreatorLifecycle(t *testing.T) {
	env := newTestEnv(t)

	code, out, errOut := env.run(t, "register", "--key", env.aliceKey, "--username", "alice")
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, `"status": "committed"`)

	code, _, errOut = env.run(t, "tip", "--key", env.bobKey, "--to", env.alice, "--amount", "40", "--note", "great stream")
	require.Equal(t, 0, code, errOut)

	ownerAddr, err := crypto.ParseAddress(env.alice)
	require.NoError(t, err)
	record := crypto.FormatAddress(creator.DeriveCreatorAddress(ownerAddr))

	code, _, errOut = env.run(t, "tip", "--key", env.bobKey, "--creator", record, "--amount", "2")
	require.Equal(t, 0, code, errOut)

	code, out, errOut = env.run(t, "creator", "--owner", env.alice)
	require.Equal(t, 0, code, errOut)
	var view rpc.CreatorResult
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Equal(t, record, view.Address)
	require.Equal(t, uint64(2), view.TipCount)
	require.Equal(t, "42", view.TotalTips)

	code, out, errOut = env.run(t, "tips", "--creator", record)
	require.Equal(t, 0, code, errOut)
	var page rpc.TipsPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Tips, 2)
	require.Equal(t, "great stream", page.Tips[0].Annotation)

	code, out, errOut = env.run(t, "balance", env.alice)
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "Balance: 542")

	exportPath := filepath.Join(t.TempDir(), "tips.jsonl")
	code, out, errOut = env.run(t, "export", "--creator", record, "--out", exportPath)
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "Exported 2 tips for alice")
	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestTipFailureIsReported(t *testing.T) {
	env := newTestEnv(t)
	code, _, errOut := env.run(t, "tip", "--key", env.bobKey, "--to", env.alice, "--amount", "5")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "Transaction failed (validation/CREATOR_NOT_FOUND)")
}

func TestTransferAndAddress(t *testing.T) {
	env := newTestEnv(t)
	code, out, errOut := env.run(t, "address", "--key", env.aliceKey)
	require.Equal(t, 0, code, errOut)
	require.Equal(t, env.alice, strings.TrimSpace(out))

	code, _, errOut = env.run(t, "transfer", "--key", env.aliceKey, "--to", env.bob, "--amount", "100")
	require.Equal(t, 0, code, errOut)
	code, out, _ = env.run(t, "balance", env.bob)
	require.Equal(t, 0, code)
	require.Contains(t, out, "Balance: 600")
}

func TestGenerateKeyRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.key")
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	require.Equal(t, 0, run([]string{"generate-key", "--out", path}, stdout, stderr), stderr.String())
	require.Contains(t, stdout.String(), "Your public address is: tip1")

	stderr.Reset()
	require.Equal(t, 1, run([]string{"generate-key", "--out", path}, stdout, stderr))
	require.Contains(t, stderr.String(), "refusing to overwrite")
}

func TestArgValidation(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"no command", nil, "Usage: tip-cli"},
		{"unknown", []string{"mint"}, "Unknown command: mint"},
		{"rpc missing value", []string{"--rpc"}, "missing value for --rpc"},
		{"tip needs target", []string{"tip", "--amount", "1"}, "exactly one of --to or --creator"},
		{"tip zero amount", []string{"tip", "--to", "tip1x"}, "--amount must be positive"},
		{"long note", []string{"tip", "--to", "tip1x", "--amount", "1", "--note", strings.Repeat("n", 257)}, "--note exceeds 256 bytes"},
		{"long username", []string{"register", "--username", strings.Repeat("u", 33)}, "username exceeds 32 bytes"},
		{"creator needs one", []string{"creator"}, "exactly one of --address or --owner"},
		{"tips needs creator", []string{"tips"}, "--creator is required"},
		{"export format", []string{"export", "--creator", "c", "--out", "o", "--format", "xml"}, "unsupported format"},
		{"balance usage", []string{"balance"}, "Usage: balance ADDRESS"},
		{"transfer bad to", []string{"transfer", "--to", "nope", "--amount", "1"}, "invalid --to address"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
			require.Equal(t, 1, run(tc.args, stdout, stderr))
			require.Contains(t, stderr.String(), tc.want)
		})
	}
}
