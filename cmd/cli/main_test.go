package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleDocument = `{"doc_id":"doc-9","owner_inn":"7701111111","reg_date":"2020-01-23","stray":true}`

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SKIP_DOTENV", "true")

	var stdout bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(io.Discard)

	err := root.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNormalize_JSON(t *testing.T) {
	out, err := runCLI(t, "", "normalize", "--file", writeFile(t, "doc.json", sampleDocument))
	require.NoError(t, err)

	var got struct {
		Document map[string]any `json:"document"`
		Report   struct {
			Present []string `json:"present"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "doc-9", got.Document["doc_id"])
	assert.Equal(t, "2020-01-23", got.Document["reg_date"])
	assert.NotContains(t, got.Document, "stray")
	assert.Contains(t, got.Report.Present, "owner_inn")
}

func TestNormalize_YAMLFromStdin(t *testing.T) {
	out, err := runCLI(t, sampleDocument, "normalize", "--file", "-", "--output", "yaml")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	doc, ok := got["document"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "7701111111", doc["owner_inn"])
}

func TestNormalize_Errors(t *testing.T) {
	_, err := runCLI(t, "", "normalize")
	assert.Error(t, err, "missing --file")

	_, err = runCLI(t, "[]", "normalize", "--file", "-")
	assert.Error(t, err, "non-object document")

	_, err = runCLI(t, sampleDocument, "normalize", "--file", "-", "--output", "xml")
	assert.Error(t, err)
}

func TestSubmit_PostsToConfiguredEndpoint(t *testing.T) {
	var gotSignature string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("Signature")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	t.Setenv("CRPT_API_URL", server.URL)
	t.Setenv("CRPT_REQUEST_LIMIT", "1")

	sigPath := writeFile(t, "doc.sig", "c2lnbmF0dXJl\n")
	out, err := runCLI(t, "", "submit", "--file", writeFile(t, "doc.json", sampleDocument), "--signature-file", sigPath)
	require.NoError(t, err)

	assert.Equal(t, "c2lnbmF0dXJl", gotSignature)
	assert.Equal(t, "doc-9", gotBody["doc_id"])
	assert.NotContains(t, gotBody, "stray")
	assert.Contains(t, out, `"accepted": true`)
}

func TestSubmit_RejectedReplyFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	t.Setenv("CRPT_API_URL", server.URL)

	out, err := runCLI(t, sampleDocument, "submit", "--file", "-", "--signature", "sig")
	require.Error(t, err)
	assert.Contains(t, out, `"upstream_status": 403`)
}

func TestSubmit_RequiresSignature(t *testing.T) {
	_, err := runCLI(t, sampleDocument, "submit", "--file", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature is required")
}

func TestSubmit_InvalidLimitFailsFast(t *testing.T) {
	t.Setenv("CRPT_REQUEST_LIMIT", "0")

	_, err := runCLI(t, sampleDocument, "submit", "--file", "-", "--signature", "sig")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRPT_REQUEST_LIMIT")
}
