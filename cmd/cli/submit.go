package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akeren/crpt-gateway/config"
	"github.com/spf13/cobra"
)

type submitOutput struct {
	UpstreamStatus int    `json:"upstream_status"`
	UpstreamText   string `json:"upstream_status_text"`
	Accepted       bool   `json:"accepted"`
	WaitedMs       int64  `json:"waited_ms"`
	ElapsedMs      int64  `json:"elapsed_ms"`
}

func newSubmitCmd(opts *cliOptions) *cobra.Command {
	var (
		file          string
		signature     string
		signatureFile string
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a signed document to the registration service",
		Long: `Normalize a document and submit it with its detached signature, honouring
CRPT_REQUEST_LIMIT per CRPT_TIME_UNIT. A non-2xx reply exits with an error after
printing the upstream status.`,
		Example: `  crpt submit --file doc.json --signature "$(cat doc.sig)"
  crpt submit --file doc.json --signature-file doc.sig`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sig, err := resolveSignature(signature, signatureFile)
			if err != nil {
				return err
			}

			raw, err := readInput(cmd, file)
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			_, report, body, err := canonicalDocument(raw)
			if err != nil {
				return err
			}
			if report.HasIssues() {
				opts.logger.Warn("Document has fields that could not be mapped", "invalid", len(report.Invalid))
			}

			sub, _, err := config.NewSubmitter(opts.logger, nil)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := sub.Submit(ctx, body, sig)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(submitOutput{
				UpstreamStatus: result.StatusCode,
				UpstreamText:   result.Status,
				Accepted:       result.Succeeded(),
				WaitedMs:       result.Waited.Milliseconds(),
				ElapsedMs:      result.Elapsed.Milliseconds(),
			}); err != nil {
				return err
			}

			if !result.Succeeded() {
				return fmt.Errorf("registration service rejected the document: %s", result.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "document JSON file, or - for stdin")
	cmd.Flags().StringVarP(&signature, "signature", "s", "", "detached signature (base64)")
	cmd.Flags().StringVar(&signatureFile, "signature-file", "", "file holding the detached signature")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "maximum time to wait for a slot and a reply")
	_ = cmd.MarkFlagRequired("file")
	cmd.MarkFlagsMutuallyExclusive("signature", "signature-file")

	return cmd
}

func resolveSignature(value, path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read signature: %w", err)
		}
		value = string(data)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("a signature is required (--signature or --signature-file)")
	}
	return value, nil
}
