package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/akeren/crpt-gateway/pkg/document"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type normalizeOutput struct {
	Document any              `json:"document" yaml:"document"`
	Report   *document.Report `json:"report" yaml:"report"`
}

func newNormalizeCmd(_ *cliOptions) *cobra.Command {
	var (
		file   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Print the canonical wire form of a document without submitting it",
		Example: `  crpt normalize --file doc.json
  cat doc.json | crpt normalize --file - --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readInput(cmd, file)
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			_, report, body, err := canonicalDocument(raw)
			if err != nil {
				return err
			}

			return writeNormalized(cmd.OutOrStdout(), output, body, report)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "document JSON file, or - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// canonicalDocument decodes raw tolerantly and re-serializes the mapped fields.
func canonicalDocument(raw []byte) (*document.Document, *document.Report, []byte, error) {
	doc, report, err := document.Decode(raw)
	if err != nil {
		return nil, nil, nil, err
	}
	body, err := document.Marshal(doc)
	if err != nil {
		return nil, nil, nil, err
	}
	return doc, report, body, nil
}

func writeNormalized(w io.Writer, format string, body []byte, report *document.Report) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return err
	}
	out := normalizeOutput{Document: doc, Report: report}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		return fmt.Errorf("unsupported output format %q (use json or yaml)", format)
	}
}
