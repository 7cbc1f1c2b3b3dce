package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/warp10-fixture/internal/tokens"
)

type tokenOut struct {
	Role  string `json:"role"`
	Token string `json:"token"`
	Ident string `json:"ident,omitempty"`
}

func (a *app) parseCmd() *cobra.Command {
	var schema string
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parsea la salida de worf/tokengen leída de stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.InOrStdin(), cmd.OutOrStdout(), schema, a.out)
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "current", "esquema de la salida: legacy (worf) | current (tokengen)")
	return cmd
}

func runParse(r io.Reader, w io.Writer, schemaName, format string) error {
	schema, err := tokens.ParseSchema(schemaName)
	if err != nil {
		return err
	}
	payload, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return err
	}
	set, err := tokens.Parse(schema, payload)
	if err != nil {
		return err
	}

	recs := set.Records()
	out := make([]tokenOut, 0, len(recs))
	for _, rec := range recs {
		out = append(out, tokenOut{Role: rec.Role, Token: rec.Token, Ident: rec.Ident})
	}
	if format == "json" {
		return printJSON(w, out)
	}
	for _, t := range out {
		fmt.Fprintf(w, "%s\t%s\n", t.Role, t.Token)
	}
	return nil
}
