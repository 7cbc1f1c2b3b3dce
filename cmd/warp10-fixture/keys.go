package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/warp10-fixture/internal/cryptokeys"
	"github.com/dropDatabas3/warp10-fixture/internal/util"
)

type keysOut struct {
	Valid bool              `json:"valid"`
	Keys  map[string]string `json:"keys"`
}

func (a *app) keysCmd() *cobra.Command {
	var (
		file   string
		reveal bool
	)
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Extrae las claves criptográficas de un archivo de config de Warp 10",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			return runKeys(cmd.Context(), cmd.OutOrStdout(), string(b), a.out, reveal)
		},
	}
	cmd.Flags().StringVar(&file, "file", cryptokeys.ConfigPath, "archivo de config (p.ej. una copia de 99-init.conf)")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "muestra las claves sin enmascarar en --out text")
	return cmd
}

func runKeys(ctx context.Context, w io.Writer, content, format string, reveal bool) error {
	keys := cryptokeys.Extract(ctx, content)
	if keys.IsEmpty() {
		return fmt.Errorf("no crypto keys found")
	}
	out := keysOut{Valid: keys.IsValid(), Keys: keyMap(keys)}
	if format == "json" {
		return printJSON(w, out)
	}
	mask := util.MaskToken
	if reveal {
		mask = func(s string) string { return s }
	}
	fmt.Fprintf(w, "valid: %t\n", out.Valid)
	printKeys(w, out.Keys, mask)
	return nil
}
