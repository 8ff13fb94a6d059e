package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"ai-ops-scorecard/internal/domain"
	"ai-ops-scorecard/internal/infra/memory"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewCatalogCmd groups the catalog maintenance commands.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and validate scorecard catalogs",
	}
	cmd.AddCommand(newCatalogExportCmd(), newCatalogValidateCmd())
	return cmd
}

func newCatalogExportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the built-in catalog as YAML or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := encodeCatalog(domain.DefaultCatalog(), format)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(raw)
				return err
			}
			return os.WriteFile(out, raw, 0o644)
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	cmd.Flags().StringVar(&out, "out", "", "output file (stdout when empty)")
	return cmd
}

func newCatalogValidateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a YAML catalog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := memory.ReadCatalogFile(path)
			if err != nil {
				return err
			}
			if err := catalog.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog %q is valid\n", catalog.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "catalog file to validate")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func encodeCatalog(catalog domain.Catalog, format string) ([]byte, error) {
	switch format {
	case "yaml", "yml":
		return yaml.Marshal(catalog)
	case "json":
		return json.MarshalIndent(catalog, "", "  ")
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}
