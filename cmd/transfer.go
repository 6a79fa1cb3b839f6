package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/maturity-cli/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the export document of a stored assessment",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		id, _ := cmd.Flags().GetString("id")
		withDetails, _ := cmd.Flags().GetBool("details")
		outputPath, _ := cmd.Flags().GetString("output")

		env, err := initApp(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		doc, err := env.Service.Export(ctx, id, withDetails)
		if err != nil {
			return eris.Wrapf(err, "export: assessment %s", id)
		}

		w, closeFn, err := openOutput(outputPath)
		if err != nil {
			return err
		}
		defer closeFn()

		return export.Write(w, doc)
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Store an export document as a new assessment",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path, _ := cmd.Flags().GetString("file")

		env, err := initApp(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		f, err := os.Open(path)
		if err != nil {
			return eris.Wrapf(err, "import: open %s", path)
		}
		defer f.Close() //nolint:errcheck

		a, err := env.Service.Import(ctx, f)
		if err != nil {
			return eris.Wrapf(err, "import: %s", path)
		}

		zap.L().Info("import complete",
			zap.String("id", a.ID),
			zap.String("status", string(a.Status)),
			zap.String("file", path),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("id", "", "assessment id (required)")
	exportCmd.Flags().Bool("details", false, "include company details in the document")
	exportCmd.Flags().String("output", "", "output file path (default: stdout)")
	_ = exportCmd.MarkFlagRequired("id")

	importCmd.Flags().String("file", "", "path to the export document (required)")
	_ = importCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(exportCmd, importCmd)
}
