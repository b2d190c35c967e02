package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/comboseq/internal/compiler"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	AssetName   string
	GraphFormat string // "mermaid" | "dot"
	Output      string
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph <asset-path>",
		Short: "Export the state graph of an asset",
		Long: `Export the flat state graph of an asset as Mermaid or Graphviz dot.

Solid edges are next links; dashed edges point at the first-layer parent a
state falls back to when its next list is empty.

Examples:
  comboseq graph ./assets/hadouken.cue
  comboseq graph ./assets --name hadouken --graph-format dot -o hadouken.dot`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.AssetName, "name", "", "asset to export when the path defines several")
	cmd.Flags().StringVar(&opts.GraphFormat, "graph-format", "mermaid", "graph syntax (mermaid|dot)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runGraph(opts *GraphOptions, path string, cmd *cobra.Command) error {
	asset, err := loadAsset(path, opts.AssetName)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer f.Close()
		w = f
	}

	if err := compiler.WriteGraph(w, asset, compiler.GraphFormat(opts.GraphFormat)); err != nil {
		return WrapExitError(ExitCommandError, "failed to write graph", err)
	}

	if opts.Output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s graph of %s to %s\n", opts.GraphFormat, asset.Name, opts.Output)
	}
	return nil
}
