package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/remoteui"
	"github.com/aretw0/remoteui/internal/presentation/graph"
	"github.com/aretw0/remoteui/internal/presentation/tui"
	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/aretw0/remoteui/pkg/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var previewCmd = &cobra.Command{
	Use:   "preview [action...]",
	Short: "Render the screen locally",
	Long: `Applies the given actions to a fresh state and prints the resulting tree.
An action is either a bare name ("increment") or a JSON payload
('{"action":"set_message","value":"hi"}').`,
	Example: `  remoteui preview increment increment
  remoteui preview --scripts ./examples/counter/scripts --format json
  remoteui preview increment --format mermaid`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")

		opts := []remoteui.Option{remoteui.WithLogger(logger)}
		if cfg.Scripts != "" {
			opts = append(opts, remoteui.WithScripts(cfg.Scripts, cfg.ScriptTimeout))
		}
		app, err := remoteui.New(cmd.Context(), opts...)
		if err != nil {
			return err
		}

		var applied []string
		for _, arg := range args {
			act, err := previewAction(arg)
			if err != nil {
				return err
			}
			applied = append(applied, act.Name)
			if _, err := app.Dispatch(cmd.Context(), act); err != nil {
				logger.Warn("Action rendered the error screen", "action", act.Name, "err", err)
			}
		}

		node, err := app.RenderUI(cmd.Context())
		if err != nil {
			logger.Warn("Render degraded", "err", err)
		}
		out, err := formatTree(node, format, applied)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().StringP("format", "f", "outline", "Output format: outline, json, yaml or mermaid")
	addScriptFlags(previewCmd)
}

func previewAction(arg string) (domain.Action, error) {
	if strings.HasPrefix(strings.TrimSpace(arg), "{") {
		return domain.ParseAction([]byte(arg))
	}
	return domain.Action{Name: arg}, nil
}

// formatTree prints node in format. Mermaid output highlights the controls
// posting the applied actions.
func formatTree(node *ui.Node, format string, applied []string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(node, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(node)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case "mermaid":
		return graph.GenerateMermaid(node, &graph.Overlay{Actions: applied}), nil
	case "outline":
		md := tui.Outline(node)
		fd := int(os.Stdout.Fd())
		if !term.IsTerminal(fd) {
			return md, nil
		}
		width, _, err := term.GetSize(fd)
		if err != nil {
			width = 0
		}
		render, err := tui.NewRenderer(width)
		if err != nil {
			return md, nil
		}
		return render(md)
	default:
		return "", fmt.Errorf("unknown format %q (want outline, json, yaml or mermaid)", format)
	}
}
