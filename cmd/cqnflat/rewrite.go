package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cdslang/cqnflat"
	"github.com/cdslang/cqnflat/internal/cli"
	"github.com/cdslang/cqnflat/internal/modelio"
	"github.com/cdslang/cqnflat/pkg/cqnerr"
)

var (
	rewriteModel string
	rewriteQuery string
	rewriteOut   string
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Rewrite a CQN query against a CSN model",
	Long: `Rewrite reads a YAML CSN model and a JSON CQN query, flattens the
query's association paths and structured elements, and writes the result as
JSON to --output (or stdout).`,
	Example: `  # Rewrite a query and print the flattened result
  cqnflat rewrite --model model.yaml --query query.json

  # Write the result to a file instead of stdout
  cqnflat rewrite --model model.yaml --query query.json --output flat.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		modelPath := resolveString(rewriteModel, cfg.Model)
		queryPath := resolveString(rewriteQuery, cfg.Query)
		outPath := resolveString(rewriteOut, cfg.Output)

		logger, runID, err := cli.NewLogger(cfg.Log)
		if err != nil {
			return cli.GeneralError("setting up logger", err)
		}
		defer func() { _ = logger.Sync() }()
		logger.Info("starting rewrite", zap.String("model", modelPath), zap.String("query", queryPath))

		model, err := modelio.LoadModel(modelPath)
		if err != nil {
			return cli.ModelParseError("loading model", err)
		}

		q, err := modelio.LoadQuery(queryPath)
		if err != nil {
			return cli.QueryParseError("loading query", err)
		}

		flat, err := cqnflat.Rewrite(context.Background(), model, q)
		if err != nil {
			if kind, ok := cqnerr.KindOf(err); ok {
				logger.Error("rewrite failed", zap.String("run_id", runID), zap.String("kind", string(kind)))
			}
			return cli.RewriteError("rewriting query", err)
		}

		if outPath == "" {
			data, err := json.MarshalIndent(flat, "", "  ")
			if err != nil {
				return cli.GeneralError("encoding result", err)
			}
			if quiet {
				return nil
			}
			fmt.Println(string(data))
			return nil
		}

		if err := modelio.WriteQuery(outPath, flat); err != nil {
			return cli.GeneralError("writing result", err)
		}
		if !quiet {
			fmt.Printf("Wrote flattened query to %s\n", outPath)
		}
		return nil
	},
}

func init() {
	rewriteCmd.Flags().StringVar(&rewriteModel, "model", "", "path to CSN model YAML file")
	rewriteCmd.Flags().StringVar(&rewriteQuery, "query", "", "path to CQN query JSON file")
	rewriteCmd.Flags().StringVar(&rewriteOut, "output", "", "output file (default: stdout)")
}
