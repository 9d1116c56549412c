package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/claimcheck/internal/core"
)

var (
	claimsFile       string
	concurrency      int
	mode             string
	classifierKG     string
	classifierBackup string
	noCrossEncoder   bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify [claim...]",
	Short: "Verify claims and print one JSON verdict per line",
	Long: `Verifies the claims given as arguments, or one claim per line of --file.
Blank lines and lines starting with # are skipped. Claims run concurrently,
bounded by --concurrency; output keeps input order.

Example:
  claimcheck verify "TUM is a university in Germany"
  claimcheck verify --file claims.txt --concurrency 8 --mode kg_only`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&claimsFile, "file", "f", "", "file with one claim per line")
	verifyCmd.Flags().IntVar(&concurrency, "concurrency", 0, "claims verified at once (default: concurrency.batch_verify)")
	verifyCmd.Flags().StringVar(&mode, "mode", "hybrid", "hybrid, kg_only or web_only")
	verifyCmd.Flags().StringVar(&classifierKG, "classifier-kg", "LLM", "strategy for KG evidence: LLM or DEBERTA")
	verifyCmd.Flags().StringVar(&classifierBackup, "classifier-backup", "LLM", "strategy for web evidence: LLM or DEBERTA")
	verifyCmd.Flags().BoolVar(&noCrossEncoder, "no-cross-encoder", false, "rank web evidence with the bi-encoder only")
	verifyCmd.Flags().Bool("cache", true, "use the verdict cache")
	_ = viper.BindPFlag("cache", verifyCmd.Flags().Lookup("cache"))
}

func runVerify(cmd *cobra.Command, args []string) error {
	defer logger.Sync()
	ctx := cmd.Context()

	claims := args
	if claimsFile != "" {
		f, err := os.Open(claimsFile)
		if err != nil {
			return fmt.Errorf("failed to open claims file: %w", err)
		}
		defer f.Close()
		if claims, err = readClaims(f); err != nil {
			return err
		}
	}
	if len(claims) == 0 {
		return fmt.Errorf("no claims given; pass them as arguments or with --file")
	}

	m, err := core.ParseMode(mode)
	if err != nil {
		return err
	}
	n := concurrency
	if n <= 0 {
		n = cfg.Concurrency.BatchVerify
	}

	p, closeAll, err := core.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeAll(context.Background())

	template := core.Request{
		Mode:             m,
		UseCrossEncoder:  !noCrossEncoder,
		ClassifierKG:     classifierKG,
		ClassifierBackup: classifierBackup,
	}
	results := verifyAll(ctx, p, claims, template, n)
	return writeResults(cmd.OutOrStdout(), results)
}

type claimVerifier interface {
	Verify(ctx context.Context, req core.Request) (*core.Response, error)
}

type batchResult struct {
	Claim    string         `json:"claim"`
	Response *core.Response `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// verifyAll runs every claim with at most limit in flight. A failing claim is
// reported in its result and does not stop the others.
func verifyAll(ctx context.Context, v claimVerifier, claims []string, template core.Request, limit int) []batchResult {
	results := make([]batchResult, len(claims))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))

	for i, claim := range claims {
		g.Go(func() error {
			req := template
			req.Claim = claim
			results[i].Claim = claim

			resp, err := v.Verify(gctx, req)
			if err != nil {
				logger.Warn("claim failed", zap.String("claim", claim), zap.Error(err))
				results[i].Error = err.Error()
				return nil
			}
			results[i].Response = resp
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func readClaims(r io.Reader) ([]string, error) {
	var claims []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		claims = append(claims, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read claims: %w", err)
	}
	return claims, nil
}

func writeResults(w io.Writer, results []batchResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
