package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenthands/claimcheck/internal/core/retrieval"
	"github.com/agenthands/claimcheck/internal/driver"
)

var (
	loadAll bool
)

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load triples into the graph store KG mirror",
	Long: `Reads N-Triples (<s> <p> <o> .) or tab-separated subject/predicate/object
lines and writes them to the Bolt graph store named by graph.uri. Triples whose
predicate would be filtered out at retrieval time are skipped unless --all is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().BoolVar(&loadAll, "all", false, "load every predicate, not only those retrieval keeps")
}

func runLoad(cmd *cobra.Command, args []string) error {
	defer logger.Sync()
	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open triples file: %w", err)
	}
	defer f.Close()

	d, err := driver.NewBoltDriver(ctx, cfg.Graph.URI, cfg.Graph.User, cfg.Graph.Password, logger)
	if err != nil {
		return err
	}
	defer d.Close(ctx)
	if err := d.BuildIndices(ctx); err != nil {
		logger.Warn("graph indices not created", zap.Error(err))
	}

	saved, skipped := 0, 0
	err = scanTriples(f, func(s, p, o string) error {
		if !loadAll && !retrieval.KeepPredicate(p) {
			skipped++
			return nil
		}
		if err := driver.SaveTriple(ctx, d, s, p, o); err != nil {
			return err
		}
		saved++
		return nil
	})
	logger.Info("triples loaded", zap.Int("saved", saved), zap.Int("skipped", skipped))
	fmt.Fprintf(cmd.OutOrStdout(), "saved %d triples, skipped %d\n", saved, skipped)
	return err
}

// scanTriples calls fn for every triple line in r. Comments and blank lines are
// skipped; a malformed line stops the scan with its line number.
func scanTriples(r io.Reader, fn func(s, p, o string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s, p, o, ok := parseTriple(line)
		if !ok {
			return fmt.Errorf("line %d: not a triple: %q", n, line)
		}
		if err := fn(s, p, o); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return sc.Err()
}

func parseTriple(line string) (s, p, o string, ok bool) {
	if parts := strings.Split(line, "\t"); len(parts) == 3 && !strings.HasPrefix(line, "<") {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), true
	}

	line = strings.TrimSuffix(strings.TrimSpace(line), ".")
	var terms []string
	rest := strings.TrimSpace(line)
	for len(terms) < 3 && rest != "" {
		term, tail, ok := nextTerm(rest)
		if !ok {
			return "", "", "", false
		}
		terms = append(terms, term)
		rest = strings.TrimSpace(tail)
	}
	if len(terms) != 3 || rest != "" {
		return "", "", "", false
	}
	return terms[0], terms[1], terms[2], true
}

// nextTerm reads one N-Triples term: an <IRI> or a "literal" with an optional
// @lang or ^^<datatype> suffix, which is dropped.
func nextTerm(s string) (term, rest string, ok bool) {
	switch s[0] {
	case '<':
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return "", "", false
		}
		return s[1:end], s[end+1:], true
	case '"':
		var b strings.Builder
		for i := 1; i < len(s); i++ {
			switch c := s[i]; {
			case c == '\\' && i+1 < len(s):
				i++
				b.WriteByte(s[i])
			case c == '"':
				rest = s[i+1:]
				if strings.HasPrefix(rest, "^^<") {
					if end := strings.IndexByte(rest, '>'); end >= 0 {
						rest = rest[end+1:]
					}
				} else if strings.HasPrefix(rest, "@") {
					end := strings.IndexAny(rest, " \t")
					if end < 0 {
						end = len(rest)
					}
					rest = rest[end:]
				}
				return b.String(), rest, true
			default:
				b.WriteByte(c)
			}
		}
	}
	return "", "", false
}
