package main

// Run the recognition pipeline over input files:
//   go run ./cmd/nlp process notes.txt resume.pdf
//   go run ./cmd/nlp process -text "I use MySQL and React"
//
// Match blueprints against a previous process output:
//   go run ./cmd/nlp process -out results.json notes.txt
//   go run ./cmd/nlp match -in results.json
//   go run ./cmd/nlp match -criteria "MySQL,React"

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cgoncalves94/entity-recognition-backend/internal/blueprints"
	"github.com/cgoncalves94/entity-recognition-backend/internal/bootstrap"
	"github.com/cgoncalves94/entity-recognition-backend/internal/pipeline"
	"github.com/cgoncalves94/entity-recognition-backend/internal/recommendations"
	"github.com/cgoncalves94/entity-recognition-backend/internal/shared/config"
	"github.com/cgoncalves94/entity-recognition-backend/internal/textsource"
)

func main() {
	if len(os.Args) < 2 {
		exitErr("usage: nlp <process|match> [flags]")
	}

	cfg := config.Load()
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "process":
		err = runProcess(ctx, cfg, os.Args[2:])
	case "match":
		err = runMatch(ctx, cfg, os.Args[2:])
	default:
		exitErr(fmt.Sprintf("unknown command %q, want process or match", os.Args[1]))
	}
	if err != nil {
		exitErr(err.Error())
	}
}

// textFlags collects repeated -text values.
type textFlags []string

func (t *textFlags) String() string { return strings.Join(*t, "; ") }

func (t *textFlags) Set(value string) error {
	*t = append(*t, value)
	return nil
}

func runProcess(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	var texts textFlags
	fs.Var(&texts, "text", "Inline input text (repeatable)")
	outPath := fs.String("out", "", "Path to write JSON results (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fileTexts, err := textsource.ReadFiles(ctx, fs.Args())
	if err != nil {
		return err
	}
	inputs := append([]string(texts), fileTexts...)
	if len(inputs) == 0 {
		return fmt.Errorf("no input: pass file paths or -text")
	}

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	results, err := app.Pipeline.Process(ctx, inputs)
	if err != nil {
		return err
	}
	return writeJSON(*outPath, results)
}

func runMatch(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	inPath := fs.String("in", "", "Process output JSON to match (default stdin)")
	criteriaFlag := fs.String("criteria", "", "Comma-separated tags to match instead of -in")
	outPath := fs.String("out", "", "Path to write JSON matches (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	matcher, err := buildMatcher(ctx, cfg)
	if err != nil {
		return err
	}

	var recs []recommendations.Recommendation
	var names []string
	if strings.TrimSpace(*criteriaFlag) != "" {
		for _, tag := range strings.Split(*criteriaFlag, ",") {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				names = append(names, trimmed)
			}
		}
	} else {
		results, err := readResults(*inPath)
		if err != nil {
			return err
		}
		for _, res := range results {
			recs = append(recs, res.Recommendations...)
			for _, e := range res.ExtractedEntities {
				names = append(names, e.EntityName)
			}
		}
	}

	svc := pipeline.NewService(nil, nil, nil, matcher)
	matches, err := svc.Match(recs, names)
	if err != nil {
		return err
	}
	return writeJSON(*outPath, matches)
}

// buildMatcher loads only the blueprint corpus; match needs neither the
// embedding model nor the lexicon.
func buildMatcher(ctx context.Context, cfg config.Config) (*blueprints.Matcher, error) {
	store, closeStore, err := bootstrap.BlueprintStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	corpus, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	policy, err := blueprints.ParsePolicy(cfg.MatchPolicy)
	if err != nil {
		return nil, err
	}
	return blueprints.NewMatcher(corpus, policy), nil
}

func readResults(path string) ([]pipeline.TextResult, error) {
	var data []byte
	var err error
	if strings.TrimSpace(path) == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	var results []pipeline.TextResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return results, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if strings.TrimSpace(path) == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
