package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"portal-compare/internal/comparison"
	"portal-compare/internal/comparison/config"
	"portal-compare/internal/comparison/domain/model"
	"portal-compare/internal/comparison/domain/service"
	"portal-compare/internal/comparison/usecase"
	"portal-compare/internal/di"
	"portal-compare/internal/shared/logger"

	"github.com/caarlos0/env/v6"
	"github.com/spf13/cobra"
)

// PortalTokens are read from the environment only, never from flags.
type PortalTokens struct {
	TokenA string `env:"PORTAL_A_TOKEN,required"`
	TokenB string `env:"PORTAL_B_TOKEN,required"`
	NameA  string `env:"PORTAL_A_NAME" envDefault:"portal_a"`
	NameB  string `env:"PORTAL_B_NAME" envDefault:"portal_b"`
}

type compareFlags struct {
	objectType    string
	custom        string
	associations  string
	statuses      []string
	hideIdentical bool
	filter        string
	indent        bool
}

func newCompareCommand() *cobra.Command {
	f := &compareFlags{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run a single comparison and print the result as JSON",
		Long: `Compare one object type, one custom object pair or one association pair
between the portals whose tokens are set in PORTAL_A_TOKEN and PORTAL_B_TOKEN.`,
		Example: `  portal-compare compare --object-type contacts --hide-identical
  portal-compare compare --custom 2-100:2-900
  portal-compare compare --associations contacts:companies --status different`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.objectType, "object-type", "", "Object type to compare, e.g. contacts")
	cmd.Flags().StringVar(&f.custom, "custom", "", "Custom object pair as KEY_A:KEY_B")
	cmd.Flags().StringVar(&f.associations, "associations", "", "Association pair as FROM:TO")
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "Keep only entries with these statuses")
	cmd.Flags().BoolVar(&f.hideIdentical, "hide-identical", false, "Drop identical entries")
	cmd.Flags().StringVar(&f.filter, "filter", "", "CEL predicate over entry fields")
	cmd.Flags().BoolVar(&f.indent, "indent", true, "Indent JSON output")
	cmd.MarkFlagsMutuallyExclusive("object-type", "custom", "associations")
	cmd.MarkFlagsOneRequired("object-type", "custom", "associations")

	return cmd
}

func splitPair(flag, value string) (string, string, error) {
	a, b, ok := strings.Cut(value, ":")
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if !ok || a == "" || b == "" {
		return "", "", fmt.Errorf("--%s expects two keys separated by ':', got %q", flag, value)
	}
	return a, b, nil
}

func (f *compareFlags) filterOptions() (service.FilterOptions, error) {
	opts := service.FilterOptions{HideIdentical: f.hideIdentical, Expression: f.filter}
	for _, s := range f.statuses {
		status := model.DiffStatus(strings.TrimSpace(s))
		if !status.Valid() {
			return opts, fmt.Errorf("unknown status %q", s)
		}
		opts.Statuses = append(opts.Statuses, status)
	}
	return opts, nil
}

func runCompare(ctx context.Context, f *compareFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := f.filterOptions()
	if err != nil {
		return err
	}

	tokens := &PortalTokens{}
	if err := env.Parse(tokens); err != nil {
		return fmt.Errorf("failed to load portal tokens: %w", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// stdout carries the JSON result only.
	log := logger.NewLoggerWithOutput(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	container := di.NewContainer(log)
	defer func() { _ = container.Close() }()

	if err := container.InitializeComparison(cfg); err != nil {
		return err
	}
	module := container.GetComparisonModule()

	result, err := compareOnce(ctx, module, tokens, f)
	if err != nil {
		return err
	}
	if result, err = module.GetComparisonUsecase().Filter(result, opts); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if f.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

func compareOnce(ctx context.Context, module *comparison.ComparisonModule, tokens *PortalTokens, f *compareFlags) (*model.ComparisonResult, error) {
	sessions := module.GetSessionUsecase()
	comparisons := module.GetComparisonUsecase()

	session, err := sessions.CreateSession(ctx, usecase.CreateSessionInput{
		PortalAName:  tokens.NameA,
		PortalAToken: tokens.TokenA,
		PortalBName:  tokens.NameB,
		PortalBToken: tokens.TokenB,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = sessions.DeleteSession(context.Background(), session.ID) }()

	switch {
	case f.objectType != "":
		return comparisons.CompareObjectType(ctx, session.ID, f.objectType)

	case f.custom != "":
		keyA, keyB, err := splitPair("custom", f.custom)
		if err != nil {
			return nil, err
		}
		if err := sessions.SetCustomMapping(ctx, session.ID, keyA, keyB); err != nil {
			return nil, err
		}
		return comparisons.CompareCustomObjects(ctx, session.ID, keyA, keyB)

	case f.associations != "":
		from, to, err := splitPair("associations", f.associations)
		if err != nil {
			return nil, err
		}
		// Custom ends need a mapping; name matching supplies it.
		if model.IsCustomObjectKey(from) || model.IsCustomObjectKey(to) {
			if _, err := comparisons.AutoMatchCustomObjects(ctx, session.ID); err != nil {
				return nil, err
			}
		}
		return comparisons.CompareAssociations(ctx, session.ID, from, to)
	}
	return nil, errors.New("one of --object-type, --custom or --associations is required")
}
