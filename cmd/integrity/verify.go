package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/chameleon-db/chameleondb/integrity/pkg/constraints"
	"github.com/chameleon-db/chameleondb/integrity/pkg/engine"
	"github.com/chameleon-db/chameleondb/integrity/pkg/engine/introspect"
	"github.com/chameleon-db/chameleondb/integrity/pkg/integrity"
)

var verifyProbe bool

var verifyCmd = &cobra.Command{
	Use:   "verify [schema-file]",
	Short: "Check generated constraint names against the database",
	Long: `Compare the constraints the schema generates with the ones declared in
the configured database namespace.

Each constraint must exist under its generated name, on the expected table,
with the expected kind and deferrability. With --probe every deferrable
constraint is also switched to IMMEDIATE inside a transaction that is rolled
back, which is what the application does at runtime.

Examples:
  integrity verify
  DATABASE_URL=postgres://localhost/app integrity verify schema.yml --probe`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyProbe, "probe", false, "run SET CONSTRAINTS ... IMMEDIATE for deferrable constraints")
	rootCmd.AddCommand(verifyCmd)
}

// finding is the verification result of one generated constraint
type finding struct {
	Constraint engine.ResolvedConstraint
	Problem    string
}

func (f finding) OK() bool { return f.Problem == "" }

var errProbeRollback = errors.New("probe rollback")

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := loadEngine(args, cfg)
	if err != nil {
		return err
	}

	resolved, err := eng.Constraints()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	intro, err := introspect.NewIntrospector(ctx, cfg.Database.ConnectionString)
	if err != nil {
		return err
	}
	defer intro.Close()

	if ok, err := intro.Detect(ctx); !ok {
		return fmt.Errorf("failed to detect PostgreSQL: %w", err)
	}

	tables, err := intro.ListTables(ctx, cfg.Database.Namespace)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	actual, err := intro.ListConstraints(ctx, cfg.Database.Namespace)
	if err != nil {
		return fmt.Errorf("failed to list constraints: %w", err)
	}

	fmt.Printf("Verifying %d constraints in namespace %s...\n\n", len(resolved), cfg.Database.Namespace)

	findings := compareConstraints(resolved, tableSet(tables), introspect.ByName(actual))
	failed := printFindings(findings)

	if verifyProbe {
		if err := probe(ctx, eng, cfg.ConnectorConfig, deferrableNames(findings)); err != nil {
			failed++
		}
	}

	fmt.Println()
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(findings))
	}
	printSuccess("all constraints match")
	return nil
}

// compareConstraints checks each generated constraint against the database.
// A missing table is reported instead of each of its missing constraints.
func compareConstraints(resolved []engine.ResolvedConstraint, tables map[string]bool, actual map[string]introspect.ConstraintInfo) []finding {
	out := make([]finding, 0, len(resolved))
	for _, c := range resolved {
		f := finding{Constraint: c}
		info, ok := actual[c.Name]
		switch {
		case !ok && !tables[c.Table]:
			f.Problem = fmt.Sprintf("table %s not found in database", c.Table)
		case !ok:
			f.Problem = "not found in database"
		case info.Table != c.Table:
			f.Problem = fmt.Sprintf("declared on table %s, expected %s", info.Table, c.Table)
		case string(info.Type) != string(c.Kind):
			f.Problem = fmt.Sprintf("is a %s constraint, expected %s", info.Type, c.Kind)
		case deferrabilityOf(info) != c.Deferrable:
			f.Problem = fmt.Sprintf("is %s, expected %s", deferrabilityOf(info), c.Deferrable)
		}
		out = append(out, f)
	}
	return out
}

func tableSet(tables []string) map[string]bool {
	set := make(map[string]bool, len(tables))
	for _, t := range tables {
		set[t] = true
	}
	return set
}

func deferrabilityOf(info introspect.ConstraintInfo) engine.Deferrability {
	switch {
	case !info.Deferrable:
		return engine.NotDeferrable
	case info.InitiallyDeferred:
		return engine.InitiallyDeferred
	default:
		return engine.InitiallyImmediate
	}
}

func deferrableNames(findings []finding) []string {
	var names []string
	for _, f := range findings {
		if f.OK() && f.Constraint.Deferrable != engine.NotDeferrable {
			names = append(names, f.Constraint.Name)
		}
	}
	return names
}

func printFindings(findings []finding) int {
	failed := 0
	for _, f := range findings {
		c := f.Constraint
		if f.OK() {
			printSuccess("%s.%s", c.Table, c.Name)
			continue
		}
		failed++
		printFailure("%s.%s %s", c.Table, c.Name, f.Problem)
	}
	return failed
}

// probe switches names to IMMEDIATE in a transaction that is always rolled back
func probe(ctx context.Context, eng *engine.Engine, connConfig func() (engine.ConnectorConfig, error), names []string) error {
	if len(names) == 0 {
		return nil
	}

	conn, err := connConfig()
	if err != nil {
		return err
	}
	if err := eng.Connect(ctx, conn); err != nil {
		printFailure("probe: %v", err)
		return err
	}
	defer eng.Close()

	err = eng.RunInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := constraints.SetImmediate(ctx, nil, names...); err != nil {
			return err
		}
		return errProbeRollback
	})
	if errors.Is(err, errProbeRollback) {
		printSuccess("SET CONSTRAINTS IMMEDIATE accepted for %d deferrable constraints", len(names))
		return nil
	}

	if d, _ := integrity.Diagnose(err); d.Code != "" {
		printFailure("probe: SQLSTATE %s: %s", d.Code, d.Message)
	} else {
		printFailure("probe: %v", err)
	}
	return err
}
