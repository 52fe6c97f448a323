package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var ddlOutput string

var ddlCmd = &cobra.Command{
	Use:   "ddl [schema-file]",
	Short: "Print the CREATE TABLE statements for a schema",
	Long: `Generate the DDL for every entity, with constraints named the way
the names command prints them. Foreign keys are created DEFERRABLE INITIALLY
DEFERRED unless the relation says otherwise.

Examples:
  integrity ddl
  integrity ddl schema.yml -o migration.sql`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDDL,
}

func init() {
	ddlCmd.Flags().StringVarP(&ddlOutput, "output", "o", "", "write the DDL to a file instead of stdout")
	rootCmd.AddCommand(ddlCmd)
}

func runDDL(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := loadEngine(args, cfg)
	if err != nil {
		return err
	}

	ddl, err := eng.GenerateMigration()
	if err != nil {
		return err
	}

	if ddlOutput == "" {
		fmt.Print(ddl)
		return nil
	}

	if err := os.WriteFile(ddlOutput, []byte(ddl), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ddlOutput, err)
	}
	printSuccess("DDL written to %s", ddlOutput)
	return nil
}
