package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chameleon-db/chameleondb/integrity/pkg/engine"
)

var namesJSON bool

var namesCmd = &cobra.Command{
	Use:   "names [schema-file]",
	Short: "Print the constraint names generated for each entity",
	Long: `Resolve the primary key, unique and foreign key constraint names of
every entity, in the form used by SET CONSTRAINTS and by the error classifier.

Examples:
  integrity names
  integrity names schema.yml --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNames,
}

func init() {
	namesCmd.Flags().BoolVar(&namesJSON, "json", false, "print names as JSON")
	rootCmd.AddCommand(namesCmd)
}

type namedConstraint struct {
	Entity     string   `json:"entity"`
	Table      string   `json:"table"`
	Kind       string   `json:"kind"`
	Name       string   `json:"name"`
	Columns    []string `json:"columns"`
	Deferrable string   `json:"deferrable"`
}

func runNames(cmd *cobra.Command, args []string) error {
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

	if namesJSON {
		out := make([]namedConstraint, len(resolved))
		for i, c := range resolved {
			out[i] = namedConstraint{
				Entity:     c.Entity,
				Table:      c.Table,
				Kind:       string(c.Kind),
				Name:       c.Name,
				Columns:    c.Columns,
				Deferrable: string(c.Deferrable),
			}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	printNames(resolved)
	return nil
}

func printNames(resolved []engine.ResolvedConstraint) {
	current := ""
	for _, c := range resolved {
		if c.Entity != current {
			if current != "" {
				fmt.Println()
			}
			current = c.Entity
			fmt.Printf("%s %s\n", titleColor.Sprint(c.Entity), dimColor.Sprintf("(%s)", c.Table))
		}
		fmt.Printf("  %-12s %s (%s)", c.Kind, c.Name, strings.Join(c.Columns, ", "))
		if clause := strings.TrimSpace(c.Deferrable.SQL()); clause != "" {
			fmt.Printf("  %s", dimColor.Sprint(clause))
		}
		fmt.Println()
	}
}
