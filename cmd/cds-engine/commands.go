package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ehr/cdsengine/internal/config"
	"github.com/ehr/cdsengine/internal/domain/assessment"
	"github.com/ehr/cdsengine/internal/domain/catalog"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
	"github.com/ehr/cdsengine/internal/platform/db"
	"github.com/ehr/cdsengine/migrations"
)

func withMigrator(ctx context.Context, fn func(*db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	pool, err := db.NewPool(ctx, poolConfig(cfg))
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(db.NewMigrator(pool, migrations.FS))
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations for the guideline catalog tables",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(m *db.Migrator) error {
				count, err := m.Up(cmd.Context())
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(m *db.Migrator) error {
				statuses, err := m.Status(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	})
	return cmd
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

// loadCatalog reads path, or returns the built-in catalog when path is empty.
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(path)
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect, validate and seed guideline catalogs",
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate a catalog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			c, err := loadCatalog(path)
			if err != nil {
				return err
			}
			if err := c.Validate(); err != nil {
				var verr *catalog.ValidationError
				if errors.As(err, &verr) {
					for _, p := range verr.Problems {
						fmt.Fprintln(cmd.ErrOrStderr(), p.String())
					}
				}
				return err
			}
			counts := c.Counts()
			fmt.Fprintf(cmd.OutOrStdout(), "catalog %s is valid:", c.Version)
			for _, table := range []string{catalog.TableScreenings, catalog.TableImmunizations, catalog.TableChronicCare,
				catalog.TableInteractions, catalog.TableCrossReactivity} {
				fmt.Fprintf(cmd.OutOrStdout(), " %s=%d", table, counts[table])
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	validate.Flags().String("file", "", "Catalog file (YAML or JSON); the built-in catalog when empty")
	cmd.AddCommand(validate)

	export := &cobra.Command{
		Use:   "export",
		Short: "Write a catalog as YAML or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			format, _ := cmd.Flags().GetString("format")
			c, err := loadCatalog(path)
			if err != nil {
				return err
			}
			return exportCatalog(cmd.OutOrStdout(), c, format)
		},
	}
	export.Flags().String("file", "", "Catalog file to re-export; the built-in catalog when empty")
	export.Flags().String("format", "yaml", "Output format: yaml or json")
	cmd.AddCommand(export)

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Replace the catalog tables in PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			c, err := loadCatalog(path)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			pool, err := db.NewPool(cmd.Context(), poolConfig(cfg))
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := catalog.Seed(cmd.Context(), catalog.NewRepoPG(pool), c); err != nil {
				return fmt.Errorf("seed catalog: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded catalog %s.\n", c.Version)
			return nil
		},
	}
	seed.Flags().String("file", "", "Catalog file to seed; the built-in catalog when empty")
	cmd.AddCommand(seed)

	return cmd
}

// exportCatalog writes c using the same keys catalog files are read with.
func exportCatalog(w io.Writer, c *catalog.Catalog, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	case "yaml", "yml":
		// Round-trip through JSON so YAML keys follow the json tags.
		b, err := json.Marshal(c)
		if err != nil {
			return err
		}
		var doc map[string]interface{}
		if err := json.Unmarshal(b, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q: want yaml or json", format)
	}
}

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a snapshot file and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			catalogPath, _ := cmd.Flags().GetString("catalog")

			var in io.Reader = cmd.InOrStdin()
			if path != "" && path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			var snap snapshot.Snapshot
			if err := json.NewDecoder(in).Decode(&snap); err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}

			c, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}
			store, err := catalog.NewStore(c)
			if err != nil {
				return err
			}
			svc := assessment.NewService(store, zerolog.Nop())
			report := svc.Evaluate(cmd.Context(), snap)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().String("file", "-", "Snapshot JSON file, or - for stdin")
	cmd.Flags().String("catalog", "", "Catalog file; the built-in catalog when empty")
	return cmd
}
