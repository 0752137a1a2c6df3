package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/companions"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/content"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/location"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/media"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/logging"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			if err := database.MigrateShared(e.db); err != nil {
				return fmt.Errorf("shared migration failed: %w", err)
			}
			tables := len(database.SharedModels())
			for _, p := range e.plugins() {
				models := p.Models()
				if err := database.MigrateModels(e.db, models); err != nil {
					return fmt.Errorf("%s migration failed: %w", p.ID(), err)
				}
				tables += len(models)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tables\n", tables)
			return nil
		},
	}
}

func newSeedContentCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-content",
		Short: "Load banners, FAQs and notices from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			if file == "" {
				file = e.cfg.ContentPath
			}
			result, err := content.New(e.deps()).Service().Seed(file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s: %d created, %d updated\n", file, result.Created, result.Updated)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "content file (default CONTENT_PATH)")
	return cmd
}

func newCityCodeCmd() *cobra.Command {
	var country string
	cmd := &cobra.Command{
		Use:   "citycode <place>",
		Short: "Resolve a place name to its three letter city code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			res, err := location.New(e.deps()).Resolver().ResolveCityCode(cmd.Context(), args[0], country)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", res.Code, res.Source, res.Place)
			return nil
		},
	}
	cmd.Flags().StringVarP(&country, "country", "c", "", "ISO 3166-1 alpha-2 country hint")
	return cmd
}

func newCountryCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "country-code <name>",
		Short: "Resolve a country name to its ISO alpha-2 code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			code, err := location.New(e.deps()).Resolver().CountryCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
}

// warm needs no database.
func newWarmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warm <url>...",
		Short: "Request CDN URLs so edge caches are filled",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			results := media.NewWarmer(cfg.ExternalAPITimeout).Warm(cmd.Context(), args)

			failed := 0
			for _, r := range results {
				if r.OK {
					fmt.Fprintf(cmd.OutOrStdout(), "ok\t%d\t%s\n", r.Status, r.URL)
					continue
				}
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "fail\t%s\t%s\n", r.Error, r.URL)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d urls failed", failed, len(results))
			}
			return nil
		},
	}
}

func newPurgeLogsCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge-logs",
		Short: "Delete stored error logs older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			if days <= 0 {
				days = e.cfg.LogRetentionDays
			}
			deleted := logging.PurgeBefore(e.db, time.Now().AddDate(0, 0, -days))
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d log rows older than %d days\n", deleted, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention in days (default LOG_RETENTION_DAYS)")
	return cmd
}

func newExpireCompanionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire-companions",
		Short: "Move companion requests whose meeting time passed to past",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			expired, err := companions.New(e.deps()).Service().ExpirePast(time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d requests\n", expired)
			return nil
		},
	}
}
