package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/config"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/content"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/db"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/models"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/services"
)

var seedForce bool

var seedStaffCmd = &cobra.Command{
	Use:   "seed-staff",
	Short: "Load the embedded staff dataset into Redis",
	Long: `Seeds the Redis staff directory from the dataset compiled into the binary.
An already populated directory is left alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		bundle, err := content.Load()
		if err != nil {
			return err
		}
		added, err := store.SeedStaff(cmd.Context(), bundle.Staff(), seedForce)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d staff records\n", added)
		return nil
	},
}

var importStaffCmd = &cobra.Command{
	Use:   "import-staff <file.xlsx>",
	Short: "Append staff from a roster workbook to Redis",
	Long: `Reads the first sheet of an .xlsx roster with the columns
Name, Title, Department, Subject, Bio, Image (first row is a header)
and appends every valid row to the Redis staff directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open roster: %w", err)
		}
		defer f.Close()

		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		imported, err := store.ImportStaffFromExcel(cmd.Context(), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d staff records\n", imported)
		return nil
	},
}

var searchStaffCmd = &cobra.Command{
	Use:   "search-staff [query]",
	Short: "Search the staff directory",
	Long: `Prints the staff records whose name, title, department, subject or bio
contain the query, ignoring case. Without a query every record is printed.
The directory is read from STAFF_SOURCE.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		dir, closeDir, err := openDirectory(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDir()

		all, err := dir.All(cmd.Context())
		if err != nil {
			return err
		}
		return printStaff(cmd.OutOrStdout(), services.FilterStaff(all, query))
	},
}

func init() {
	seedStaffCmd.Flags().BoolVar(&seedForce, "force", false, "replace an existing directory")
}

// openStore connects to Redis for the staff maintenance commands.
func openStore(ctx context.Context) (*db.RedisService, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, nil, errors.New("this command needs Redis; set REDIS_ENABLED=true")
	}
	client, err := db.InitializeRedisClient(ctx, cfg.Redis, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("closing redis client failed", zap.Error(err))
		}
	}
	return db.NewRedisService(client, logger.Named("redis")), closeFn, nil
}

func openDirectory(ctx context.Context) (services.StaffDirectory, func(), error) {
	if cfg.StaffSource == config.StaffSourceRedis {
		return openStore(ctx)
	}
	bundle, err := content.Load()
	if err != nil {
		return nil, nil, err
	}
	return services.NewStaticDirectory(bundle.Staff()), func() {}, nil
}

func printStaff(out io.Writer, records []models.StaffRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "no staff members match")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTITLE\tDEPARTMENT\tSUBJECT")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Title, r.Department, r.Subject)
	}
	return tw.Flush()
}
