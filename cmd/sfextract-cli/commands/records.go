package commands

import (
	"fmt"
	"os"
	"time"

	"sfextract-backend/lib/scrapers/lightning"
	"sfextract-backend/lib/serviceutil"
	"sfextract-backend/services/recordstore"

	"github.com/spf13/cobra"
)

var recordsDb *string

func init() {
	recordsDb = recordsCmd.Flags().String("db", "", "The sqlite file the store was persisted to.")
	rootCmd.AddCommand(recordsCmd)
}

var recordsCmd = &cobra.Command{
	Use:   "records [<object kind>] [--db <path/to/store.db>]",
	Short: "Lists stored records, all kinds or one.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		dbPath := *recordsDb
		if dbPath == "" {
			dbPath = cfg.Db
		}
		if dbPath == "" {
			serviceutil.Fatal("no store given", fmt.Errorf("pass --db or set db in config.json5"))
		}
		backend, closeBackend := openBackend(dbPath)
		defer closeBackend()

		store := recordstore.NewService(backend)
		state, err := store.State(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to load store", err)
		}

		kinds := lightning.ObjectKinds
		if len(args) == 1 {
			kinds = []lightning.ObjectKind{lightning.ObjectKind(args[0])}
		}

		for _, kind := range kinds {
			records := state.Records(kind)
			if records == nil {
				serviceutil.Fatal("unknown object kind", fmt.Errorf("%s", args[0]))
			}

			lastSync := "never"
			if at := state.LastSync[kind.PluralKey()]; at > 0 {
				lastSync = time.UnixMilli(at).Format(time.DateTime)
			}
			fmt.Fprintf(os.Stdout, "%s (synced: %s)\n", kind.PluralKey(), lastSync)
			printRecords(kind, records)
		}
	},
}
