package commands

import (
	"log/slog"
	"net/url"
	"os"
	"time"

	"sfextract-backend/lib/configutil"
	"sfextract-backend/lib/dom/gqdom"
	"sfextract-backend/lib/kv"
	"sfextract-backend/lib/kv/memkv"
	"sfextract-backend/lib/kv/sqlitekv"
	"sfextract-backend/lib/scrapers/lightning"
	"sfextract-backend/lib/serviceutil"
	"sfextract-backend/services/extractor"
	"sfextract-backend/services/recordstore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Config struct {
	Db          string `json:"db"`
	WaitSeconds int    `json:"wait_seconds"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

// openBackend picks the store the engine writes to: a sqlite file when a
// path is given, throwaway memory otherwise.
func openBackend(path string) (kv.Backend, func()) {
	if path == "" {
		return memkv.NewStore(), func() {}
	}
	store, err := sqlitekv.Open(path)
	if err != nil {
		serviceutil.Fatal("failed to open store", err)
	}
	return store, func() { store.Close() }
}

var scrapeHtml *string
var scrapeUrl *string
var scrapeDb *string

func init() {
	scrapeHtml = scrapeCmd.Flags().String("html", "", "Path to a saved DOM snapshot of the page.")
	scrapeUrl = scrapeCmd.Flags().String("url", "", "The url the page was rendered at.")
	scrapeDb = scrapeCmd.Flags().String("db", "", "The sqlite file to persist records to.")
	scrapeCmd.MarkFlagRequired("html")
	scrapeCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape --html <path/to/page.html> --url <page url> [--db <path/to/store.db>]",
	Short: "Extracts records from a rendered page snapshot and merges them into the store.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		f, err := os.Open(*scrapeHtml)
		if err != nil {
			serviceutil.Fatal("failed to open snapshot", err)
		}
		doc, err := gqdom.Parse(f)
		f.Close()
		if err != nil {
			serviceutil.Fatal("failed to parse snapshot", err)
		}

		pageUrl, err := url.Parse(*scrapeUrl)
		if err != nil {
			serviceutil.Fatal("failed to parse page url", err)
		}

		dbPath := *scrapeDb
		if dbPath == "" {
			dbPath = cfg.Db
		}
		backend, closeBackend := openBackend(dbPath)
		defer closeBackend()

		svc := extractor.NewService(extractor.ServiceOptions{
			Doc:         doc,
			PageURL:     pageUrl,
			Store:       recordstore.NewService(backend),
			WaitTimeout: time.Duration(cfg.WaitSeconds) * time.Second,
		})

		result, err := svc.Extract(cmd.Context())
		if err != nil {
			serviceutil.Fatal("extraction failed", err)
		}
		svc.Wait()

		printRecords(result.Context.Object, result.Records)
		slog.Info(
			"extraction saved",
			"object", string(result.Context.Object),
			"view", string(result.Context.View),
			"count", len(result.Records),
		)
	},
}

func printRecords(object lightning.ObjectKind, records []lightning.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)

	header := table.Row{"id"}
	for _, key := range lightning.Schemas[object] {
		header = append(header, key)
	}
	t.AppendHeader(header)

	for _, record := range records {
		row := table.Row{record.Id}
		for _, key := range lightning.Schemas[object] {
			row = append(row, record.Field(key))
		}
		t.AppendRow(row)
	}
	t.Render()
}
