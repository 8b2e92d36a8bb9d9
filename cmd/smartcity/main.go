package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moma1992/smartcity-mcp/internal/ngsi"
	"github.com/moma1992/smartcity-mcp/pkg/smartcity"
)

var (
	version = "1.0.0"

	// Global flags
	configFile string
	storeDir   string
	logLevel   string
	pretty     bool

	// Scrape flags
	email    string
	password string

	// Exec flags
	apiKey     string
	entityID   string
	idPattern  string
	query      string
	georel     string
	geometry   string
	coords     string
	limit      int
	offset     int
	attrs      []string
	orderBy    string
	options    string
	rawRecords bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "smartcity",
		Short: "Smart city open data API integration layer",
		Long: `smartcity scrapes an authenticated municipal API catalog into a local
document cache and runs live NGSIv2 entity queries against the city's
open data platform using the cached schema knowledge.`,
		Version: version,
	}

	scrapeCmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the API catalog into the local store",
		RunE:  runScrape,
	}

	searchCmd := &cobra.Command{
		Use:   "search [keyword]",
		Short: "Search stored documents by keyword",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}

	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show one stored document",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		RunE:  runList,
	}

	commandCmd := &cobra.Command{
		Use:   "command [entity-type]",
		Short: "Generate example queries for a stored document",
		Args:  cobra.ExactArgs(1),
		RunE:  runCommand,
	}

	execCmd := &cobra.Command{
		Use:   "exec [entity-type]",
		Short: "Run a live entity query",
		Args:  cobra.ExactArgs(1),
		RunE:  runExec,
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show cache status",
		RunE:  runStatus,
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show municipality and platform information",
		RunE:  runInfo,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "Document store directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Human-readable log output")

	scrapeCmd.Flags().StringVarP(&email, "email", "u", "", "Catalog portal email (or SMARTCITY_CATALOG_EMAIL)")
	scrapeCmd.Flags().StringVarP(&password, "password", "p", "", "Catalog portal password (or SMARTCITY_CATALOG_PASSWORD)")

	execCmd.Flags().StringVar(&apiKey, "api-key", "", "Entity API key (or SMARTCITY_API_KEY)")
	execCmd.Flags().StringVar(&entityID, "id", "", "Entity identifier filter")
	execCmd.Flags().StringVar(&idPattern, "id-pattern", "", "Entity identifier pattern filter")
	execCmd.Flags().StringVarP(&query, "query", "q", "", "Attribute filter expression")
	execCmd.Flags().StringVar(&georel, "georel", "", "Spatial relation (e.g. near;maxDistance:1000)")
	execCmd.Flags().StringVar(&geometry, "geometry", "", "Spatial geometry (e.g. point)")
	execCmd.Flags().StringVar(&coords, "coords", "", "Spatial coordinates (lat,lon)")
	execCmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum records (1-1000)")
	execCmd.Flags().IntVar(&offset, "offset", 0, "Records to skip")
	execCmd.Flags().StringSliceVar(&attrs, "attrs", nil, "Attributes to return")
	execCmd.Flags().StringVar(&orderBy, "order-by", "", "Sort order")
	execCmd.Flags().StringVar(&options, "options", "", "NGSIv2 options (count, keyValues)")
	execCmd.Flags().BoolVar(&rawRecords, "raw", false, "Print raw records instead of summaries")

	rootCmd.AddCommand(scrapeCmd, searchCmd, showCmd, listCmd, commandCmd, execCmd, statusCmd, infoCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newClient builds the client from the config file, flags, and
// environment.
func newClient() (*smartcity.Client, error) {
	opts := []smartcity.Option{}

	if configFile != "" {
		opts = append(opts, smartcity.WithConfigFile(configFile))
	}
	if storeDir != "" {
		opts = append(opts, smartcity.WithStoreDir(storeDir))
	}
	if email != "" || password != "" {
		opts = append(opts, smartcity.WithCatalogCredentials(email, password))
	}
	if apiKey != "" {
		opts = append(opts, smartcity.WithAPIKey(apiKey))
	}
	opts = append(opts, smartcity.WithLogLevel(logLevel), smartcity.WithPrettyLogs(pretty))

	return smartcity.New(opts...)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, stopping...\n")
		cancel()
	}()

	return ctx, cancel
}

func runScrape(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	summary, err := client.ScrapeAndStore(ctx)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	fmt.Printf("Scraped:  %d documents\n", summary.Scraped)
	fmt.Printf("Partial:  %d\n", summary.Partial)
	fmt.Printf("Skipped:  %d links\n", summary.Skipped)
	fmt.Printf("Duration: %v\n", time.Since(start).Round(time.Millisecond))
	for tag, count := range summary.TagCounts {
		fmt.Printf("  %-10s %d\n", tag, count)
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	docs, err := client.Search(context.Background(), args[0])
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		fmt.Printf("No documents match %q\n", args[0])
		return nil
	}
	for _, doc := range docs {
		fmt.Printf("%-30s %s\n", doc.ID, doc.Name)
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	detail, err := client.Registry().CatalogDetail(args[0])
	if err != nil {
		return err
	}
	fmt.Print(detail)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.Registry().CatalogSummary()
	if err != nil {
		return err
	}
	fmt.Print(summary)
	return nil
}

func runCommand(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	examples, err := client.GenerateCommand(context.Background(), args[0])
	if err != nil {
		return err
	}

	for _, ex := range examples {
		fmt.Printf("# %s\n", ex.Title)
		fmt.Printf("smartcity exec %s", ex.EntityType)
		if ex.Params.ID != "" {
			fmt.Printf(" --id %q", ex.Params.ID)
		}
		if ex.Params.Query != "" {
			fmt.Printf(" -q %q", ex.Params.Query)
		}
		if ex.Params.GeoRel != "" {
			fmt.Printf(" --georel %q --geometry %s --coords %s",
				ex.Params.GeoRel, ex.Params.Geometry, ex.Params.Coords)
		}
		if ex.Params.Limit > 0 {
			fmt.Printf(" -l %d", ex.Params.Limit)
		}
		if ex.Params.OrderBy != "" {
			fmt.Printf(" --order-by %s", ex.Params.OrderBy)
		}
		if ex.Params.Options != "" {
			fmt.Printf(" --options %s", ex.Params.Options)
		}
		fmt.Printf("\n  (%s)\n\n", ex.Query)
	}
	return nil
}

func runExec(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := signalContext()
	defer cancel()

	params := ngsi.QueryParameters{
		ID:        entityID,
		IDPattern: idPattern,
		Query:     query,
		GeoRel:    georel,
		Geometry:  geometry,
		Coords:    coords,
		Limit:     limit,
		Offset:    offset,
		Attrs:     attrs,
		OrderBy:   orderBy,
		Options:   options,
	}

	result, err := client.Execute(ctx, args[0], params)
	if err != nil {
		return err
	}

	fmt.Printf("%d records (trace %s)\n", result.Count, result.TraceID)
	if result.RateLimited {
		fmt.Printf("rate limited: remaining %s, reset %s\n",
			result.RateRemaining, result.RateReset)
	}

	if rawRecords {
		data, err := json.MarshalIndent(result.Records, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	for _, s := range result.Summaries {
		fmt.Printf("- %s", s.ID)
		if s.Name != "" {
			fmt.Printf("  %s", s.Name)
		}
		if s.Address != "" {
			fmt.Printf("  (%s)", s.Address)
		}
		fmt.Println()
	}
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Print(client.Registry().MunicipalityInfo())
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	report, err := client.Status(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Documents:     %d\n", report.Documents)
	fmt.Printf("Authenticated: %v\n", report.Authenticated)
	for tag, count := range report.TagCounts {
		fmt.Printf("  %-10s %d\n", tag, count)
	}
	return nil
}
