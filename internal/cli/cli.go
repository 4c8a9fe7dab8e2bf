package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/happenr/internal/config"
	"github.com/pfrederiksen/happenr/internal/happenr"
	"github.com/pfrederiksen/happenr/internal/logger"
	"github.com/pfrederiksen/happenr/internal/storage"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNewEvents = 2
)

const dateFlagLayout = "2006-01-02"

// ErrNewEvents is returned by search --new-only when new events were found.
// Execute turns it into ExitNewEvents.
var ErrNewEvents = errors.New("new events found")

// rootOptions holds the persistent flags and what the service commands
// build from them before they run.
type rootOptions struct {
	configPath  string
	login       string
	password    string
	timeOut     int
	userAgent   string
	logLevel    string
	verbose     bool
	baseURL     string
	metricsFile string
	timeZone    string

	cfg      *config.Config
	location *time.Location
	log      *logger.Logger
	registry *prometheus.Registry
	client   *happenr.Client
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "happenr",
		Short: "Search events on the Happenr events service",
		Long: `A CLI for the Happenr events web service.
Searches events, shows event details and can report only the events that are
new since the previous run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.DefaultPath(), "Path to the YAML config file")
	flags.StringVar(&opts.login, "login", "", "Happenr login (or env: HAPPENR_LOGIN)")
	flags.StringVar(&opts.password, "password", "", "Happenr password (or env: HAPPENR_PASSWORD)")
	flags.IntVar(&opts.timeOut, "timeout", config.DefaultTimeOut, "Request timeout in seconds, 0 disables it")
	flags.StringVar(&opts.userAgent, "user-agent", "", "Application user agent, <app-name>/<app-version>")
	flags.StringVar(&opts.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn or error")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose output and debug logging")
	flags.StringVar(&opts.timeZone, "timezone", "", "IANA time zone for service dates and output (default local time)")
	flags.StringVar(&opts.metricsFile, "metrics-textfile", "", "Write request metrics in Prometheus text format to this file")
	flags.StringVar(&opts.baseURL, "base-url", happenr.APIURL, "Happenr web service root")
	_ = flags.MarkHidden("base-url")

	cmd.AddCommand(newSearchCmd(opts), newDetailsCmd(opts))

	return cmd
}

// setup loads the configuration, applies flag overrides and builds the client.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()

	cfg, err := config.Load(o.configPath, flags.Changed("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if flags.Changed("login") {
		cfg.Login = o.login
	}
	if flags.Changed("password") {
		cfg.Password = o.password
	}
	if flags.Changed("timeout") {
		cfg.TimeOut = o.timeOut
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = o.userAgent
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("timezone") {
		cfg.TimeZone = o.timeZone
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	o.location = loc

	level := logger.ParseLevel(cfg.LogLevel)
	if o.verbose {
		level = logger.LevelDebug
	}
	o.log = logger.New(level, cmd.ErrOrStderr())
	logger.SetDefault(o.log)

	o.registry = prometheus.NewRegistry()

	clientOpts := []happenr.Option{
		happenr.WithLogger(o.log),
		happenr.WithMetrics(happenr.NewMetrics(o.registry)),
		happenr.WithLocation(loc),
	}
	if flags.Changed("base-url") {
		clientOpts = append(clientOpts, happenr.WithBaseURL(o.baseURL))
	}

	o.client = happenr.New(cfg.Login, cfg.Password, clientOpts...)
	o.client.SetTimeOut(cfg.TimeOut)
	o.client.SetUserAgent(cfg.UserAgent)
	o.cfg = cfg

	return nil
}

// writeMetrics exports the request metrics when --metrics-textfile is set.
func (o *rootOptions) writeMetrics() error {
	if o.metricsFile == "" || o.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(o.metricsFile, o.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

type searchFlags struct {
	language               string
	channelID              string
	sorting                string
	sourceID               int
	firstRecord            int
	limit                  int
	includeDatesXML        bool
	omitEvents             bool
	omitEventDetails       bool
	includeFilters         bool
	includeDoubles         bool
	includePermanentEvents bool
	country                string
	region                 string
	town                   string
	longitude              string
	latitude               string
	maxDistance            int
	category               string
	date                   string
	fromDate               string
	toDate                 string
	period                 string
	searchText             string
	venue                  string

	dataDir  string
	format   string
	order    string
	newOnly  bool
	snapshot string
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	f := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search events",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return root.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if merr := root.writeMetrics(); merr != nil && err == nil {
					err = merr
				}
			}()
			return runSearch(cmd, root, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.language, "language", "", "Language for categories (default EN)")
	flags.StringVar(&f.channelID, "channel-id", "", "Channel to query")
	flags.StringVar(&f.sorting, "sorting", "", "Service sorting: "+sortingList())
	flags.IntVar(&f.sourceID, "source-id", 0, "Only events from this source")
	flags.IntVar(&f.firstRecord, "first-record", 0, "Offset of the first result")
	flags.IntVar(&f.limit, "limit", 0, "Maximum number of results (at most 500)")
	flags.BoolVar(&f.includeDatesXML, "include-dates-xml", false, "Include the schedule of every event")
	flags.BoolVar(&f.omitEvents, "omit-events", false, "Return filters only")
	flags.BoolVar(&f.omitEventDetails, "omit-event-details", false, "Leave out extended event fields")
	flags.BoolVar(&f.includeFilters, "include-filters", false, "Include the available filters")
	flags.BoolVar(&f.includeDoubles, "include-doubles", false, "Keep duplicate events")
	flags.BoolVar(&f.includePermanentEvents, "include-permanent-events", false, "Keep permanent events")
	flags.StringVar(&f.country, "country", "", "Country")
	flags.StringVar(&f.region, "region", "", "Region")
	flags.StringVar(&f.town, "town", "", "Town")
	flags.StringVar(&f.longitude, "longitude", "", "Longitude, requires --latitude")
	flags.StringVar(&f.latitude, "latitude", "", "Latitude, requires --longitude")
	flags.IntVar(&f.maxDistance, "max-distance", 0, "Maximum distance in km from the coordinates")
	flags.StringVar(&f.category, "category", "", "Category")
	flags.StringVar(&f.date, "date", "", "Events on this day (YYYY-MM-DD)")
	flags.StringVar(&f.fromDate, "from-date", "", "Events from this day (YYYY-MM-DD)")
	flags.StringVar(&f.toDate, "to-date", "", "Events up to this day (YYYY-MM-DD)")
	flags.StringVar(&f.period, "period", "", "Period keyword")
	flags.StringVar(&f.searchText, "search-text", "", "Free text search")
	flags.StringVar(&f.venue, "venue", "", "Venue")

	flags.StringVar(&f.dataDir, "data-dir", "", "Data directory for snapshots (default from config)")
	flags.StringVar(&f.format, "format", "text", "Output format: text, json or ics")
	flags.StringVar(&f.order, "order", "", "Re-sort results: date, title or town")
	flags.BoolVar(&f.newOnly, "new-only", false, "Only show events not seen in the snapshot")
	flags.StringVar(&f.snapshot, "snapshot", storage.DefaultSnapshot, "Snapshot name used by --new-only")

	return cmd
}

func sortingList() string {
	names := make([]string, len(happenr.Sortings))
	for i, s := range happenr.Sortings {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// searchOptions converts the flags into service options. Language and
// channel fall back to the config file.
func (f *searchFlags) searchOptions(cmd *cobra.Command, cfg *config.Config, loc *time.Location) (happenr.SearchOptions, error) {
	flags := cmd.Flags()

	opts := happenr.SearchOptions{
		Language:               cfg.Language,
		ChannelID:              cfg.ChannelID,
		Sorting:                happenr.Sorting(f.sorting),
		FirstRecord:            f.firstRecord,
		IncludeDatesXML:        f.includeDatesXML,
		OmitEvents:             f.omitEvents,
		OmitEventDetails:       f.omitEventDetails,
		IncludeFilters:         f.includeFilters,
		IncludeDoubles:         f.includeDoubles,
		IncludePermanentEvents: f.includePermanentEvents,
		Country:                f.country,
		Region:                 f.region,
		Town:                   f.town,
		Longitude:              f.longitude,
		Latitude:               f.latitude,
		MaxDistance:            f.maxDistance,
		Category:               f.category,
		Period:                 f.period,
		SearchText:             f.searchText,
		Venue:                  f.venue,
	}

	if flags.Changed("language") {
		opts.Language = f.language
	}
	if flags.Changed("channel-id") {
		opts.ChannelID = f.channelID
	}
	if flags.Changed("source-id") {
		opts.SourceID = &f.sourceID
	}
	if flags.Changed("limit") {
		opts.Limit = &f.limit
	}

	var err error
	if opts.Date, err = parseDateFlag("date", f.date, loc); err != nil {
		return opts, err
	}
	if opts.FromDate, err = parseDateFlag("from-date", f.fromDate, loc); err != nil {
		return opts, err
	}
	if opts.ToDate, err = parseDateFlag("to-date", f.toDate, loc); err != nil {
		return opts, err
	}

	return opts, nil
}

func parseDateFlag(name, value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(dateFlagLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: must be YYYY-MM-DD", name, value)
	}
	return t, nil
}

// runSearch is the search command logic
func runSearch(cmd *cobra.Command, root *rootOptions, f *searchFlags) error {
	format, err := parseFormat(f.format)
	if err != nil {
		return err
	}
	order := SortOrder(strings.ToLower(f.order))
	if !order.valid() {
		return fmt.Errorf("invalid order: %s (must be 'date', 'title' or 'town')", f.order)
	}

	opts, err := f.searchOptions(cmd, root.cfg, root.location)
	if err != nil {
		return err
	}

	events, err := root.client.SearchEvents(cmd.Context(), opts)
	if err != nil {
		return err
	}

	root.log.Info("search completed", logger.Fields{"events": len(events)})

	result := &OutputResult{
		CheckedAt: time.Now().UTC(),
		Events:    events,
		Location:  root.location,
	}

	if f.newOnly {
		dataDir := root.cfg.DataDir
		if f.dataDir != "" {
			dataDir = f.dataDir
		}

		store, err := storage.New(dataDir)
		if err != nil {
			return fmt.Errorf("initializing storage: %w", err)
		}

		diff, err := store.Track(f.snapshot, events)
		if err != nil {
			return err
		}

		root.log.Info("snapshot updated", logger.Fields{
			"snapshot":   f.snapshot,
			"new_events": len(diff.NewEvents),
			"changes":    len(diff.Changes),
		})

		result.Events = diff.NewEvents
		result.NewOnly = true
		result.Snapshot = f.snapshot
	}

	sortEvents(result.Events, order)
	result.EventCount = len(result.Events)

	if err := WriteOutput(cmd.OutOrStdout(), result, format, root.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if f.newOnly && result.EventCount > 0 {
		return ErrNewEvents
	}

	return nil
}

type detailsFlags struct {
	channelID       string
	includeDatesXML bool
	format          string
}

func newDetailsCmd(root *rootOptions) *cobra.Command {
	f := &detailsFlags{}

	cmd := &cobra.Command{
		Use:   "details EVENT_ID",
		Short: "Show the details of one event",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return root.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if merr := root.writeMetrics(); merr != nil && err == nil {
					err = merr
				}
			}()
			return runDetails(cmd, root, f, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.channelID, "channel-id", "", "Channel to query")
	flags.BoolVar(&f.includeDatesXML, "include-dates-xml", false, "Include the event schedule")
	flags.StringVar(&f.format, "format", "text", "Output format: text, json or ics")

	return cmd
}

// runDetails is the details command logic
func runDetails(cmd *cobra.Command, root *rootOptions, f *detailsFlags, eventID string) error {
	format, err := parseFormat(f.format)
	if err != nil {
		return err
	}

	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return errors.New("EVENT_ID must not be empty")
	}

	opts := happenr.DetailOptions{
		ChannelID:       root.cfg.ChannelID,
		IncludeDatesXML: f.includeDatesXML,
	}
	if cmd.Flags().Changed("channel-id") {
		opts.ChannelID = f.channelID
	}

	evt, err := root.client.GetEventDetails(cmd.Context(), eventID, opts)
	if err != nil {
		return err
	}

	if err := WriteDetails(cmd.OutOrStdout(), evt, format, root.location); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	return nil
}

// Execute runs the CLI
func Execute() {
	err := NewRootCmd().Execute()
	switch {
	case err == nil:
		os.Exit(ExitSuccess)
	case errors.Is(err, ErrNewEvents):
		os.Exit(ExitNewEvents)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
