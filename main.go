package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/shivendrra/synapse/errors"
	"github.com/shivendrra/synapse/handlers"
	"github.com/shivendrra/synapse/jsonfile"
	"github.com/shivendrra/synapse/models"
)

type rootOptions struct {
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:   "synapse",
		Short: "Search YouTube and turn videos into audio",
		Long: `synapse searches YouTube and saves the results as an ordered JSON map,
and extracts audio from video URLs or local files with yt-dlp and ffmpeg.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL")

	rootCmd.AddCommand(
		newSearchCmd(&opts),
		newConvertCmd(&opts),
		newReadCmd(&opts),
		newHistoryCmd(&opts),
		newServeCmd(&opts),
	)
	return rootCmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search YouTube and write the results to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if output != "" {
				a.cfg.SearchOutputPath = output
			}

			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				query, err = promptQuery(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			pipeline, err := a.searchPipeline()
			if err != nil {
				return err
			}
			_, err = pipeline.Run(cmd.Context(), query)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "override SEARCH_OUTPUT_PATH")
	return cmd
}

// promptQuery asks for a search string on in. The prompt goes to out so
// stdout stays clean.
func promptQuery(in io.Reader, out io.Writer) (string, error) {
	const op = "main.promptQuery"

	fmt.Fprint(out, "Enter the search string: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", apperrors.IO(op, err, "failed to read search string")
	}
	return strings.TrimSpace(line), nil
}

func newConvertCmd(opts *rootOptions) *cobra.Command {
	var (
		output   string
		fromFile string
	)

	cmd := &cobra.Command{
		Use:   "convert <url-or-file>...",
		Short: "Extract audio from videos and print the source to audio map as JSON",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && fromFile == "" {
				return fmt.Errorf("requires at least 1 source or --from")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if output != "" {
				a.cfg.ConvertOutputPath = output
			}

			sources := args
			if fromFile != "" {
				urls, err := resultURLs(fromFile)
				if err != nil {
					return err
				}
				sources = append(sources, urls...)
			}

			out, err := a.convertPipeline().Run(cmd.Context(), sources)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the map to this file (overrides CONVERT_OUTPUT_PATH)")
	cmd.Flags().StringVar(&fromFile, "from", "", "convert every URL in a search results file")
	return cmd
}

func resultURLs(path string) ([]string, error) {
	results := models.NewResultMap()
	if err := jsonfile.Read(path, results); err != nil {
		return nil, err
	}
	urls := make([]string, 0, results.Len())
	for _, k := range models.Keys(results) {
		entry, _ := results.Get(k)
		urls = append(urls, entry.URL)
	}
	return urls, nil
}

func newReadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read [file]",
		Short: "Print a search results file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*opts)
			if err != nil {
				return err
			}

			path := cfg.SearchOutputPath
			if len(args) == 1 {
				path = args[0]
			}
			return printResults(cmd.OutOrStdout(), path)
		},
	}
}

func printResults(w io.Writer, path string) error {
	results := models.NewResultMap()
	if err := jsonfile.Read(path, results); err != nil {
		return err
	}
	return writeResults(w, results)
}

func writeResults(w io.Writer, results *models.ResultMap) error {
	const op = "main.writeResults"

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return apperrors.IO(op, err, "failed to encode results")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent searches and conversions, or the results of one search",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.store == nil {
				return apperrors.Config("main.history", nil, "history ledger is not available, check DB_PATH")
			}
			if runID != "" {
				return printRun(cmd.Context(), cmd.OutOrStdout(), a.store, runID)
			}
			return printHistory(cmd.Context(), cmd.OutOrStdout(), a.store, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries per section")
	cmd.Flags().StringVar(&runID, "run", "", "print the result map of one search run")
	return cmd
}

func printHistory(ctx context.Context, w io.Writer, h handlers.History, limit int) error {
	searches, err := h.ListSearches(ctx, limit)
	if err != nil {
		return err
	}
	conversions, err := h.ListConversions(ctx, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEARCHES")
	fmt.Fprintln(tw, "TIME\tRUN\tRESULTS\tQUERY")
	for _, s := range searches {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.CreatedAt.Local().Format(time.DateTime), s.RunID, s.ResultCount, s.Query)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CONVERSIONS")
	fmt.Fprintln(tw, "TIME\tRUN\tSTATUS\tSOURCE\tAUDIO")
	for _, c := range conversions {
		audio := c.AudioPath
		if c.IsFailed() {
			audio = c.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.CreatedAt.Local().Format(time.DateTime), c.RunID, c.Status, c.Source, audio)
	}
	return tw.Flush()
}

func printRun(ctx context.Context, w io.Writer, h handlers.History, runID string) error {
	results, err := h.SearchResults(ctx, runID)
	if err != nil {
		return err
	}
	return writeResults(w, results)
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the search and convert API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *opts)
			if err != nil {
				return err
			}
			defer a.Close()

			searchPipeline, err := a.searchPipeline()
			if err != nil {
				return err
			}

			var history handlers.History
			if a.store != nil {
				history = a.store
			}
			h := handlers.NewHandler(searchPipeline, a.convertPipeline(), history, a.log)

			srv := &http.Server{
				Addr: ":" + a.cfg.ServerPort,
				Handler: handlers.NewRouter(h, handlers.RouterConfig{
					RateLimit:         a.cfg.RateLimit,
					RateLimitInterval: a.cfg.RateLimitInterval,
				}),
				ReadTimeout:  a.cfg.ReadTimeout,
				WriteTimeout: a.cfg.WriteTimeout,
				IdleTimeout:  a.cfg.IdleTimeout,
			}
			return runServer(cmd.Context(), srv, a)
		},
	}
}

func runServer(ctx context.Context, srv *http.Server, a *app) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", srv.Addr).Info("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return apperrors.IO("main.runServer", err, "server failed")
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Error("Server shutdown error")
		return err
	}
	return nil
}
