package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RimaChaieb/tuniguard-api/pkg/client"
)

// version is overridden with -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL string
	token     string
	cfgFile   string
	format    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tg",
	Short: "TuniGuard command-line client",
	Long: `tg talks to a TuniGuard server: scan suspicious SMS, call transcripts
and app messages, and browse the threat catalog and regional intel.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.tuniguard")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.SetEnvPrefix("TG")
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
		if token == "" {
			token = viper.GetString("token")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.tuniguard/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "TuniGuard server URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "session token (or TG_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "output format: text or json")

	rootCmd.AddCommand(loginCmd, scanCmd, threatsCmd, trendingCmd, intelCmd, versionCmd)
}

func newClient() (*client.Client, error) {
	opts := []client.Option{}
	if token != "" {
		opts = append(opts, client.WithBearerToken(token))
	}
	return client.New(serverURL, opts...)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── login ────────────────────────────────────────────────────────────────────

var loginCmd = &cobra.Command{
	Use:   "login <username> <password>",
	Short: "Log in and print a session token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		sess, err := c.Login(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if format == "json" {
			return printJSON(sess)
		}
		fmt.Printf("user_id: %d\n", sess.UserID)
		if sess.Token == "" {
			fmt.Println("server has authentication disabled; no token issued")
			return nil
		}
		fmt.Printf("export TG_TOKEN=%s\n", sess.Token)
		return nil
	},
}

// ── scan ─────────────────────────────────────────────────────────────────────

var (
	scanUserID   int64
	scanType     string
	scanLocation string
	scanAction   string
)

var scanCmd = &cobra.Command{
	Use:   "scan <content>",
	Short: "Classify a message and store the result",
	Long: `scan submits one message for classification. Pass "-" to read the
content from stdin:

  tg scan --user 1 "Félicitations, vous avez gagné 5000 DT"
  pbpaste | tg scan --user 1 --type app_message -`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Int64Var(&scanUserID, "user", 0, "user ID submitting the scan (required)")
	scanCmd.Flags().StringVar(&scanType, "type", "sms", "content type: sms, call or app_message")
	scanCmd.Flags().StringVar(&scanLocation, "location", "", "optional location hint, e.g. \"Sfax\"")
	scanCmd.Flags().StringVar(&scanAction, "action", "", "record a disposition right away: deleted, reported or ignored")
	_ = scanCmd.MarkFlagRequired("user")
}

func runScan(cmd *cobra.Command, args []string) error {
	content := args[0]
	if content == "-" {
		b, err := readAllStdin()
		if err != nil {
			return err
		}
		content = b
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	res, err := c.Scan(ctx, client.ScanRequest{
		UserID:       scanUserID,
		Content:      content,
		ContentType:  scanType,
		LocationHint: scanLocation,
	})
	if err != nil {
		return err
	}
	if scanAction != "" {
		if err := c.SetScanAction(ctx, res.ScanID, scanAction); err != nil {
			return fmt.Errorf("record action: %w", err)
		}
	}

	if format == "json" {
		return printJSON(res)
	}
	verdict := "SAFE"
	if res.ThreatDetected {
		verdict = "THREAT"
	}
	fmt.Printf("%s  score=%.0f  signal=%s  scan_id=%d\n", verdict, res.DetectionScore, res.SignalBars, res.ScanID)
	if res.ThreatType != nil {
		fmt.Printf("type:     %s", *res.ThreatType)
		if res.Severity != nil {
			fmt.Printf(" (%s)", *res.Severity)
		}
		fmt.Println()
	}
	if len(res.RedFlags) > 0 {
		fmt.Printf("flags:    %s\n", strings.Join(res.RedFlags, "; "))
	}
	fmt.Printf("advice:   %s\n", res.Advice)
	fmt.Printf("your risk score: %.2f\n", res.UserRiskScore)
	return nil
}

func readAllStdin() (string, error) {
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", fmt.Errorf("no content on stdin")
	}
	return s, nil
}

// ── threats ──────────────────────────────────────────────────────────────────

var (
	threatCategory string
	threatSeverity string
)

var threatsCmd = &cobra.Command{
	Use:   "threats [id]",
	Short: "List the threat catalog, or show one entry",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid threat ID %q", args[0])
			}
			d, err := c.GetThreat(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(d)
		}

		threats, err := c.ListThreats(cmd.Context(), threatCategory, threatSeverity)
		if err != nil {
			return err
		}
		if format == "json" {
			return printJSON(threats)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tCATEGORY\tSEVERITY\tDETECTIONS")
		for _, t := range threats {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", t.ThreatID, t.Type, t.Category, t.Severity, t.DetectionCount)
		}
		return w.Flush()
	},
}

func init() {
	threatsCmd.Flags().StringVar(&threatCategory, "category", "", "filter by category: SMS, Call or App Message")
	threatsCmd.Flags().StringVar(&threatSeverity, "severity", "", "filter by severity: Low, Medium, High or Critical")
}

// ── trending ─────────────────────────────────────────────────────────────────

var (
	trendingDays   int
	trendingRegion string
)

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show the most scanned threat types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		t, err := c.Trending(cmd.Context(), trendingDays, trendingRegion)
		if err != nil {
			return err
		}
		if format == "json" {
			return printJSON(t)
		}
		fmt.Printf("%s, %s\n\n", t.Region, t.Period)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tSEVERITY\tSCANS\tALERT")
		for _, tt := range t.TrendingThreats {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", tt.ThreatType, tt.Severity, tt.Frequency, tt.AlertLevel)
		}
		return w.Flush()
	},
}

func init() {
	trendingCmd.Flags().IntVar(&trendingDays, "days", 7, "look-back window in days")
	trendingCmd.Flags().StringVar(&trendingRegion, "region", "", "restrict to a region")
}

// ── intel ────────────────────────────────────────────────────────────────────

var (
	intelRegion     string
	intelDay        string
	intelEscalation string
	intelLimit      int
)

var intelCmd = &cobra.Command{
	Use:   "intel",
	Short: "List aggregated threat intelligence",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := client.IntelFilter{Region: intelRegion, Escalation: intelEscalation, Limit: intelLimit}
		if intelDay != "" {
			day, err := time.Parse(time.DateOnly, intelDay)
			if err != nil {
				return fmt.Errorf("--day must be YYYY-MM-DD")
			}
			f.Day = day
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		recs, err := c.ListIntel(cmd.Context(), f)
		if err != nil {
			return err
		}
		if format == "json" {
			return printJSON(recs)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDAY\tREGION\tTHREAT\tFREQ\tTREND\tLEVEL\tCARRIERS")
		for _, r := range recs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%.0f\t%s\t%s\n",
				r.IntelID, r.ReportedDay.Format(time.DateOnly), r.SourceRegion, r.ThreatID,
				r.Frequency, r.TrendScore, r.EscalationLevel, strings.Join(r.AffectedCarriers, ","))
		}
		return w.Flush()
	},
}

func init() {
	intelCmd.Flags().StringVar(&intelRegion, "region", "", "filter by region")
	intelCmd.Flags().StringVar(&intelDay, "day", "", "filter by day (YYYY-MM-DD)")
	intelCmd.Flags().StringVar(&intelEscalation, "escalation", "", "filter by level: stable, monitoring or escalating")
	intelCmd.Flags().IntVar(&intelLimit, "limit", 0, "maximum records (server default when 0)")
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tg version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tg", version)
	},
}
