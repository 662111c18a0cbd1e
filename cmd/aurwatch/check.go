package main

import (
	"context"
	"os"

	"github.com/aurwatch/aurwatch/internal/check"
	"github.com/aurwatch/aurwatch/internal/common/config"
	"github.com/aurwatch/aurwatch/internal/common/logger"
	"github.com/aurwatch/aurwatch/internal/feeds"
	"github.com/aurwatch/aurwatch/internal/pkgbuild"
	"github.com/aurwatch/aurwatch/internal/upstream"
	"github.com/aurwatch/aurwatch/internal/version"
	"github.com/spf13/cobra"
)

var (
	// checkFeeds overrides the watchfile path
	checkFeeds string
	// checkRoot overrides the package tree root
	checkRoot string
	// checkList prints only the names of packages needing updates
	checkList bool
	// checkJSON prints newline-delimited JSON records
	checkJSON bool
	// checkApply rewrites PKGBUILDs for packages needing updates
	checkApply bool
)

var checkCmd = &cobra.Command{
	Use:   "check [package...]",
	Short: "Check packages against their upstream versions",
	Long: `Check the pkgver of each package against its upstream source and
report the result. With no arguments every package in the watchfile is
checked.

Examples:
  aurwatch check                 Check all packages
  aurwatch check ripgrep fzf     Check specific packages
  aurwatch check -l              List only packages needing updates
  aurwatch check --json          Newline-delimited JSON output
  aurwatch check --apply         Rewrite PKGBUILDs for pending updates`,
	Run: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFeeds, "feeds", "", "Watchfile path (default: <root>/watchfile.toml)")
	checkCmd.Flags().StringVar(&checkRoot, "root", "", "Package tree root (default: from config)")
	checkCmd.Flags().BoolVarP(&checkList, "list", "l", false, "List only packages needing updates")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Newline-delimited JSON output")
	checkCmd.Flags().BoolVar(&checkApply, "apply", false, "Rewrite PKGBUILDs for packages needing updates")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("loading config: %v", err)
		os.Exit(1)
	}

	root := checkRoot
	if root == "" {
		root, err = cfg.GetRoot()
		if err != nil {
			logger.Error("package tree root: %v (set packages.root in the config or pass --root)", err)
			os.Exit(1)
		}
	}

	watchfile := checkFeeds
	if watchfile == "" {
		if checkRoot != "" {
			cfg.Packages.Root = checkRoot
		}
		watchfile, err = cfg.GetWatchfile()
		if err != nil {
			logger.Error("watchfile path: %v", err)
			os.Exit(1)
		}
	}

	// Feeds are read fresh on every run; there is no cache to go stale.
	feedCfg, err := feeds.Load(watchfile)
	if err != nil {
		logger.Error("loading watchfile: %v", err)
		os.Exit(1)
	}

	cmp := version.NewComparator()
	if cmp.Degraded() {
		logger.Warn("vercmp not found, falling back to lexical ordering; results are unreliable for multi-digit segments, epochs and pre-releases")
	}

	client := upstream.NewClient(cfg.GetGitHubToken(), cmp)
	checker := check.NewChecker(feedCfg, client, root)

	results := checker.Check(context.Background(), args)

	reporter := &check.Reporter{Out: os.Stdout}
	switch {
	case checkList:
		reporter.List(results)
	case checkJSON:
		if err := reporter.JSON(results); err != nil {
			logger.Error("writing JSON: %v", err)
			os.Exit(1)
		}
	default:
		reporter.Table(results)
	}

	if checkApply {
		applyUpdates(root, results)
	}
}

// applyUpdates rewrites the PKGBUILD of every package classified as
// needing an update. Failures are reported per package and never stop
// the batch.
func applyUpdates(root string, results []check.Result) {
	applier := &pkgbuild.Applier{}

	for _, res := range results {
		if res.Status != check.StatusUpdate || res.UpstreamVersion == "" {
			continue
		}

		path, err := pkgbuild.Find(root, res.Package)
		if err != nil {
			logger.Error("%s: %v", res.Package, err)
			continue
		}

		if err := applier.Apply(path, res.UpstreamVersion); err != nil {
			logger.Error("%s: %v", res.Package, err)
			continue
		}
		logger.Info("%s: updated to %s", res.Package, res.UpstreamVersion)
	}
}
