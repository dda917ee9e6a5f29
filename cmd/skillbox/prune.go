package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillbox-dev/skillbox/pkg/presenter"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove repositories that no longer provide any skills",
	Long: `Drop every tracked repository whose skills have all been removed, and
optionally delete its checkout from the cache. Without --checkouts only the
lock file entries are removed.

Examples:
  skillbox prune               # report and drop orphaned repo entries
  skillbox prune --checkouts   # also delete their cached checkouts
  skillbox prune --dry-run     # report only
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		deleteCheckouts, _ := cmd.Flags().GetBool("checkouts")

		release, err := acquireCommandLock()
		if err != nil {
			return err
		}
		defer release()

		store, err := newStore()
		if err != nil {
			return err
		}
		mgr, err := newManager()
		if err != nil {
			return err
		}

		lock, err := store.Read()
		if err != nil {
			return err
		}

		orphans := lock.OrphanedRepos()
		if len(orphans) == 0 {
			presenter.Info("No orphaned repositories")
			return nil
		}

		for _, orphan := range orphans {
			if dryRun {
				presenter.Info(fmt.Sprintf("Would prune %s", orphan.Key))
				continue
			}

			lock.RemoveRepo(orphan.Key)
			presenter.Success(fmt.Sprintf("Pruned %s", orphan.Key))

			if deleteCheckouts {
				path := mgr.CheckoutPath(orphan.Entry.URL, orphan.Entry.Ref)
				if err := os.RemoveAll(path); err != nil {
					presenter.Error(err, fmt.Sprintf("failed to delete checkout for %s", orphan.Key))
					continue
				}
				presenter.Info(fmt.Sprintf("  deleted checkout %s", path))
			}
		}

		if dryRun {
			return nil
		}
		return store.Write(lock)
	},
}

func init() {
	pruneCmd.Flags().Bool("checkouts", false, "Also delete the cached checkouts of pruned repositories")
	pruneCmd.Flags().Bool("dry-run", false, "Report what would be pruned without changing anything")

	rootCmd.AddCommand(pruneCmd)
}
