package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skillbox-dev/skillbox/pkg/presenter"
	"github.com/skillbox-dev/skillbox/pkg/reconcile"
)

var syncCmd = &cobra.Command{
	Use:   "sync [repo-identity]...",
	Short: "Synchronize installed skills with their source repositories",
	Long: `Update the checkouts of every tracked repository (or just the named
ones) and reconcile the installed skills with what the repositories now
contain. Skills that disappeared from a repository are uninstalled; new ones
are installed.

A repository is reconciled when its head revision changed since the last
sync, when the lock file has no recorded revision for it, or always with
--force. Network failures fall back to the existing checkout.

Examples:
  skillbox sync                          # sync everything
  skillbox sync github.com/org/skills    # sync one repository
  skillbox sync --force                  # reconcile even without changes
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		agentList, err := agentsFromFlags(cmd)
		if err != nil {
			return err
		}

		release, err := acquireCommandLock()
		if err != nil {
			return err
		}
		defer release()

		mgr, err := newManager()
		if err != nil {
			return err
		}
		store, err := newStore()
		if err != nil {
			return err
		}
		engine, err := newEngine()
		if err != nil {
			return err
		}

		lock, err := store.Read()
		if err != nil {
			return err
		}

		identities := make([]string, 0, len(lock.Repos))
		for identity := range lock.Repos {
			identities = append(identities, identity)
		}
		sort.Strings(identities)

		if len(args) > 0 {
			identities, err = filterIdentities(identities, args)
			if err != nil {
				return err
			}
		}

		if len(identities) == 0 {
			presenter.Info("No repositories tracked; use 'skillbox add' first")
			return nil
		}

		for _, identity := range identities {
			entry := lock.Repos[identity]

			path, err := mgr.EnsureCheckout(cmd.Context(), entry.URL, entry.Ref)
			if err != nil {
				presenter.Error(err, fmt.Sprintf("failed to check out %s", identity))
				continue
			}

			hash, hasHash := mgr.HeadHash(cmd.Context(), path)
			if !force && hasHash && !entry.HeadChanged(hash) {
				entry.LastFetched = time.Now()
				presenter.Info(fmt.Sprintf("%s is up to date", identity))
				continue
			}

			result, err := engine.Reconcile(cmd.Context(), identity, path, lock, reconcile.Options{
				SourceURL:  entry.URL,
				SourceType: "git",
				Ref:        entry.Ref,
				Agents:     agentList,
			})
			if err != nil {
				presenter.Error(err, fmt.Sprintf("failed to reconcile %s", identity))
				continue
			}

			entry.LastFetched = time.Now()
			if hasHash {
				entry.HeadHash = hash
			}

			switch {
			case len(result.Added) > 0 || len(result.Removed) > 0:
				presenter.Success(fmt.Sprintf("%s: +%d -%d skills", identity, len(result.Added), len(result.Removed)))
				if len(result.Added) > 0 {
					presenter.Info(fmt.Sprintf("  added: %s", strings.Join(result.Added, ", ")))
				}
				if len(result.Removed) > 0 {
					presenter.Info(fmt.Sprintf("  removed: %s", strings.Join(result.Removed, ", ")))
				}
			default:
				presenter.Info(fmt.Sprintf("%s reconciled; no skill changes", identity))
			}
		}

		return store.Write(lock)
	},
}

// filterIdentities keeps the tracked identities matching the requested names
func filterIdentities(tracked, requested []string) ([]string, error) {
	trackedSet := make(map[string]bool, len(tracked))
	for _, identity := range tracked {
		trackedSet[identity] = true
	}

	var result []string
	for _, name := range requested {
		if !trackedSet[name] {
			return nil, errors.Errorf("repository %q is not tracked", name)
		}
		result = append(result, name)
	}
	return result, nil
}

func init() {
	syncCmd.Flags().Bool("force", false, "Reconcile even when the repository head is unchanged")
	syncCmd.Flags().StringSlice("agents", nil, "Agents to install for (default: all)")

	rootCmd.AddCommand(syncCmd)
}
