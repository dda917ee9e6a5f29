package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skillbox-dev/skillbox/pkg/gitrepo"
	"github.com/skillbox-dev/skillbox/pkg/installer"
	"github.com/skillbox-dev/skillbox/pkg/presenter"
	"github.com/skillbox-dev/skillbox/pkg/reconcile"
)

var addCmd = &cobra.Command{
	Use:   "add <repo-url>[@ref]...",
	Short: "Install skills from git repositories",
	Long: `Clone one or more git repositories, discover the skill bundles they
contain (directories with a SKILL.md file, at any depth), and install every
skill for your agents.

Examples:
  skillbox add https://github.com/org/skills
  skillbox add git@github.com:org/skills.git
  skillbox add https://github.com/org/skills@v1.2.0
  skillbox add https://github.com/org/skills --agents claude-code,cursor
  skillbox add https://github.com/org/skills --copy
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agentList, err := agentsFromFlags(cmd)
		if err != nil {
			return err
		}
		useCopy, _ := cmd.Flags().GetBool("copy")

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

		for _, arg := range args {
			url, ref := parseRepoRef(arg)
			presenter.Info(fmt.Sprintf("Fetching %s...", url))

			path, err := mgr.EnsureCheckout(cmd.Context(), url, ref)
			if err != nil {
				return errors.Wrapf(err, "failed to check out %s", url)
			}

			identity := gitrepo.NormalizeURL(url)
			lock.AddRepo(identity, url, ref, nil)

			opts := reconcile.Options{
				SourceURL:  url,
				SourceType: "git",
				Ref:        ref,
				Agents:     agentList,
			}
			if useCopy {
				opts.Mode = installer.ModeCopy
			}

			result, err := engine.Reconcile(cmd.Context(), identity, path, lock, opts)
			if err != nil {
				return errors.Wrapf(err, "failed to reconcile %s", identity)
			}

			if hash, ok := mgr.HeadHash(cmd.Context(), path); ok {
				lock.Repos[identity].HeadHash = hash
			}

			if len(result.Added) > 0 {
				presenter.Success(fmt.Sprintf("Installed skills: %s", strings.Join(result.Added, ", ")))
			}
			if len(result.Removed) > 0 {
				presenter.Info(fmt.Sprintf("Removed stale skills: %s", strings.Join(result.Removed, ", ")))
			}
			if len(result.Added) == 0 && len(result.Removed) == 0 {
				presenter.Info(fmt.Sprintf("No skill changes in %s", identity))
			}
		}

		return store.Write(lock)
	},
}

func init() {
	addCmd.Flags().StringSlice("agents", nil, "Agents to install for (default: all)")
	addCmd.Flags().Bool("copy", false, "Copy skills into storage instead of symlinking the checkout")

	rootCmd.AddCommand(addCmd)
}
