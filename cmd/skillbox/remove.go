package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillbox-dev/skillbox/pkg/agents"
	"github.com/skillbox-dev/skillbox/pkg/installer"
	"github.com/skillbox-dev/skillbox/pkg/presenter"
)

var removeCmd = &cobra.Command{
	Use:     "remove <skill-name>...",
	Aliases: []string{"rm", "uninstall"},
	Short:   "Uninstall skills",
	Long: `Remove the named skills from canonical storage, from every agent
directory, and from the lock file. The repository checkout stays on disk; a
later 'skillbox sync' would reinstall the skill unless the repository itself
is removed with 'skillbox prune'.

Examples:
  skillbox remove code-review
  skillbox remove code-review refactoring
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		release, err := acquireCommandLock()
		if err != nil {
			return err
		}
		defer release()

		store, err := newStore()
		if err != nil {
			return err
		}
		inst, err := installer.New()
		if err != nil {
			return err
		}

		lock, err := store.Read()
		if err != nil {
			return err
		}

		allAgents, err := agents.ParseList(nil)
		if err != nil {
			return err
		}

		for _, name := range args {
			entry, tracked := lock.Skills[name]
			if !tracked {
				presenter.Warning(fmt.Sprintf("Skill %s is not installed", name))
				continue
			}

			if err := inst.Uninstall(name, allAgents); err != nil {
				presenter.Error(err, fmt.Sprintf("failed to uninstall %s", name))
				continue
			}

			delete(lock.Skills, name)
			if entry.RepoPath != "" {
				lock.RemoveSkillFromRepo(entry.RepoPath, name)
			}
			presenter.Success(fmt.Sprintf("Removed %s", name))
		}

		return store.Write(lock)
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
