package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillbox-dev/skillbox/pkg/agents"
	"github.com/skillbox-dev/skillbox/pkg/gitrepo"
	"github.com/skillbox-dev/skillbox/pkg/installer"
	"github.com/skillbox-dev/skillbox/pkg/lockfile"
	"github.com/skillbox-dev/skillbox/pkg/reconcile"
	"github.com/skillbox-dev/skillbox/pkg/skills"
)

// parseRepoRef splits an argument of the form "<url>[@ref]". The @ only
// counts as a ref separator after the last path segment, so scp-like URLs
// such as git@h:o/r.git survive intact.
func parseRepoRef(arg string) (url, ref string) {
	idx := strings.LastIndex(arg, "@")
	if idx <= 0 || idx < strings.LastIndex(arg, "/") {
		return arg, ""
	}
	candidate := arg[idx+1:]
	if candidate == "" || strings.ContainsAny(candidate, ":/") {
		return arg, ""
	}
	return arg[:idx], candidate
}

func newManager() (*gitrepo.Manager, error) {
	var opts []gitrepo.Option
	if dir := viper.GetString("repos_dir"); dir != "" {
		opts = append(opts, gitrepo.WithRootDir(dir))
	}
	return gitrepo.NewManager(opts...)
}

func newStore() (*lockfile.Store, error) {
	return lockfile.NewStore()
}

func newEngine() (*reconcile.Engine, error) {
	inst, err := installer.New()
	if err != nil {
		return nil, err
	}
	return reconcile.NewEngine(skills.NewDiscovery(), inst), nil
}

// agentsFromFlags resolves the --agents flag, falling back to the configured
// or full agent list
func agentsFromFlags(cmd *cobra.Command) ([]agents.Agent, error) {
	names, _ := cmd.Flags().GetStringSlice("agents")
	if len(names) == 0 {
		names = viper.GetStringSlice("agents")
	}
	return agents.ParseList(names)
}
