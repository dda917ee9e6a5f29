package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skillbox-dev/skillbox/pkg/lockfile"
	"github.com/skillbox-dev/skillbox/pkg/presenter"
)

// listedSkill is the flattened view of a manifest skill entry used by every
// output format
type listedSkill struct {
	Name        string    `json:"name" yaml:"name"`
	Source      string    `json:"source" yaml:"source"`
	SourceURL   string    `json:"sourceUrl,omitempty" yaml:"sourceUrl,omitempty"`
	Ref         string    `json:"ref,omitempty" yaml:"ref,omitempty"`
	Method      string    `json:"installMethod,omitempty" yaml:"installMethod,omitempty"`
	InstalledAt time.Time `json:"installedAt" yaml:"installedAt"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt"`
}

type listedRepo struct {
	Identity    string    `json:"identity" yaml:"identity"`
	URL         string    `json:"url" yaml:"url"`
	Ref         string    `json:"ref,omitempty" yaml:"ref,omitempty"`
	Skills      []string  `json:"skills" yaml:"skills"`
	LastFetched time.Time `json:"lastFetched" yaml:"lastFetched"`
	HeadHash    string    `json:"headHash,omitempty" yaml:"headHash,omitempty"`
}

type listing struct {
	Skills []listedSkill `json:"skills" yaml:"skills"`
	Repos  []listedRepo  `json:"repos" yaml:"repos"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed skills and tracked repositories",
	Long: `List every skill recorded in the lock file, together with the
repository it came from and how it was installed, followed by the tracked
repositories themselves.

Examples:
  skillbox list
  skillbox list --format json
  skillbox list --format yaml
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")

		store, err := newStore()
		if err != nil {
			return err
		}
		lock, err := store.Read()
		if err != nil {
			return err
		}

		l := listing{
			Skills: flattenSkills(lock),
			Repos:  flattenRepos(lock),
		}

		switch format {
		case "text":
			return printListing(l)
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(l)
		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			defer enc.Close()
			return enc.Encode(l)
		default:
			return errors.Errorf("unknown format %q (want text, json, or yaml)", format)
		}
	},
}

func flattenSkills(lock *lockfile.LockFile) []listedSkill {
	names := make([]string, 0, len(lock.Skills))
	for name := range lock.Skills {
		names = append(names, name)
	}
	sort.Strings(names)

	listed := make([]listedSkill, 0, len(names))
	for _, name := range names {
		entry := lock.Skills[name]
		listed = append(listed, listedSkill{
			Name:        name,
			Source:      entry.Source,
			SourceURL:   entry.SourceURL,
			Ref:         entry.Ref,
			Method:      entry.InstallMethod,
			InstalledAt: entry.InstalledAt,
			UpdatedAt:   entry.UpdatedAt,
		})
	}
	return listed
}

func flattenRepos(lock *lockfile.LockFile) []listedRepo {
	identities := make([]string, 0, len(lock.Repos))
	for identity := range lock.Repos {
		identities = append(identities, identity)
	}
	sort.Strings(identities)

	listed := make([]listedRepo, 0, len(identities))
	for _, identity := range identities {
		entry := lock.Repos[identity]
		listed = append(listed, listedRepo{
			Identity:    identity,
			URL:         entry.URL,
			Ref:         entry.Ref,
			Skills:      entry.Skills,
			LastFetched: entry.LastFetched,
			HeadHash:    entry.HeadHash,
		})
	}
	return listed
}

func printListing(l listing) error {
	if len(l.Skills) == 0 && len(l.Repos) == 0 {
		presenter.Info("No skills installed; use 'skillbox add' to install some")
		return nil
	}

	if len(l.Skills) > 0 {
		presenter.Section("Installed skills")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSOURCE\tREF\tMETHOD\tUPDATED")
		for _, s := range l.Skills {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				s.Name, s.Source, orDash(s.Ref), orStandalone(s.Method), s.UpdatedAt.Format("2006-01-02"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(l.Repos) > 0 {
		presenter.Section("Tracked repositories")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "REPOSITORY\tREF\tSKILLS\tLAST FETCHED")
		for _, r := range l.Repos {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				r.Identity, orDash(r.Ref), len(r.Skills), r.LastFetched.Format("2006-01-02 15:04"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func orStandalone(method string) string {
	if method == "" {
		return "standalone"
	}
	return method
}

func init() {
	listCmd.Flags().String("format", "text", "Output format (text, json, yaml)")

	rootCmd.AddCommand(listCmd)
}
