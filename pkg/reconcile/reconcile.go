// Package reconcile converges the lock file's recorded state with what a
// repository checkout actually contains. Discovery against the live
// filesystem is the single source of truth: the engine computes the minimal
// added/removed set relative to the lock's record and applies symlink
// installs and uninstalls plus lock mutations to close the gap.
//
// Drift is the expected steady-state input here, not an error. Out-of-band
// lock edits, interrupted previous runs, and skipped revision-hash checks all
// resolve the same way: re-discover, re-diff, re-converge.
package reconcile

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/skillbox-dev/skillbox/pkg/agents"
	"github.com/skillbox-dev/skillbox/pkg/installer"
	"github.com/skillbox-dev/skillbox/pkg/lockfile"
	"github.com/skillbox-dev/skillbox/pkg/logger"
	"github.com/skillbox-dev/skillbox/pkg/skills"
)

// Options carries the context of one reconcile call
type Options struct {
	SourceURL  string
	SourceType string
	Ref        string
	Agents     []agents.Agent
	Mode       installer.Mode // defaults to symlink
}

// Result reports what one reconcile changed. Removed follows the lock's
// tracked order; Added follows discovery order.
type Result struct {
	Added   []string
	Removed []string
}

// Engine applies reconciliation against a lock snapshot
type Engine struct {
	discovery *skills.Discovery
	installer *installer.Installer
}

// NewEngine creates a reconciliation engine
func NewEngine(discovery *skills.Discovery, inst *installer.Installer) *Engine {
	return &Engine{
		discovery: discovery,
		installer: inst,
	}
}

// Reconcile diffs the lock's tracked skill names for repoIdentity against the
// skills discovered in checkoutPath and applies the difference: removed
// skills are uninstalled best-effort and dropped from the lock, added skills
// are installed for every agent and inserted into the lock.
//
// The lock is mutated in place and NOT persisted; the caller writes it
// afterward. Calling twice with no filesystem change in between yields an
// empty result the second time.
func (e *Engine) Reconcile(ctx context.Context, repoIdentity, checkoutPath string, lock *lockfile.LockFile, opts Options) (*Result, error) {
	log := logger.G(ctx).WithField("repo", repoIdentity)

	var tracked []string
	if entry := lock.Repos[repoIdentity]; entry != nil {
		tracked = append(tracked, entry.Skills...)
	}

	discovered, err := e.discovery.Discover(checkoutPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to discover skills in %s", checkoutPath)
	}
	log.WithField("discovered", skills.Names(discovered)).Debug("scanned checkout")

	discoveredByName := make(map[string]*skills.Skill, len(discovered))
	for _, s := range discovered {
		discoveredByName[s.Name] = s
	}
	trackedSet := make(map[string]bool, len(tracked))
	for _, name := range tracked {
		trackedSet[name] = true
	}

	result := &Result{}

	for _, name := range tracked {
		if _, present := discoveredByName[name]; !present {
			result.Removed = append(result.Removed, name)
		}
	}
	for _, s := range discovered {
		if !trackedSet[s.Name] {
			result.Added = append(result.Added, s.Name)
		}
	}

	for _, name := range result.Removed {
		// cleanup is best-effort: a missing target is not an error, and a
		// failed removal will be retried by the next reconcile
		if err := e.installer.Uninstall(name, opts.Agents); err != nil {
			log.WithError(err).WithField("skill", name).Debug("uninstall left residue")
		}
		delete(lock.Skills, name)
		lock.RemoveSkillFromRepo(repoIdentity, name)
	}

	method := lockfile.InstallMethodRepoSymlink
	if opts.Mode == installer.ModeCopy {
		method = lockfile.InstallMethodCopy
	}

	now := time.Now()
	added := result.Added
	result.Added = result.Added[:0]
	for _, name := range added {
		if existing, ok := lock.Skills[name]; ok && existing.InstallMethod == "" {
			// legacy standalone installs are never adopted by repo reconciliation
			log.WithField("skill", name).Warn("skill name collides with a standalone install; skipping")
			continue
		}

		skill := discoveredByName[name]
		for _, agent := range opts.Agents {
			if _, err := e.installer.Install(skill, agent, installer.InstallOptions{Mode: opts.Mode}); err != nil {
				return nil, errors.Wrapf(err, "failed to install skill %s for %s", name, agent.Type)
			}
		}

		lock.Skills[name] = &lockfile.SkillEntry{
			Source:        repoIdentity,
			SourceType:    opts.SourceType,
			SourceURL:     opts.SourceURL,
			InstalledAt:   now,
			UpdatedAt:     now,
			Ref:           opts.Ref,
			InstallMethod: method,
			RepoPath:      repoIdentity,
		}
		e.track(lock, repoIdentity, name, opts)
		result.Added = append(result.Added, name)
	}

	if len(result.Added) > 0 || len(result.Removed) > 0 {
		log.WithField("added", len(result.Added)).WithField("removed", len(result.Removed)).Debug("reconciled repository")
	}

	return result, nil
}

// track appends the name to the repo entry's skill set, creating the entry
// when drift left it missing
func (e *Engine) track(lock *lockfile.LockFile, repoIdentity, name string, opts Options) {
	entry := lock.Repos[repoIdentity]
	if entry == nil {
		lock.AddRepo(repoIdentity, opts.SourceURL, opts.Ref, []string{name})
		return
	}
	for _, existing := range entry.Skills {
		if existing == name {
			return
		}
	}
	entry.Skills = append(entry.Skills, name)
}
