// Package lockfile owns the persistent manifest tracking every installed
// skill and every tracked repository. The manifest is a versioned JSON
// document with forward-only schema migrations; reads never fail on a missing
// or corrupt file, they start fresh instead.
//
// The manifest is a single shared mutable resource with no built-in locking:
// callers must guarantee at most one writer at a time, e.g. by serializing
// repo operations or holding a process-level lock around mutating commands.
package lockfile

import (
	"sort"
	"time"
)

// CurrentVersion is the schema version this build reads and writes.
const CurrentVersion = 4

// Install methods recorded on skill entries. Entries without an install
// method are legacy standalone installs and are never touched by repo
// reconciliation.
const (
	InstallMethodRepoSymlink = "repo-symlink"
	InstallMethodCopy        = "copy"
)

// SkillEntry records one installed skill, keyed by skill name in the manifest.
// Skill names are unique across the whole manifest, not per repository.
type SkillEntry struct {
	Source          string    `json:"source"`
	SourceType      string    `json:"sourceType"`
	SourceURL       string    `json:"sourceUrl"`
	SkillFolderHash string    `json:"skillFolderHash"`
	InstalledAt     time.Time `json:"installedAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Ref             string    `json:"ref,omitempty"`
	InstallMethod   string    `json:"installMethod,omitempty"`
	// RepoPath back-references the repo entry key when InstallMethod is
	// repo-symlink; reconciliation and garbage collection join on it.
	RepoPath string `json:"repoPath,omitempty"`
}

// RepoEntry records one tracked repository, keyed by normalized identity.
type RepoEntry struct {
	URL         string    `json:"url"`
	Ref         string    `json:"ref,omitempty"`
	Skills      []string  `json:"skills"`
	LastFetched time.Time `json:"lastFetched"`
	HeadHash    string    `json:"headHash,omitempty"`
}

// HeadChanged reports whether the repository should be considered changed
// relative to the given current head revision. A repo entry with no stored
// hash always reads as changed, which forces a reconcile at least once after
// a migration introduced the repos map.
func (r *RepoEntry) HeadChanged(current string) bool {
	if r == nil || r.HeadHash == "" {
		return true
	}
	return r.HeadHash != current
}

// LockFile is the whole manifest
type LockFile struct {
	Version   int                    `json:"version"`
	Skills    map[string]*SkillEntry `json:"skills"`
	Repos     map[string]*RepoEntry  `json:"repos"`
	Dismissed map[string]bool        `json:"dismissed,omitempty"`
}

// New returns an empty manifest at the current schema version
func New() *LockFile {
	return &LockFile{
		Version: CurrentVersion,
		Skills:  make(map[string]*SkillEntry),
		Repos:   make(map[string]*RepoEntry),
	}
}

// ensureMaps guards against manifests deserialized with null maps
func (l *LockFile) ensureMaps() {
	if l.Skills == nil {
		l.Skills = make(map[string]*SkillEntry)
	}
	if l.Repos == nil {
		l.Repos = make(map[string]*RepoEntry)
	}
}

// AddRepo creates the repo entry for identity if absent, otherwise merges the
// given skill names into its skill set as an order-stable deduplicated union
// (new names appended after existing ones). LastFetched is updated either way.
func (l *LockFile) AddRepo(identity, url, ref string, skillNames []string) {
	l.ensureMaps()

	entry := l.Repos[identity]
	if entry == nil {
		entry = &RepoEntry{
			URL: url,
			Ref: ref,
		}
		l.Repos[identity] = entry
	}

	seen := make(map[string]bool, len(entry.Skills))
	for _, name := range entry.Skills {
		seen[name] = true
	}
	for _, name := range skillNames {
		if !seen[name] {
			entry.Skills = append(entry.Skills, name)
			seen[name] = true
		}
	}

	entry.LastFetched = time.Now()
}

// RemoveSkillFromRepo drops the name from the identified repo entry's skill
// set. Absent repo or absent name is a no-op, not an error.
func (l *LockFile) RemoveSkillFromRepo(identity, skillName string) {
	entry := l.Repos[identity]
	if entry == nil {
		return
	}

	filtered := entry.Skills[:0]
	for _, name := range entry.Skills {
		if name != skillName {
			filtered = append(filtered, name)
		}
	}
	entry.Skills = filtered
}

// RemoveRepo deletes the repo entry entirely. Skill entries referencing it
// are not touched; that cleanup belongs to reconciliation.
func (l *LockFile) RemoveRepo(identity string) {
	delete(l.Repos, identity)
}

// OrphanedRepo pairs a repo entry with its manifest key
type OrphanedRepo struct {
	Key   string
	Entry *RepoEntry
}

// OrphanedRepos returns every repo entry whose skill set is empty, in key
// order. These are garbage-collection candidates; deletion of their checkouts
// is the caller's business.
func (l *LockFile) OrphanedRepos() []OrphanedRepo {
	keys := make([]string, 0, len(l.Repos))
	for key := range l.Repos {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var orphans []OrphanedRepo
	for _, key := range keys {
		if entry := l.Repos[key]; len(entry.Skills) == 0 {
			orphans = append(orphans, OrphanedRepo{Key: key, Entry: entry})
		}
	}
	return orphans
}
