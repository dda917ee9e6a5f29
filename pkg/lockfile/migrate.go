package lockfile

// migrations transforms a manifest from version N to N+1. Each step must
// preserve every existing skill entry and dismissed-prompt flag; new
// top-level fields arrive with empty defaults.
var migrations = map[int]func(*LockFile){
	// v1 -> v2: dismissed-prompt flags
	1: func(l *LockFile) {
		if l.Dismissed == nil {
			l.Dismissed = make(map[string]bool)
		}
	},
	// v2 -> v3: source typing on skill entries
	2: func(l *LockFile) {
		for _, entry := range l.Skills {
			if entry.SourceType == "" {
				entry.SourceType = "git"
			}
			if entry.SourceURL == "" {
				entry.SourceURL = entry.Source
			}
		}
	},
	// v3 -> v4: tracked repositories map
	3: func(l *LockFile) {
		if l.Repos == nil {
			l.Repos = make(map[string]*RepoEntry)
		}
	},
}

// Migrate applies migrations sequentially until the manifest is at
// CurrentVersion. Migrating an already-current manifest is a no-op.
func (l *LockFile) Migrate() {
	l.ensureMaps()
	for v := l.Version; v < CurrentVersion; v++ {
		if step := migrations[v]; step != nil {
			step(l)
		}
		l.Version = v + 1
	}
}
