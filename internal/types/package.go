package types

// Package is one parsed control-file paragraph. Records are built by the
// control parser and never mutated afterwards.
type Package struct {
	Name               string
	Version            string
	Priority           Priority
	Section            Section
	Architectures      []Architecture
	Depends            []Dependency
	PreDepends         []Dependency
	Provides           []string
	Suggests           []string
	Essential          bool
	Maintainer         string
	OriginalMaintainer string
	Homepage           string
	Origin             string
	Bugs               string
	Description        string
	Filename           string
	MD5Sum             string
	InstalledSize      uint64
	DownloadSize       uint64
	Conffiles          []string
	Distribution       string
	Component          string
	IndexFile          string
	Status             *PackageStatus
}

// Dependency is a single kept alternative of a Depends or Pre-Depends
// entry. An empty Version means the entry carries no constraint.
type Dependency struct {
	Name    string
	Version string
}

func (d Dependency) HasConstraint() bool {
	return d.Version != ""
}

// PackageStatus is the want/flag/status triple of a dpkg status record.
type PackageStatus struct {
	Want  StatusWant
	Flag  StatusFlag
	State StatusState
}

// DependencyConstraint returns the constraint recorded for name in
// Pre-Depends or Depends.
func (p Package) DependencyConstraint(name string) (string, bool) {
	for _, dep := range p.PreDepends {
		if dep.Name == name {
			return dep.Version, true
		}
	}
	for _, dep := range p.Depends {
		if dep.Name == name {
			return dep.Version, true
		}
	}
	return "", false
}

// IsInstalled reports whether the record describes an installed package.
// Records without a Status field (index records) are never installed.
func (p Package) IsInstalled() bool {
	return p.Status != nil && p.Status.State == StatusStateInstalled
}

// IsHeld reports whether dpkg has been told to keep the package as is.
func (p Package) IsHeld() bool {
	return p.Status != nil && (p.Status.Want == StatusWantHold || p.Status.Flag == StatusFlagHold || p.Status.Flag == StatusFlagHoldReinstReq)
}

// Summary is the first line of the description.
func (p Package) Summary() string {
	for i := 0; i < len(p.Description); i++ {
		if p.Description[i] == '\n' {
			return p.Description[:i]
		}
	}
	return p.Description
}

// ExtendedState is one entry of an apt extended_states file.
type ExtendedState struct {
	Name          string
	AutoInstalled bool
}

// DependencyEntry is one resolver result: a discovered dependency and its
// classification against installed state.
type DependencyEntry struct {
	Name  string
	State DependencyState
}

// Upgrade pairs an installed record with the newer index version.
type Upgrade struct {
	Name             string
	InstalledVersion string
	CandidateVersion string
}
