package core

import (
	"minapt/internal/types"
)

// CheckUpgradable lists installed packages whose index record carries a
// strictly newer version, in installed order. Installed packages missing
// from the index are skipped.
func CheckUpgradable(index *PackageIndex, installed *InstalledState, compare VersionComparator) []types.Upgrade {
	if compare == nil {
		compare = CompareVersions
	}
	var out []types.Upgrade
	for _, record := range installed.Packages() {
		candidate, ok := index.Get(record.Name)
		if !ok {
			continue
		}
		if compare(candidate.Version, record.Version) > 0 {
			out = append(out, types.Upgrade{
				Name:             record.Name,
				InstalledVersion: record.Version,
				CandidateVersion: candidate.Version,
			})
		}
	}
	return out
}
