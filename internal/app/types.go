package app

import "minapt/internal/types"

// ConfirmFunc asks the user whether a plan should be carried out.
type ConfirmFunc func(plan types.InstallPlan) (bool, error)

type UpdateRequest struct{}

type UpdateResult struct {
	Fetched    []types.FetchedIndex
	Skipped    int
	Packages   int
	Upgradable int
}

type ListRequest struct {
	Pattern    string
	Installed  bool
	Upgradable bool
	IgnoreCase bool
}

type ListEntry struct {
	Name             string
	Version          string
	Architectures    []types.Architecture
	Distribution     string
	Component        string
	Installed        bool
	InstalledVersion string
	Automatic        bool
	Upgradable       bool
}

type SearchRequest struct {
	Expression string
	IgnoreCase bool
}

type SearchEntry struct {
	Name        string
	Version     string
	Summary     string
	Description string
	Installed   bool
}

type ShowRequest struct {
	Pattern    string
	Installed  bool
	IgnoreCase bool
}

type InstallRequest struct {
	Target  string
	Yes     bool
	DryRun  bool
	PlanOut string
	Confirm ConfirmFunc
}

type InstallResult struct {
	Plan             types.InstallPlan
	AlreadyInstalled bool
	Aborted          bool
	Installed        []string
}

type UpgradeRequest struct {
	Yes     bool
	DryRun  bool
	PlanOut string
	Confirm ConfirmFunc
}

type UpgradeResult struct {
	Plan      types.InstallPlan
	Held      []types.Upgrade
	Aborted   bool
	Installed []string
}

type CleanResult struct {
	Removed int
}
