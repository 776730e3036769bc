package types

// InstallPlan is the ordered work produced for install and upgrade. Steps
// are listed in discovery order; execution installs them in reverse and
// finishes with the targets.
type InstallPlan struct {
	Targets []PlanStep `yaml:"targets"`
	Steps   []PlanStep `yaml:"steps"`
}

type PlanStep struct {
	Name          string          `yaml:"name"`
	Version       string          `yaml:"version"`
	State         DependencyState `yaml:"state"`
	Filename      string          `yaml:"filename,omitempty"`
	URL           string          `yaml:"url,omitempty"`
	MD5Sum        string          `yaml:"md5sum,omitempty"`
	LocalPath     string          `yaml:"local_path,omitempty"`
	Size          uint64          `yaml:"size,omitempty"`
	AutoInstalled bool            `yaml:"auto_installed"`
}

// Missing returns the steps for packages not installed at all.
func (p InstallPlan) Missing() []PlanStep {
	return p.filter(DependencyStateMissing)
}

// Old returns the steps for installed packages below their constraint.
func (p InstallPlan) Old() []PlanStep {
	return p.filter(DependencyStateOld)
}

func (p InstallPlan) filter(state DependencyState) []PlanStep {
	var out []PlanStep
	for _, step := range p.Steps {
		if step.State == state {
			out = append(out, step)
		}
	}
	return out
}

// Empty reports whether the plan has nothing to do.
func (p InstallPlan) Empty() bool {
	return len(p.Targets) == 0 && len(p.Steps) == 0
}

// DownloadSize sums the sizes of every step and target that must be fetched.
func (p InstallPlan) DownloadSize() uint64 {
	var total uint64
	for _, step := range p.Steps {
		total += step.Size
	}
	for _, step := range p.Targets {
		if step.LocalPath == "" {
			total += step.Size
		}
	}
	return total
}
