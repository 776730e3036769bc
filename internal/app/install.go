package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"minapt/internal/core"
	"minapt/internal/policies"
	"minapt/internal/types"
)

// Install resolves target, which is a package name or a path to a local
// .deb file, fetches what is missing or too old and installs dependencies
// in reverse discovery order before the target itself.
func (s Service) Install(ctx context.Context, req InstallRequest) (InstallResult, error) {
	target := strings.TrimSpace(req.Target)
	if target == "" {
		return InstallResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package name or .deb path is required")
	}
	snap := s.newSnapshots(ctx)
	index, installed, err := snap.load()
	if err != nil {
		return InstallResult{}, err
	}
	sources, err := snap.sources()
	if err != nil {
		return InstallResult{}, err
	}

	local := strings.HasSuffix(target, ".deb")
	var record types.Package
	if local {
		record, err = s.Debs.ReadControl(target)
		if err != nil {
			return InstallResult{}, err
		}
	} else {
		var ok bool
		record, ok = index.Lookup(target)
		if !ok {
			return InstallResult{}, packageNotFound(target)
		}
		if current, ok := installed.Get(record.Name); ok && s.compare()(current.Version, record.Version) >= 0 {
			log.Ctx(ctx).Debug().Str("package", record.Name).Str("version", current.Version).Msg("already newest version")
			return InstallResult{AlreadyInstalled: true}, nil
		}
	}

	resolver := core.NewDependencyResolver(index, installed, s.compare())
	entries, err := resolver.Resolve(ctx, record)
	if err != nil {
		return InstallResult{}, err
	}
	if held := s.heldDependencies(index, installed, entries); len(held) > 0 {
		return InstallResult{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("unable to install %s: held packages would be upgraded: %s", record.Name, strings.Join(held, ", ")))
	}

	builder := newPlanBuilder(sources, index)
	targetStep := builder.step(record, targetState(installed, record.Name), false)
	if local {
		targetStep.LocalPath = target
		targetStep.URL = ""
	}
	builder.addTarget(targetStep)
	builder.addEntries(entries)
	plan := builder.plan()

	result := InstallResult{Plan: plan}
	proceed, err := s.review(plan, req.PlanOut, req.DryRun, req.Yes, req.Confirm)
	if err != nil || !proceed {
		result.Aborted = !req.DryRun && err == nil
		return result, err
	}

	result.Installed, err = s.execute(ctx, plan)
	if err != nil {
		return result, err
	}
	states := autoStates(plan)
	states = append(states, types.ExtendedState{Name: record.Name, AutoInstalled: false})
	if err := s.State.MarkAutoInstalled(states); err != nil {
		return result, err
	}
	return result, nil
}

// Upgrade installs every upgradable package that is not held, together
// with whatever its new version needs.
func (s Service) Upgrade(ctx context.Context, req UpgradeRequest) (UpgradeResult, error) {
	snap := s.newSnapshots(ctx)
	index, installed, err := snap.load()
	if err != nil {
		return UpgradeResult{}, err
	}
	sources, err := snap.sources()
	if err != nil {
		return UpgradeResult{}, err
	}

	upgrades := core.CheckUpgradable(index, installed, s.compare())
	apply, held := policies.FilterHeld(s.Hold, upgrades, installed.Get)
	for _, upgrade := range held {
		log.Ctx(ctx).Debug().Str("package", upgrade.Name).Msg("kept back")
	}

	// An upgrade whose new version needs a held package upgraded is kept
	// back with it.
	resolver := core.NewDependencyResolver(index, installed, s.compare())
	var records []types.Package
	var resolved [][]types.DependencyEntry
	for _, upgrade := range apply {
		record, ok := index.Get(upgrade.Name)
		if !ok {
			continue
		}
		entries, err := resolver.Resolve(ctx, record)
		if err != nil {
			return UpgradeResult{}, err
		}
		if blocking := s.heldDependencies(index, installed, entries); len(blocking) > 0 {
			log.Ctx(ctx).Debug().Str("package", upgrade.Name).Strs("held", blocking).Msg("kept back")
			held = append(held, upgrade)
			continue
		}
		records = append(records, record)
		resolved = append(resolved, entries)
	}

	builder := newPlanBuilder(sources, index)
	for _, record := range records {
		builder.addTarget(builder.step(record, types.DependencyStateOld, false))
	}
	for _, entries := range resolved {
		builder.addEntries(entries)
	}
	plan := builder.plan()

	result := UpgradeResult{Plan: plan, Held: held}
	if plan.Empty() {
		return result, nil
	}
	proceed, err := s.review(plan, req.PlanOut, req.DryRun, req.Yes, req.Confirm)
	if err != nil || !proceed {
		result.Aborted = !req.DryRun && err == nil
		return result, err
	}
	result.Installed, err = s.execute(ctx, plan)
	if err != nil {
		return result, err
	}
	if states := autoStates(plan); len(states) > 0 {
		if err := s.State.MarkAutoInstalled(states); err != nil {
			return result, err
		}
	}
	return result, nil
}

// review writes the plan file when asked and decides whether to go on.
func (s Service) review(plan types.InstallPlan, planOut string, dryRun bool, yes bool, confirm ConfirmFunc) (bool, error) {
	if strings.TrimSpace(planOut) != "" {
		if err := s.Plans.WritePlan(planOut, plan); err != nil {
			return false, err
		}
	}
	if dryRun {
		return false, nil
	}
	if yes || confirm == nil {
		return true, nil
	}
	return confirm(plan)
}

// execute downloads every archive of plan under the archive lock, then
// installs the steps in reverse order followed by the targets.
func (s Service) execute(ctx context.Context, plan types.InstallPlan) ([]string, error) {
	order := make([]types.PlanStep, 0, len(plan.Steps)+len(plan.Targets))
	for i := len(plan.Steps) - 1; i >= 0; i-- {
		order = append(order, plan.Steps[i])
	}
	order = append(order, plan.Targets...)

	paths := make([]string, len(order))
	err := s.withLock(types.LockScopeArchive, func() error {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(s.workers())
		for i, step := range order {
			if step.LocalPath != "" {
				paths[i] = step.LocalPath
				continue
			}
			group.Go(func() error {
				path, err := s.Archives.Fetch(groupCtx, step.URL, step.Filename, step.MD5Sum)
				if err != nil {
					return err
				}
				paths[i] = path
				return nil
			})
		}
		return group.Wait()
	})
	if err != nil {
		return nil, err
	}

	installed := make([]string, 0, len(order))
	for i, step := range order {
		log.Ctx(ctx).Debug().Str("package", step.Name).Str("version", step.Version).Str("archive", paths[i]).Msg("installing")
		if err := s.Installer.Install(ctx, paths[i]); err != nil {
			return installed, err
		}
		installed = append(installed, step.Name)
	}
	return installed, nil
}

// heldDependencies names the installed packages on hold that entries would
// upgrade.
func (s Service) heldDependencies(index *core.PackageIndex, installed *core.InstalledState, entries []types.DependencyEntry) []string {
	if s.Hold == nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.State != types.DependencyStateOld {
			continue
		}
		name := core.StripArchQualifier(entry.Name)
		if record, ok := index.Lookup(entry.Name); ok {
			name = record.Name
		}
		if current, ok := installed.Get(name); ok && s.Hold.IsHeld(current) {
			names = append(names, current.Name)
		}
	}
	return names
}

func targetState(installed *core.InstalledState, name string) types.DependencyState {
	if _, ok := installed.Get(name); ok {
		return types.DependencyStateOld
	}
	return types.DependencyStateMissing
}

// autoStates marks newly pulled in dependencies as automatically installed.
func autoStates(plan types.InstallPlan) []types.ExtendedState {
	var out []types.ExtendedState
	for _, step := range plan.Steps {
		if step.AutoInstalled {
			out = append(out, types.ExtendedState{Name: step.Name, AutoInstalled: true})
		}
	}
	return out
}
