package ports

import "minapt/internal/types"

type PlanWriterPort interface {
	WritePlan(path string, plan types.InstallPlan) error
}
