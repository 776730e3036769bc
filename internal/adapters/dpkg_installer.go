package adapters

import (
	"context"
	"os/exec"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"minapt/internal/ports"
	"minapt/internal/shared"
)

// DpkgInstallerAdapter installs a local archive with "<binary> -i <path>".
type DpkgInstallerAdapter struct {
	Binary string
}

func NewDpkgInstallerAdapter(binary string) DpkgInstallerAdapter {
	if strings.TrimSpace(binary) == "" {
		binary = "dpkg"
	}
	return DpkgInstallerAdapter{Binary: binary}
}

func (a DpkgInstallerAdapter) Install(ctx context.Context, debPath string) error {
	cmd := exec.CommandContext(ctx, a.Binary, "-i", debPath)
	output, err := cmd.CombinedOutput()
	if trimmed := strings.TrimSpace(string(output)); trimmed != "" {
		log.Ctx(ctx).Debug().Str("binary", a.Binary).Str("archive", debPath).Msg(trimmed)
	}
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(a.Binary + " -i " + debPath + " failed").
			WithCause(shared.CommandError(output, err))
	}
	return nil
}

var _ ports.InstallerPort = DpkgInstallerAdapter{}
