package labops

import (
	"context"
	"os/exec"
	"strconv"

	"github.com/blutspende/labops/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Loqusdb is the variant observation database.
type Loqusdb interface {
	// GetCase returns ErrCaseNotFound when the case has not been loaded.
	GetCase(ctx context.Context, caseID string) (LoqusdbCase, error)
	// Load adds the observations of a case and returns the number of loaded variants.
	Load(ctx context.Context, caseID, pedigreePath, vcfPath string) (int, error)
}

type commandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (execRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type loqusdbCLI struct {
	binary   string
	baseArgs []string
	runner   commandRunner
}

func NewLoqusdbClient(loqusdbConfig config.Loqusdb) Loqusdb {
	return newLoqusdbClient(loqusdbConfig, execRunner{})
}

func newLoqusdbClient(loqusdbConfig config.Loqusdb, runner commandRunner) *loqusdbCLI {
	baseArgs := []string{"-db", loqusdbConfig.Database}
	if loqusdbConfig.Username != "" {
		baseArgs = append(baseArgs, "--username", loqusdbConfig.Username, "--password", loqusdbConfig.Password)
	}
	baseArgs = append(baseArgs, "--host", loqusdbConfig.Host, "--port", strconv.Itoa(loqusdbConfig.Port))
	return &loqusdbCLI{
		binary:   loqusdbConfig.Binary,
		baseArgs: baseArgs,
		runner:   runner,
	}
}

func (l *loqusdbCLI) args(command ...string) []string {
	args := make([]string, 0, len(l.baseArgs)+len(command))
	args = append(args, l.baseArgs...)
	return append(args, command...)
}

// GetCase lists every case and picks the requested one; filtering by case id in the command
// itself is unreliable.
func (l *loqusdbCLI) GetCase(ctx context.Context, caseID string) (LoqusdbCase, error) {
	output, err := l.runner.Output(ctx, l.binary, l.args("cases")...)
	if err != nil {
		log.Error().Err(err).Str("binary", l.binary).Msg("listing loqusdb cases failed")
		return LoqusdbCase{}, errors.Wrap(ErrLoqusdbCommandFailed, err.Error())
	}
	cases, err := ParseCases(string(output))
	if err != nil {
		return LoqusdbCase{}, err
	}
	for _, loqusdbCase := range cases {
		if loqusdbCase.CaseID == caseID {
			return loqusdbCase, nil
		}
	}
	return LoqusdbCase{}, errors.Wrapf(ErrCaseNotFound, "%s", caseID)
}

func (l *loqusdbCLI) Load(ctx context.Context, caseID, pedigreePath, vcfPath string) (int, error) {
	output, err := l.runner.CombinedOutput(ctx, l.binary, l.args("load", "-c", caseID, "-f", pedigreePath, vcfPath)...)
	if err != nil {
		log.Error().Err(err).Str("case", caseID).Str("output", string(output)).Msg("loading observations failed")
		return 0, errors.Wrap(ErrLoqusdbCommandFailed, err.Error())
	}
	return ParseLoadedVariants(string(output))
}
