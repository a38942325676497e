package labops

import (
	"context"
	"testing"

	"github.com/blutspende/labops/config"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commandRunnerMock struct {
	output []byte
	err    error
	calls  [][]string
}

func (m *commandRunnerMock) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	return m.output, m.err
}

func (m *commandRunnerMock) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	return m.output, m.err
}

var testLoqusdbConfig = config.Loqusdb{
	Binary:   "/usr/bin/loqusdb",
	Database: "loqusdb",
	Host:     "mongo",
	Port:     27017,
	Username: "user",
	Password: "secret",
}

func TestLoqusdbGetCase(t *testing.T) {
	runner := &commandRunnerMock{output: []byte(`{'_id': ObjectId('5c766a1b4c8fc4364ebd4ab2'), 'case_id': 'yellowhog'}
{'_id': ObjectId('5c766a1b4c8fc4364ebd4ab3'), 'case_id': 'bluewhale'}`)}
	client := newLoqusdbClient(testLoqusdbConfig, runner)

	loqusdbCase, err := client.GetCase(context.Background(), "bluewhale")

	require.Nil(t, err)
	assert.Equal(t, "5c766a1b4c8fc4364ebd4ab3", loqusdbCase.ID)
	assert.Equal(t, []string{"/usr/bin/loqusdb", "-db", "loqusdb", "--username", "user", "--password", "secret",
		"--host", "mongo", "--port", "27017", "cases"}, runner.calls[0])
}

func TestLoqusdbGetCaseNotFound(t *testing.T) {
	runner := &commandRunnerMock{output: []byte(`{'_id': ObjectId('5c766a1b4c8fc4364ebd4ab2'), 'case_id': 'yellowhog'}`)}
	client := newLoqusdbClient(testLoqusdbConfig, runner)

	_, err := client.GetCase(context.Background(), "bluewhale")

	assert.True(t, errors.Is(err, ErrCaseNotFound))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLoqusdbLoad(t *testing.T) {
	runner := &commandRunnerMock{output: []byte(loadOutput)}
	client := newLoqusdbClient(config.Loqusdb{Binary: "loqusdb", Database: "loqusdb", Host: "localhost", Port: 27017}, runner)

	variants, err := client.Load(context.Background(), "yellowhog", "/a/pedigree.ped", "/a/research.vcf.gz")

	require.Nil(t, err)
	assert.Equal(t, 15, variants)
	assert.Equal(t, []string{"loqusdb", "-db", "loqusdb", "--host", "localhost", "--port", "27017",
		"load", "-c", "yellowhog", "-f", "/a/pedigree.ped", "/a/research.vcf.gz"}, runner.calls[0])
}

func TestLoqusdbCommandFailure(t *testing.T) {
	runner := &commandRunnerMock{err: errors.New("exit status 1")}
	client := newLoqusdbClient(testLoqusdbConfig, runner)

	_, err := client.Load(context.Background(), "yellowhog", "ped", "vcf")

	assert.True(t, errors.Is(err, ErrLoqusdbCommandFailed))
}
