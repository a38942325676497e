package labops

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// minimum Q30 percentage per sequencer type for reads to count; reads of other types never count
var q30Thresholds = map[string]float64{
	"hiseqga": 80,
	"hiseqx":  75,
}

var fastqPatterns = []string{
	"*%s/Unaligned*/Project_*/Sample_%s/*.fastq.gz",
	"*%s/Unaligned*/Project_*/Sample_%s_*/*.fastq.gz",
}

type StatsFlowcell struct {
	Name          string
	SequencerName string
	SequencerType string
	SequencedAt   time.Time
	Samples       []StatsSample
}

type StatsSample struct {
	Name   string
	Reads  int64
	Fastqs []string
}

// StatsClient reads demultiplexing statistics of sequenced flowcells.
type StatsClient interface {
	Flowcell(ctx context.Context, name string) (StatsFlowcell, error)
	Fastqs(flowcell, sample string) ([]string, error)
	Close() error
}

type statsClient struct {
	db   *sqlx.DB
	root string
}

type statsFlowcellDAO struct {
	ID        int64     `db:"flowcell_id"`
	Name      string    `db:"flowcellname"`
	Type      string    `db:"hiseqtype"`
	Time      time.Time `db:"time"`
	Sequencer string    `db:"machine"`
}

type statsSampleDAO struct {
	ID   int64  `db:"sample_id"`
	Name string `db:"samplename"`
}

type statsSampleReadsDAO struct {
	Flowcell string          `db:"name"`
	Type     string          `db:"type"`
	Reads    int64           `db:"reads"`
	Q30      sql.NullFloat64 `db:"q30"`
}

// NewStatsClient connects to the stats database. Times are always parsed into time.Time.
func NewStatsClient(dsn, root string) (StatsClient, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn for the stats database must be set. check your configuration for StatsDSN")
	}
	mysqlConfig, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Wrap(ErrStatsRequestFailed, err.Error())
	}
	mysqlConfig.ParseTime = true
	mysqlConfig.Loc = time.UTC

	conn, err := sqlx.Connect("mysql", mysqlConfig.FormatDSN())
	if err != nil {
		log.Error().Err(err).Str("address", mysqlConfig.Addr).Msg("can not connect to stats database")
		return nil, errors.Wrap(ErrStatsRequestFailed, err.Error())
	}
	return NewStatsClientWithDB(conn, root), nil
}

func NewStatsClientWithDB(conn *sqlx.DB, root string) StatsClient {
	return &statsClient{db: conn, root: root}
}

func (c *statsClient) Flowcell(ctx context.Context, name string) (StatsFlowcell, error) {
	query := `SELECT f.flowcell_id, f.flowcellname, f.hiseqtype, f.time, ds.machine
		FROM flowcell f
		INNER JOIN demux dm ON dm.flowcell_id = f.flowcell_id
		INNER JOIN datasource ds ON ds.datasource_id = dm.datasource_id
		WHERE f.flowcellname = ?
		ORDER BY dm.demux_id
		LIMIT 1;`
	var flowcellDAO statsFlowcellDAO
	err := c.db.GetContext(ctx, &flowcellDAO, query, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return StatsFlowcell{}, errors.Wrapf(ErrNotFound, "flowcell %s in stats", name)
		}
		log.Error().Err(err).Str("flowcell", name).Msg(MsgStatsRequestFailed)
		return StatsFlowcell{}, errors.Wrap(ErrStatsRequestFailed, err.Error())
	}

	query = `SELECT DISTINCT s.sample_id, s.samplename
		FROM sample s
		INNER JOIN unaligned u ON u.sample_id = s.sample_id
		INNER JOIN demux dm ON dm.demux_id = u.demux_id
		WHERE dm.flowcell_id = ?
		ORDER BY s.samplename;`
	sampleDAOs := make([]statsSampleDAO, 0)
	err = c.db.SelectContext(ctx, &sampleDAOs, query, flowcellDAO.ID)
	if err != nil {
		log.Error().Err(err).Str("flowcell", name).Msg(MsgStatsRequestFailed)
		return StatsFlowcell{}, errors.Wrap(ErrStatsRequestFailed, err.Error())
	}

	flowcell := StatsFlowcell{
		Name:          flowcellDAO.Name,
		SequencerName: flowcellDAO.Sequencer,
		SequencerType: flowcellDAO.Type,
		SequencedAt:   flowcellDAO.Time,
		Samples:       make([]StatsSample, 0, len(sampleDAOs)),
	}
	for _, sampleDAO := range sampleDAOs {
		sample, err := c.sample(ctx, sampleDAO)
		if err != nil {
			return StatsFlowcell{}, err
		}
		flowcell.Samples = append(flowcell.Samples, sample)
	}
	return flowcell, nil
}

// sample sums the reads of every flowcell the sample was demultiplexed on that passes its Q30 gate
// and collects the FASTQ files of those flowcells.
func (c *statsClient) sample(ctx context.Context, sampleDAO statsSampleDAO) (StatsSample, error) {
	query := `SELECT f.flowcellname AS name, f.hiseqtype AS type, SUM(u.readcounts) AS reads, MIN(u.q30_bases_pct) AS q30
		FROM flowcell f
		INNER JOIN demux dm ON dm.flowcell_id = f.flowcell_id
		INNER JOIN unaligned u ON u.demux_id = dm.demux_id
		WHERE u.sample_id = ?
		GROUP BY f.flowcellname, f.hiseqtype
		ORDER BY f.flowcellname;`
	readsDAOs := make([]statsSampleReadsDAO, 0)
	err := c.db.SelectContext(ctx, &readsDAOs, query, sampleDAO.ID)
	if err != nil {
		log.Error().Err(err).Str("sample", sampleDAO.Name).Msg(MsgStatsRequestFailed)
		return StatsSample{}, errors.Wrap(ErrStatsRequestFailed, err.Error())
	}

	name := StatsSampleName(sampleDAO.Name)
	sample := StatsSample{Name: name, Fastqs: make([]string, 0)}
	for _, readsDAO := range readsDAOs {
		threshold, known := Q30Threshold(readsDAO.Type)
		if !known {
			log.Warn().Str("sample", name).Str("flowcell", readsDAO.Flowcell).Str("type", readsDAO.Type).
				Msg("no q30 gate for sequencer type, reads not counted")
			continue
		}
		if !passesQ30(readsDAO.Q30, threshold) {
			log.Warn().Str("sample", name).Str("flowcell", readsDAO.Flowcell).Float64("q30", readsDAO.Q30.Float64).
				Float64("threshold", threshold).Msg("q30 too low, reads not counted")
			continue
		}
		sample.Reads += readsDAO.Reads
		fastqs, err := c.Fastqs(readsDAO.Flowcell, sampleDAO.Name)
		if err != nil {
			return StatsSample{}, err
		}
		sample.Fastqs = append(sample.Fastqs, fastqs...)
	}
	return sample, nil
}

// Fastqs finds the FASTQ files of a sample on a flowcell below the demultiplexing root.
func (c *statsClient) Fastqs(flowcell, sample string) ([]string, error) {
	return findFastqs(c.root, flowcell, sample)
}

func (c *statsClient) Close() error {
	return c.db.Close()
}

func findFastqs(root, flowcell, sample string) ([]string, error) {
	fastqs := make([]string, 0)
	for _, pattern := range fastqPatterns {
		matches, err := filepath.Glob(filepath.Join(root, fmt.Sprintf(pattern, flowcell, sample)))
		if err != nil {
			return nil, errors.Wrapf(ErrStatsRequestFailed, "fastq pattern for %s on %s: %s", sample, flowcell, err)
		}
		sort.Strings(matches)
		fastqs = append(fastqs, matches...)
	}
	return fastqs, nil
}

// StatsSampleName strips the lane/index suffix after the first "_" and trailing A/B markers.
func StatsSampleName(raw string) string {
	name := strings.SplitN(raw, "_", 2)[0]
	return strings.TrimRight(name, "AB")
}

// Q30Threshold returns the gate of a sequencer type, false for types without one.
func Q30Threshold(sequencerType string) (float64, bool) {
	threshold, ok := q30Thresholds[sequencerType]
	return threshold, ok
}

func passesQ30(q30 sql.NullFloat64, threshold float64) bool {
	return q30.Valid && q30.Float64 >= threshold
}
