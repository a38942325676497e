package labops

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/blutspende/labops/utils"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// udf naming the pool a ready made library belongs to
const limsUdfPoolName = "pool name"

// Lims is the laboratory information system as seen by order intake and the reconciler.
type Lims interface {
	AddProject(ctx context.Context, projectName string, samples []LimsSubmissionSample) (LimsProject, error)
	GetSamples(ctx context.Context, projectID string) ([]LimsSample, error)
	GetReceivedDate(ctx context.Context, sampleID string) (*time.Time, error)
	GetPreparedDate(ctx context.Context, sampleID string) (*time.Time, error)
	GetSequencedDate(ctx context.Context, sampleID string) (*time.Time, error)
	GetDeliveryDate(ctx context.Context, sampleID string) (*time.Time, error)
	GetSampleNumber(ctx context.Context, ticket int) (int, error)
	GetSamplesByTicket(ctx context.Context, ticket int) ([]LimsSample, error)
}

type LimsSample struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Udfs map[string]string `json:"udfs"`
}

type LimsSubmissionSample struct {
	Name          string            `json:"name"`
	Container     string            `json:"container"`
	ContainerName string            `json:"containerName,omitempty"`
	WellPosition  string            `json:"wellPosition,omitempty"`
	IndexSequence string            `json:"indexSequence,omitempty"`
	Udfs          map[string]string `json:"udfs"`
}

type lims struct {
	client  *resty.Client
	limsUrl string
}

type limsProjectTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
}

type limsCreateProjectTO struct {
	Name    string                 `json:"name"`
	Samples []LimsSubmissionSample `json:"samples"`
}

type limsDateTO struct {
	Date *string `json:"date"`
}

type limsCountTO struct {
	Count int `json:"count"`
}

func NewLimsClient(limsUrl string, restyClient *resty.Client) (Lims, error) {
	if limsUrl == "" {
		return nil, fmt.Errorf("basepath for lims must be set. check your configuration for LimsURL")
	}

	return &lims{
		client:  restyClient,
		limsUrl: strings.TrimRight(limsUrl, "/"),
	}, nil
}

func (l *lims) AddProject(ctx context.Context, projectName string, samples []LimsSubmissionSample) (LimsProject, error) {
	var project limsProjectTO
	resp, err := l.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(limsCreateProjectTO{Name: projectName, Samples: samples}).
		SetResult(&project).
		Post(l.limsUrl + "/api/v1/projects")
	if err != nil {
		log.Error().Err(err).Str("project", projectName).Msg("create lims project failed")
		return LimsProject{}, errors.Wrap(ErrLimsRequestFailed, err.Error())
	}
	if resp.IsError() {
		log.Error().Str("project", projectName).Int("status", resp.StatusCode()).Str("body", string(resp.Body())).Msg("create lims project failed")
		return LimsProject{}, errors.Wrapf(ErrLimsRequestFailed, "create project returned %s", resp.Status())
	}

	result := LimsProject{ID: project.ID, Name: project.Name}
	if project.Date != "" {
		date, err := utils.ParseDate(project.Date)
		if err != nil {
			log.Warn().Err(err).Str("project", project.ID).Msg("unparsable lims project date")
		} else {
			result.Date = date
		}
	}
	return result, nil
}

func (l *lims) GetSamples(ctx context.Context, projectID string) ([]LimsSample, error) {
	samples := make([]LimsSample, 0)
	resp, err := l.client.R().
		SetContext(ctx).
		SetResult(&samples).
		Get(fmt.Sprintf("%s/api/v1/projects/%s/samples", l.limsUrl, projectID))
	if err != nil {
		return nil, errors.Wrap(ErrLimsRequestFailed, err.Error())
	}
	if resp.IsError() {
		return nil, errors.Wrapf(ErrLimsRequestFailed, "get project samples returned %s", resp.Status())
	}
	return samples, nil
}

func (l *lims) GetReceivedDate(ctx context.Context, sampleID string) (*time.Time, error) {
	return l.getDate(ctx, sampleID, "received")
}

func (l *lims) GetPreparedDate(ctx context.Context, sampleID string) (*time.Time, error) {
	return l.getDate(ctx, sampleID, "prepared")
}

func (l *lims) GetSequencedDate(ctx context.Context, sampleID string) (*time.Time, error) {
	return l.getDate(ctx, sampleID, "sequenced")
}

func (l *lims) GetDeliveryDate(ctx context.Context, sampleID string) (*time.Time, error) {
	return l.getDate(ctx, sampleID, "delivered")
}

// getDate returns nil when the LIMS has no date for the step yet.
func (l *lims) getDate(ctx context.Context, sampleID, step string) (*time.Time, error) {
	var dateTO limsDateTO
	resp, err := l.client.R().
		SetContext(ctx).
		SetResult(&dateTO).
		Get(fmt.Sprintf("%s/api/v1/samples/%s/dates/%s", l.limsUrl, sampleID, step))
	if err != nil {
		return nil, errors.Wrap(ErrLimsRequestFailed, err.Error())
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, errors.Wrapf(ErrLimsRequestFailed, "get %s date of %s returned %s", step, sampleID, resp.Status())
	}
	if dateTO.Date == nil || *dateTO.Date == "" {
		return nil, nil
	}
	date, err := utils.ParseDate(*dateTO.Date)
	if err != nil {
		return nil, errors.Wrapf(ErrLimsRequestFailed, "unparsable %s date %q of %s", step, *dateTO.Date, sampleID)
	}
	return &date, nil
}

func (l *lims) GetSampleNumber(ctx context.Context, ticket int) (int, error) {
	var count limsCountTO
	resp, err := l.client.R().
		SetContext(ctx).
		SetResult(&count).
		Get(fmt.Sprintf("%s/api/v1/tickets/%d/sample-count", l.limsUrl, ticket))
	if err != nil {
		return 0, errors.Wrap(ErrLimsRequestFailed, err.Error())
	}
	if resp.IsError() {
		return 0, errors.Wrapf(ErrLimsRequestFailed, "get sample count of ticket %d returned %s", ticket, resp.Status())
	}
	return count.Count, nil
}

func (l *lims) GetSamplesByTicket(ctx context.Context, ticket int) ([]LimsSample, error) {
	samples := make([]LimsSample, 0)
	resp, err := l.client.R().
		SetContext(ctx).
		SetResult(&samples).
		Get(fmt.Sprintf("%s/api/v1/tickets/%d/samples", l.limsUrl, ticket))
	if err != nil {
		return nil, errors.Wrap(ErrLimsRequestFailed, err.Error())
	}
	if resp.IsError() {
		return nil, errors.Wrapf(ErrLimsRequestFailed, "get samples of ticket %d returned %s", ticket, resp.Status())
	}
	return samples, nil
}
