package labops

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// TicketClient opens support tickets for incoming orders. Every failure wraps ErrTicketCreation.
type TicketClient interface {
	OpenTicket(ctx context.Context, name, email, subject, message string) (int, error)
}

type osTicket struct {
	client    *resty.Client
	ticketUrl string
	apiKey    string
}

type openTicketTO struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func NewTicketClient(ticketUrl, apiKey string, restyClient *resty.Client) (TicketClient, error) {
	if ticketUrl == "" {
		return nil, fmt.Errorf("basepath for the ticket system must be set. check your configuration for TicketURL")
	}
	return &osTicket{
		client:    restyClient,
		ticketUrl: strings.TrimRight(ticketUrl, "/"),
		apiKey:    apiKey,
	}, nil
}

func (t *osTicket) OpenTicket(ctx context.Context, name, email, subject, message string) (int, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("X-API-Key", t.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(openTicketTO{Name: name, Email: email, Subject: subject, Message: message}).
		Post(t.ticketUrl + "/api/tickets.json")
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg(MsgTicketCreation)
		return 0, errors.Wrap(ErrTicketCreation, err.Error())
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", string(resp.Body())).Msg(MsgTicketCreation)
		return 0, errors.Wrapf(ErrTicketCreation, "ticket system returned %s", resp.Status())
	}

	ticket, err := strconv.Atoi(strings.TrimSpace(string(resp.Body())))
	if err != nil {
		return 0, errors.Wrapf(ErrTicketCreation, "unexpected ticket number %q", string(resp.Body()))
	}
	return ticket, nil
}
