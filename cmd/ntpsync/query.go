package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/AndrewLester/ntpsync/internal/netgate"
	"github.com/AndrewLester/ntpsync/internal/rpc"
	"github.com/AndrewLester/ntpsync/internal/sugar"
	"github.com/AndrewLester/ntpsync/internal/ui"
	"github.com/AndrewLester/ntpsync/internal/wakelock"
	"github.com/AndrewLester/ntpsync/pkg/ntpsync"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type queryRequest struct {
	host   string
	action ntpsync.Action
	remote bool
}

func handleQueryCommand(ctx context.Context, config *ntpsync.Config, request queryRequest) {
	m := newQueryCommandModel(request, func() (*outcome, error) {
		if request.remote {
			return remoteQuery(config, request)
		}
		return localQuery(ctx, config, request), nil
	})

	resultModel, err := sugar.RunProgramWithErrors(ctx, m)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if final, ok := resultModel.(queryCommandModel); ok && final.outcome != nil && !final.outcome.ok {
		os.Exit(1)
	}
}

type outcome struct {
	ok   bool
	text string
}

func localQuery(ctx context.Context, config *ntpsync.Config, request queryRequest) *outcome {
	options := config.Options()
	options.Gate = &netgate.Monitor{}
	options.WakeLock = &wakelock.SysfsLocker{Name: config.WakeLock}
	orchestrator := ntpsync.New(options)

	result := <-orchestrator.Trigger(ctx, ntpsync.Trigger{
		Action:        request.action,
		Hostname:      request.host,
		ApplyDirectly: request.action == ntpsync.QueryAndApply,
		Source:        ntpsync.Manual,
	})
	orchestrator.Wait()

	return render(result.Status, result.Hostname, result.OffsetMillis, result.NewTime, result.AppliedTime, result.Report)
}

func remoteQuery(config *ntpsync.Config, request queryRequest) (*outcome, error) {
	client, err := rpc.Dial(config.Socket)
	if err != nil {
		return nil, fmt.Errorf("connecting to ntpsync daemon: %w", err)
	}
	defer client.Close()

	var reply *rpc.Reply
	switch request.action {
	case ntpsync.QueryAndApply:
		reply, err = client.SetTime(request.host)
	case ntpsync.DetailedQuery:
		reply, err = client.DetailedQuery(request.host)
	default:
		reply, err = client.GetOffset(request.host)
	}
	if err != nil {
		return nil, err
	}
	return render(reply.Status, reply.Hostname, reply.OffsetMillis, reply.NewTime, reply.AppliedTime, reply.Report), nil
}

func render(status ntpsync.Status, hostname string, offsetMillis *int64, newTime, appliedTime *time.Time, report *ntpsync.DetailReport) *outcome {
	text := ui.Outcome(status, hostname, offsetMillis, newTime, appliedTime)
	if report != nil {
		text = ui.Report(report) + "\n" + text
	}
	return &outcome{ok: status == ntpsync.StatusOk, text: text}
}

type queryCommandModel struct {
	spinner spinner.Model
	request queryRequest
	run     func() (*outcome, error)
	outcome *outcome
	err     error
}

type queryDoneMessage *outcome
type queryErrorMessage error

func newQueryCommandModel(request queryRequest, run func() (*outcome, error)) queryCommandModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return queryCommandModel{spinner: s, request: request, run: run}
}

func queryCommand(run func() (*outcome, error)) tea.Cmd {
	return func() tea.Msg {
		result, err := run()
		if err != nil {
			return queryErrorMessage(err)
		}
		return queryDoneMessage(result)
	}
}

func (m queryCommandModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, queryCommand(m.run))
}

func (m queryCommandModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	case queryDoneMessage:
		m.outcome = msg
		return m, tea.Quit
	case queryErrorMessage:
		m.err = msg
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m queryCommandModel) View() (s string) {
	if m.err != nil {
		return
	}

	if m.outcome == nil {
		host := m.request.host
		if host == "" {
			host = "the configured server"
		}
		s += ui.Title("ntpsync - "+m.request.action.String()) + "\n\n"
		s += m.spinner.View() + " Asking " + host + "\n\n"
		s += ui.Help("q: exit") + "\n"
	} else {
		s += m.outcome.text + "\n"
	}
	return
}

func (m queryCommandModel) GetError() error {
	return m.err
}
