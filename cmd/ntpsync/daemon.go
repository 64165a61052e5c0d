package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/AndrewLester/ntpsync/internal/netgate"
	"github.com/AndrewLester/ntpsync/internal/rpc"
	"github.com/AndrewLester/ntpsync/internal/wakelock"
	"github.com/AndrewLester/ntpsync/pkg/ntpsync"
	"github.com/sevlyar/go-daemon"
	"golang.org/x/sync/errgroup"
)

const daemonName = "ntpsyncd"

var daemonCtx = &daemon.Context{
	PidFileName: fmt.Sprintf("/var/run/%s.pid", daemonName),
	PidFilePerm: 0644,
	LogFileName: fmt.Sprintf("/var/log/%s.log", daemonName),
	LogFilePerm: 0640,
	WorkDir:     "./",
	Umask:       027,
	Args:        append([]string{daemonName}, os.Args[1:]...),
}

func killDaemon() {
	daemon, err := daemonCtx.Search()
	if err != nil {
		log.Fatalf("Error finding daemon: %v", err)
	}

	err = syscall.Kill(daemon.Pid, syscall.SIGTERM)
	if err != nil {
		log.Fatal("Couldn't stop ntpsync daemon.")
	}
}

// runDaemon serves the socket, watches connectivity and runs the daily
// schedule until SIGTERM or SIGINT.
func runDaemon(config *ntpsync.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	monitor := &netgate.Monitor{Interval: config.PollIntervalDuration()}

	options := config.Options()
	options.Gate = monitor
	options.WakeLock = &wakelock.SysfsLocker{Name: config.WakeLock}
	options.Notify = func(result ntpsync.Result) {
		if result.Err != nil {
			log.Printf("sync %s of %s: %s: %v", result.RequestID, result.Hostname, result.Status, result.Err)
			return
		}
		log.Printf("sync %s of %s: %s", result.RequestID, result.Hostname, result.Status)
	}
	orchestrator := ntpsync.New(options)
	defer orchestrator.Wait()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return monitor.Run(ctx)
	})

	server := &rpc.Server{
		Socket:      config.Socket,
		Syncer:      orchestrator,
		GetTimeUIDs: config.GetTimeUIDs,
		SetTimeUIDs: config.SetTimeUIDs,
	}
	group.Go(func() error {
		return server.Listen(ctx)
	})

	if config.SyncDaily {
		hour, minute, err := ntpsync.ParseDailyAt(config.DailyAt)
		if err != nil {
			return err
		}
		scheduler := &ntpsync.Scheduler{Hour: hour, Minute: minute}
		group.Go(func() error {
			return scheduler.Run(ctx, func() {
				orchestrator.Trigger(ctx, config.PassiveTrigger(ntpsync.Daily))
			})
		})
	}

	if config.SyncOnStart {
		orchestrator.Trigger(ctx, config.PassiveTrigger(ntpsync.Daily))
	}

	err := group.Wait()
	if errors.Is(err, context.Canceled) {
		log.Print("daemon stopped")
		return nil
	}
	return err
}
