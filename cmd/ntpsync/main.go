package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/AndrewLester/ntpsync/pkg/ntpsync"
	"github.com/sevlyar/go-daemon"
)

func main() {
	var configPath string
	var query string
	var detailed bool
	var set bool
	var remote bool
	var socket string
	var noDaemon bool
	var stop bool
	flag.StringVar(&configPath, "config", ntpsync.DefaultConfigPath, "Path to the ntpsync config file.")
	flag.StringVar(&query, "query", "", "Server to query. Defaults to the configured server.")
	flag.StringVar(&query, "q", query, "Server to query. Defaults to the configured server.")
	flag.BoolVar(&detailed, "detailed", false, "Show the full server report.")
	flag.BoolVar(&set, "set", false, "Set the system clock from the server.")
	flag.BoolVar(&remote, "remote", false, "Send the query through the running daemon.")
	flag.StringVar(&socket, "socket", "", "Path to the daemon's unix socket.")
	flag.BoolVar(&noDaemon, "no-daemon", false, "Don't run ntpsync as a daemon.")
	flag.BoolVar(&stop, "stop", false, "Stop the running daemon.")
	flag.Parse()

	config, err := ntpsync.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if socket != "" {
		config.Socket = socket
	}

	if stop {
		killDaemon()
		fmt.Println("Successfully stopped ntpsync daemon.")
		return
	}

	if query != "" || detailed || set || remote {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
		defer cancel()
		handleQueryCommand(ctx, config, queryRequest{
			host:   query,
			action: actionFor(detailed, set),
			remote: remote,
		})
		return
	}

	if !noDaemon {
		d, err := daemonCtx.Reborn()
		if err != nil {
			if errors.Is(err, daemon.ErrWouldBlock) {
				fmt.Println("ntpsync daemon is already running, stop it with -stop.")
				os.Exit(1)
			}
			log.Fatal("Unable to run: ", err)
		}
		if d != nil {
			fmt.Printf("Daemon process (%s, %d) started successfully.\n", daemonName, d.Pid)
			return
		}
		defer daemonCtx.Release()

		log.Print("- - - - - - - - - - - - - - -")
		log.Print("daemon started", os.Args)
	}

	if err := runDaemon(config); err != nil {
		log.Fatal(err)
	}
}

func actionFor(detailed, set bool) ntpsync.Action {
	switch {
	case set:
		return ntpsync.QueryAndApply
	case detailed:
		return ntpsync.DetailedQuery
	}
	return ntpsync.QuickQuery
}
