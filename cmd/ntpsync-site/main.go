package main

import (
	"log"
	"net"
	"net/http"
	"os"

	"github.com/AndrewLester/ntpsync/internal/rpc"
	"github.com/AndrewLester/ntpsync/pkg/ntpsync"
)

func main() {
	port := os.Getenv("SITE_PORT")
	if port == "" {
		port = "8080"
	}
	socket := os.Getenv("NTPSYNC_SOCKET")
	if socket == "" {
		socket = ntpsync.DefaultSocket
	}

	handler := newSite(func() (daemonClient, error) {
		client, err := rpc.Dial(socket)
		if err != nil {
			return nil, err
		}
		return client, nil
	}, os.Getenv("SITE_TOKEN"))

	host := os.Getenv("SITE_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	log.Println("listening on", net.JoinHostPort(host, port))

	log.Fatal(http.ListenAndServe(net.JoinHostPort(host, port), handler))
}
