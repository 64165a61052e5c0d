package main

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/AndrewLester/ntpsync/internal/rpc"
	"github.com/AndrewLester/ntpsync/internal/templates"
)

// daemonClient is the part of *rpc.Client the site uses.
type daemonClient interface {
	DetailedQuery(host string) (*rpc.Reply, error)
	GetOffset(host string) (*rpc.Reply, error)
	SetTime(host string) (*rpc.Reply, error)
	Close() error
}

// authorized reports whether r carries "Authorization: Bearer <token>". An
// empty token authorizes nobody.
func authorized(r *http.Request, token string) bool {
	if token == "" {
		return false
	}
	given, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(given), []byte(token)) == 1
}

// newSite serves the report page and /sync. /sync only sets the clock for
// requests bearing token; without a token configured it reports the offset.
func newSite(dial func() (daemonClient, error), token string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		page := templates.ReportPage{Hostname: r.URL.Query().Get("host")}

		client, err := dial()
		if err != nil {
			log.Println("dial daemon:", err)
			page.Error = "The ntpsync daemon is not running."
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			defer client.Close()
			reply, err := client.DetailedQuery(page.Hostname)
			if err != nil {
				page.Error = err.Error()
				w.WriteHeader(http.StatusBadGateway)
			} else {
				page.Reply = reply
			}
		}

		if err := templates.RenderReport(w, page); err != nil {
			log.Println("render:", err)
		}
	})

	mux.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		setTime := token != ""
		if setTime && !authorized(r, token) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		client, err := dial()
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		defer client.Close()

		host := r.URL.Query().Get("host")
		var reply *rpc.Reply
		if setTime {
			reply, err = client.SetTime(host)
		} else {
			reply, err = client.GetOffset(host)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reply)
	})

	return mux
}
