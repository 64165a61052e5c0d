package rpc

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/AndrewLester/ntpsync/pkg/ntpsync"
)

// Credentials of the process on the other end of the socket. Known is false
// when the platform cannot tell.
type Credentials struct {
	UID   uint32
	Known bool
}

func (c Credentials) String() string {
	if !c.Known {
		return "unknown peer"
	}
	return fmt.Sprintf("uid %d", c.UID)
}

// Reply is the wire form of ntpsync.Result.
type Reply struct {
	RequestID    string
	Hostname     string
	Status       ntpsync.Status
	Message      string
	Error        string
	OffsetMillis *int64
	NewTime      *time.Time
	AppliedTime  *time.Time
	Report       *ntpsync.DetailReport
}

func NewReply(result ntpsync.Result) Reply {
	reply := Reply{
		RequestID:    result.RequestID.String(),
		Hostname:     result.Hostname,
		Status:       result.Status,
		Message:      result.Status.Message(),
		OffsetMillis: result.OffsetMillis,
		NewTime:      result.NewTime,
		AppliedTime:  result.AppliedTime,
		Report:       result.Report,
	}
	if result.Err != nil {
		reply.Error = result.Err.Error()
	}
	return reply
}

type StateReply struct {
	State     string
	RequestID string
}

type Service struct {
	server *Server
	peer   Credentials
}

func (s *Service) canGetTime() bool {
	if len(s.server.GetTimeUIDs) == 0 {
		return true
	}
	return s.peer.Known && slices.Contains(s.server.GetTimeUIDs, s.peer.UID)
}

func (s *Service) canSetTime() bool {
	if !s.peer.Known {
		return false
	}
	if len(s.server.SetTimeUIDs) == 0 {
		return s.peer.UID == 0
	}
	return slices.Contains(s.server.SetTimeUIDs, s.peer.UID)
}

func (s *Service) denied(host, permission string) Reply {
	info("Denied", permission, "to", s.peer)
	return Reply{
		Hostname: host,
		Status:   ntpsync.StatusGenericError,
		Message:  ntpsync.StatusGenericError.Message(),
		Error:    fmt.Sprintf("%s is not allowed to %s", s.peer, permission),
	}
}

func (s *Service) sync(trigger ntpsync.Trigger, reply *Reply) error {
	result := <-s.server.Syncer.Trigger(context.Background(), trigger)
	*reply = NewReply(result)
	return nil
}

// GetOffset queries host, or the configured server when host is empty,
// without touching the clock.
func (s *Service) GetOffset(host string, reply *Reply) error {
	if !s.canGetTime() {
		*reply = s.denied(host, "get the time")
		return nil
	}
	return s.sync(ntpsync.Trigger{Action: ntpsync.QuickQuery, Hostname: host, Source: ntpsync.Manual}, reply)
}

func (s *Service) SetTime(host string, reply *Reply) error {
	if !s.canSetTime() {
		*reply = s.denied(host, "set the time")
		return nil
	}
	return s.sync(ntpsync.Trigger{Action: ntpsync.QueryAndApply, Hostname: host, ApplyDirectly: true, Source: ntpsync.Manual}, reply)
}

func (s *Service) DetailedQuery(host string, reply *Reply) error {
	if !s.canGetTime() {
		*reply = s.denied(host, "get the time")
		return nil
	}
	return s.sync(ntpsync.Trigger{Action: ntpsync.DetailedQuery, Hostname: host, Source: ntpsync.Manual}, reply)
}

func (s *Service) State(_ int, reply *StateReply) error {
	state := s.server.Syncer.State()
	reply.State = state.Kind.String()
	if state.Kind != ntpsync.Idle {
		reply.RequestID = state.RequestID.String()
	}
	return nil
}
