package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/mod/semver"

	"github.com/ralphkit/ralphkit/internal/review"
	"github.com/ralphkit/ralphkit/internal/session"
	"github.com/ralphkit/ralphkit/internal/statefile"
	"github.com/ralphkit/ralphkit/internal/storage"
	"github.com/ralphkit/ralphkit/internal/types"
	"github.com/ralphkit/ralphkit/internal/workflow"
)

// ServerVersion is the version of this RPC server.
// It should match the rk CLI version for proper compatibility checks.
// It's set as a var so it can be initialized from main.
var ServerVersion = "0.3.0"

// Server represents the RPC server that runs in the daemon
type Server struct {
	socketPath string
	storage    storage.Storage
	listener   net.Listener

	mu           sync.RWMutex
	shutdown     bool
	shutdownChan chan struct{}
	stopOnce     sync.Once
	doneChan     chan struct{}
	readyChan    chan struct{}

	startTime time.Time

	// Connection limiting
	maxConns      int
	connSemaphore chan struct{}

	requestTimeout time.Duration
}

// NewServer creates a new RPC server
func NewServer(socketPath string, store storage.Storage) *Server {
	maxConns := 100
	if env := os.Getenv("RK_DAEMON_MAX_CONNS"); env != "" {
		var conns int
		if _, err := fmt.Sscanf(env, "%d", &conns); err == nil && conns > 0 {
			maxConns = conns
		}
	}

	requestTimeout := 30 * time.Second
	if env := os.Getenv("RK_DAEMON_REQUEST_TIMEOUT"); env != "" {
		if timeout, err := time.ParseDuration(env); err == nil && timeout > 0 {
			requestTimeout = timeout
		}
	}

	return &Server{
		socketPath:     socketPath,
		storage:        store,
		shutdownChan:   make(chan struct{}),
		doneChan:       make(chan struct{}),
		readyChan:      make(chan struct{}),
		startTime:      time.Now(),
		maxConns:       maxConns,
		connSemaphore:  make(chan struct{}, maxConns),
		requestTimeout: requestTimeout,
	}
}

// Start starts the RPC server and listens for connections
func (s *Server) Start(_ context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return fmt.Errorf("failed to ensure socket directory: %w", err)
	}
	if err := s.removeOldSocket(); err != nil {
		return fmt.Errorf("failed to remove old socket: %w", err)
	}

	listener, err := listenRPC(s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to initialize RPC listener: %w", err)
	}

	// Socket is owner-only
	if runtime.GOOS != "windows" {
		if err := os.Chmod(s.socketPath, 0o600); err != nil {
			_ = listener.Close()
			return fmt.Errorf("failed to set socket permissions: %w", err)
		}
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	close(s.readyChan)

	go s.handleSignals()

	defer close(s.doneChan)

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.RLock()
			shutdown := s.shutdown
			s.mu.RUnlock()
			if shutdown {
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		select {
		case s.connSemaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-s.connSemaphore }()
				s.handleConnection(c)
			}(conn)
		default:
			_ = json.NewEncoder(conn).Encode(NewErrorResponse(
				fmt.Errorf("daemon at connection limit (%d)", s.maxConns)))
			_ = conn.Close()
		}
	}
}

// WaitReady returns a channel closed once the server is accepting connections
func (s *Server) WaitReady() <-chan struct{} {
	return s.readyChan
}

// Stop shuts the server down and removes the socket
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.shutdown = true
		listener := s.listener
		s.mu.Unlock()

		close(s.shutdownChan)
		if listener != nil {
			_ = listener.Close()
			<-s.doneChan
		}
		_ = os.Remove(s.socketPath)
	})
	return nil
}

func (s *Server) removeOldSocket() error {
	if endpointExists(s.socketPath) {
		// A live daemon on this socket means we must not steal it
		if conn, err := dialRPC(s.socketPath, time.Second); err == nil {
			_ = conn.Close()
			return fmt.Errorf("daemon already running on %s", s.socketPath)
		}
		return os.Remove(s.socketPath)
	}
	return nil
}

func (s *Server) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, shutdownSignals()...)
	select {
	case <-sigChan:
		_ = s.Stop()
	case <-s.shutdownChan:
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.requestTimeout)); err != nil {
			return
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(writer, *NewErrorResponse(fmt.Errorf("invalid request: %v", err)))
			continue
		}

		if err := conn.SetWriteDeadline(time.Now().Add(s.requestTimeout)); err != nil {
			return
		}

		resp := s.handleRequest(&req)
		s.writeResponse(writer, resp)
	}
}

func (s *Server) writeResponse(writer *bufio.Writer, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(NewErrorResponse(fmt.Errorf("failed to marshal response: %v", err)))
	}
	_, _ = writer.Write(data)
	_ = writer.WriteByte('\n')
	_ = writer.Flush()
}

// checkVersionCompatibility validates client version against server version
func (s *Server) checkVersionCompatibility(clientVersion string) error {
	if clientVersion == "" {
		return nil
	}

	serverVer := ServerVersion
	if !strings.HasPrefix(serverVer, "v") {
		serverVer = "v" + serverVer
	}
	clientVer := clientVersion
	if !strings.HasPrefix(clientVer, "v") {
		clientVer = "v" + clientVer
	}

	// Invalid semver (dev builds) is allowed through
	if !semver.IsValid(serverVer) || !semver.IsValid(clientVer) {
		return nil
	}

	if semver.Major(serverVer) != semver.Major(clientVer) {
		return fmt.Errorf("incompatible major versions: client %s, daemon %s. Restart the daemon: 'rk daemon --stop && rk daemon'",
			clientVersion, ServerVersion)
	}
	if semver.Compare(serverVer, clientVer) < 0 {
		return fmt.Errorf("daemon %s is older than client %s. Restart the daemon: 'rk daemon --stop && rk daemon'",
			ServerVersion, clientVersion)
	}
	return nil
}

func (s *Server) handleRequest(req *Request) Response {
	if req.Operation != OpPing && req.Operation != OpHealth {
		if err := s.checkVersionCompatibility(req.ClientVersion); err != nil {
			return *NewErrorResponse(err)
		}
	}

	switch req.Operation {
	case OpPing:
		return s.handlePing(req)
	case OpHealth:
		return s.handleHealth(req)
	case OpTicketCreate:
		return s.handleTicketCreate(req)
	case OpTicketShow:
		return s.handleTicketShow(req)
	case OpTicketList:
		return s.handleTicketList(req)
	case OpTicketDelete:
		return s.handleTicketDelete(req)
	case OpStartWork:
		return s.handleStartWork(req)
	case OpCompleteWork:
		return s.handleCompleteWork(req)
	case OpLinkCommit:
		return s.handleLinkCommit(req)
	case OpFindingSubmit:
		return s.handleFindingSubmit(req)
	case OpFindingFix:
		return s.handleFindingFix(req)
	case OpFindingList:
		return s.handleFindingList(req)
	case OpDemoGenerate:
		return s.handleDemoGenerate(req)
	case OpDemoFeedback:
		return s.handleDemoFeedback(req)
	case OpSessionCreate:
		return s.handleSessionCreate(req)
	case OpSessionUpdate:
		return s.handleSessionUpdate(req)
	case OpSessionComplete:
		return s.handleSessionComplete(req)
	case OpSessionShow:
		return s.handleSessionShow(req)
	default:
		return *NewErrorResponse(fmt.Errorf("unknown operation: %s", req.Operation))
	}
}

func (s *Server) reqCtx(_ *Request) context.Context {
	return context.Background()
}

func (s *Server) reqActor(req *Request) string {
	if req != nil && req.Actor != "" {
		return req.Actor
	}
	return "daemon"
}

// sessionManagerFor builds a session manager mirroring into the ticket's
// project directory. Tickets without a project get no mirror channel.
func (s *Server) sessionManagerFor(ctx context.Context, ticketID string) (*session.Manager, error) {
	ticket, err := s.storage.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	var channel statefile.Channel
	if ticket.ProjectID != "" {
		project, err := s.storage.GetProject(ctx, ticket.ProjectID)
		if err != nil {
			return nil, err
		}
		channel = statefile.DefaultChannel(project.Path)
	}
	return session.NewManager(s.storage, channel), nil
}

func (s *Server) handlePing(_ *Request) Response {
	resp, _ := NewSuccessResponse(PingResponse{Message: "pong", Version: ServerVersion})
	return *resp
}

func (s *Server) handleHealth(_ *Request) Response {
	start := time.Now()

	healthCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	status := "healthy"
	dbError := ""
	_, pingErr := s.storage.ListProjects(healthCtx)
	dbResponseMs := time.Since(start).Seconds() * 1000

	if pingErr != nil {
		status = "unhealthy"
		dbError = pingErr.Error()
	} else if dbResponseMs > 500 {
		status = "degraded"
	}

	resp, _ := NewSuccessResponse(HealthResponse{
		Status:       status,
		Version:      ServerVersion,
		Uptime:       time.Since(s.startTime).Seconds(),
		DBResponseMs: dbResponseMs,
		Error:        dbError,
	})
	if status == "unhealthy" {
		resp.Success = false
		resp.Error = dbError
	}
	return *resp
}

func (s *Server) handleTicketCreate(req *Request) Response {
	var args TicketCreateArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}

	ticket := &types.Ticket{
		Title:       args.Title,
		Description: args.Description,
		Priority:    args.Priority,
		ProjectID:   args.ProjectID,
		EpicID:      args.EpicID,
	}
	if err := s.storage.CreateTicket(s.reqCtx(req), ticket); err != nil {
		return *NewErrorResponse(err)
	}
	resp, err := NewSuccessResponse(ticket)
	if err != nil {
		return *NewErrorResponse(err)
	}
	return *resp
}

func (s *Server) handleTicketShow(req *Request) Response {
	var args TicketShowArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}
	ticket, err := s.storage.GetTicket(s.reqCtx(req), args.ID)
	if err != nil {
		return *NewErrorResponse(err)
	}
	resp, err := NewSuccessResponse(ticket)
	if err != nil {
		return *NewErrorResponse(err)
	}
	return *resp
}

func (s *Server) handleTicketList(req *Request) Response {
	var args TicketListArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}
	filter := types.TicketFilter{Limit: args.Limit}
	if args.ProjectID != "" {
		filter.ProjectID = &args.ProjectID
	}
	if args.Status != "" {
		filter.Status = &args.Status
	}
	tickets, err := s.storage.ListTickets(s.reqCtx(req), filter)
	if err != nil {
		return *NewErrorResponse(err)
	}
	resp, err := NewSuccessResponse(tickets)
	if err != nil {
		return *NewErrorResponse(err)
	}
	return *resp
}

func (s *Server) handleTicketDelete(req *Request) Response {
	var args TicketShowArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}
	if err := s.storage.DeleteTicket(s.reqCtx(req), args.ID); err != nil {
		return *NewErrorResponse(err)
	}
	resp, _ := NewSuccessResponse(map[string]string{"deleted": args.ID})
	return *resp
}

func (s *Server) handleStartWork(req *Request) Response {
	var args StartWorkArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}
	svc := workflow.NewService(s.storage, s.reqActor(req))
	result, err := svc.StartWork(s.reqCtx(req), args.TicketID)
	if err != nil {
		return *NewErrorResponse(err)
	}
	resp, err := NewSuccessResponse(result)
	if err != nil {
		return *NewErrorResponse(err)
	}
	return *resp
}

func (s *Server) handleCompleteWork(req *Request) Response {
	var args CompleteWorkArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}
	svc := workflow.NewService(s.storage, s.reqActor(req))
	result, err := svc.CompleteWork(s.reqCtx(req), args.TicketID, args.Summary)
	if err != nil {
		return *NewErrorResponse(err)
	}
	resp, err := NewSuccessResponse(result)
	if err != nil {
		return *NewErrorResponse(err)
	}
	return *resp
}

func (s *Server) handleLinkCommit(req *Request) Response {
	var args LinkCommitArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}
	svc := workflow.NewService(s.storage, s.reqActor(req))
	added, err := svc.LinkCommit(s.reqCtx(req), args.TicketID, args.Hash, args.Message)
	if err != nil {
		return *NewErrorResponse(err)
	}
	resp, _ := NewSuccessResponse(map[string]bool{"added": added})
	return *resp
}

func (s *Server) handleFindingSubmit(req *Request) Response {
	var args FindingSubmitArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}
	gate := review.NewGate(s.storage, s.reqActor(req))
	result, err := gate.SubmitFinding(s.reqCtx(req), &types.Finding{
		TicketID:    args.TicketID,
		Severity:    args.Severity,
		Category:    args.Category,
		Description: args.Description,
	})
	if err != nil {
		return *NewErrorResponse(err)
	}
	resp, err := NewSuccessResponse(result)
	if err != nil {
		return *NewErrorResponse(err)
	}
	return *resp
}

func (s *Server) handleFindingFix(req *Request) Response {
	var args FindingFixArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}
	gate := review.NewGate(s.storage, s.reqActor(req))
	result, err := gate.MarkFixed(s.reqCtx(req), args.FindingID)
	if err != nil {
		return *NewErrorResponse(err)
	}
	resp, err := NewSuccessResponse(result)
	if err != nil {
		return *NewErrorResponse(err)
	}
	return *resp
}

func (s *Server) handleFindingList(req *Request) Response {
	var args FindingListArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}
	findings, err := s.storage.ListFindings(s.reqCtx(req), args.TicketID)
	if err != nil {
		return *NewErrorResponse(err)
	}
	resp, err := NewSuccessResponse(findings)
	if err != nil {
		return *NewErrorResponse(err)
	}
	return *resp
}

func (s *Server) handleDemoGenerate(req *Request) Response {
	var args DemoGenerateArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}
	gate := review.NewGate(s.storage, s.reqActor(req))
	result, err := gate.GenerateDemoScript(s.reqCtx(req), args.TicketID, args.Steps)
	if err != nil {
		return *NewErrorResponse(err)
	}
	resp, err := NewSuccessResponse(result)
	if err != nil {
		return *NewErrorResponse(err)
	}
	return *resp
}

func (s *Server) handleDemoFeedback(req *Request) Response {
	var args DemoFeedbackArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}
	gate := review.NewFeedbackGate(s.storage, s.reqActor(req))
	result, err := gate.SubmitFeedback(s.reqCtx(req), args.TicketID, args.Passed, args.Feedback)
	if err != nil {
		return *NewErrorResponse(err)
	}
	resp, err := NewSuccessResponse(result)
	if err != nil {
		return *NewErrorResponse(err)
	}
	return *resp
}

func (s *Server) handleSessionCreate(req *Request) Response {
	var args SessionCreateArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}
	ctx := s.reqCtx(req)
	mgr, err := s.sessionManagerFor(ctx, args.TicketID)
	if err != nil {
		return *NewErrorResponse(err)
	}
	result, err := mgr.Create(ctx, args.TicketID)
	if err != nil {
		return *NewErrorResponse(err)
	}
	resp, err := NewSuccessResponse(result)
	if err != nil {
		return *NewErrorResponse(err)
	}
	return *resp
}

func (s *Server) handleSessionUpdate(req *Request) Response {
	var args SessionUpdateArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}
	ctx := s.reqCtx(req)
	mgr, err := s.managerForSession(ctx, args.SessionID)
	if err != nil {
		return *NewErrorResponse(err)
	}
	result, err := mgr.UpdateState(ctx, args.SessionID, args.State, args.Metadata)
	if err != nil {
		return *NewErrorResponse(err)
	}
	resp, err := NewSuccessResponse(result)
	if err != nil {
		return *NewErrorResponse(err)
	}
	return *resp
}

func (s *Server) handleSessionComplete(req *Request) Response {
	var args SessionCompleteArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}
	ctx := s.reqCtx(req)
	mgr, err := s.managerForSession(ctx, args.SessionID)
	if err != nil {
		return *NewErrorResponse(err)
	}
	result, err := mgr.Complete(ctx, args.SessionID, args.Outcome, args.ErrorMessage)
	if err != nil {
		return *NewErrorResponse(err)
	}
	resp, err := NewSuccessResponse(result)
	if err != nil {
		return *NewErrorResponse(err)
	}
	return *resp
}

func (s *Server) handleSessionShow(req *Request) Response {
	var args SessionShowArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return *NewErrorResponse(fmt.Errorf("invalid args: %w", err))
	}
	sess, err := s.storage.GetSession(s.reqCtx(req), args.SessionID)
	if err != nil {
		return *NewErrorResponse(err)
	}
	resp, err := NewSuccessResponse(sess)
	if err != nil {
		return *NewErrorResponse(err)
	}
	return *resp
}

func (s *Server) managerForSession(ctx context.Context, sessionID string) (*session.Manager, error) {
	sess, err := s.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionManagerFor(ctx, sess.TicketID)
}
