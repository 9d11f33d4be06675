// Package pathfinder serves modulation path requests over NATS.
//
// Requests arrive on a queue subscription, are answered on the message's
// reply subject, and every successful progression is also published on the
// issued subject for downstream playback.
package pathfinder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/c360studio/modulator/export"
	"github.com/c360studio/modulator/modulation"
	"github.com/c360studio/modulator/storage"
	"github.com/c360studio/modulator/theory"
)

// Conn is the part of *nats.Conn the component uses.
type Conn interface {
	Publish(subj string, data []byte) error
	QueueSubscribe(subj, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// PathFinder answers modulation queries. *modulation.Engine implements it.
type PathFinder interface {
	FindChordPath(ctx context.Context, start, dest theory.Key) (*modulation.Progression, error)
}

// Recorder stores issued progressions. *storage.Store implements it.
type Recorder interface {
	Record(ctx context.Context, rec *storage.ProgressionRecord) (string, error)
}

// Option configures a Component.
type Option func(*Component)

// WithLogger sets the component logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Component) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder stores every successful progression, tagged with the graph
// fingerprint.
func WithRecorder(r Recorder, fingerprint string) Option {
	return func(c *Component) {
		c.recorder = r
		c.fingerprint = fingerprint
	}
}

// HealthStatus is a point-in-time view of the component.
type HealthStatus struct {
	Healthy          bool          `json:"healthy"`
	Status           string        `json:"status"`
	Uptime           time.Duration `json:"uptime"`
	QueriesProcessed int64         `json:"queries_processed"`
	ErrorCount       int64         `json:"error_count"`
	LastActivity     time.Time     `json:"last_activity"`
}

// Component implements the path-finder processor
type Component struct {
	name        string
	config      Config
	finder      PathFinder
	conn        Conn
	recorder    Recorder
	fingerprint string
	logger      *slog.Logger

	mu  sync.RWMutex
	sub *nats.Subscription

	// Lifecycle management
	running   bool
	startTime time.Time
	ctx       context.Context
	cancel    context.CancelFunc

	// Metrics
	queriesProcessed int64
	errorCount       int64
	lastQuery        time.Time
}

// NewComponent creates a new path-finder component
func NewComponent(config Config, finder PathFinder, conn Conn, opts ...Option) (*Component, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if finder == nil {
		return nil, fmt.Errorf("path finder required")
	}

	c := &Component{
		name:   "path-finder",
		config: config,
		finder: finder,
		conn:   conn,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start subscribes to the request subject
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("component already running")
	}

	if c.conn == nil {
		return fmt.Errorf("NATS connection required")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	sub, err := c.conn.QueueSubscribe(c.config.RequestSubject, c.config.QueueGroup, c.handleMsg)
	if err != nil {
		c.cancel()
		return fmt.Errorf("subscribe %s: %w", c.config.RequestSubject, err)
	}
	c.sub = sub

	c.running = true
	c.startTime = time.Now()

	c.logger.Info("Path finder started",
		"subject", c.config.RequestSubject,
		"queue", c.config.QueueGroup,
		"issued_subject", c.config.IssuedSubject,
		"recording", c.recorder != nil)

	return nil
}

// Stop gracefully stops the component
func (c *Component) Stop(_ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	var err error
	if c.sub != nil {
		if uerr := c.sub.Unsubscribe(); uerr != nil {
			err = fmt.Errorf("unsubscribe: %w", uerr)
		}
		c.sub = nil
	}
	c.cancel()

	c.running = false
	c.logger.Info("Path finder stopped",
		"queries", c.queriesProcessed,
		"errors", c.errorCount)

	return err
}

// handleMsg decodes one request, answers it on the reply subject and
// publishes the issued progression.
func (c *Component) handleMsg(msg *nats.Msg) {
	c.mu.RLock()
	parent := c.ctx
	c.mu.RUnlock()
	if parent == nil {
		parent = context.Background()
	}

	var req PathRequest
	var resp *PathResponse
	var progression *modulation.Progression

	if err := json.Unmarshal(msg.Data, &req); err != nil {
		c.logger.Warn("Invalid path request", "error", err)
		resp = NewErrorResponse("", ErrorInvalidRequest, fmt.Sprintf("decode request: %v", err))
		c.observe(resp, nil)
	} else {
		ctx := parent
		if c.config.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(parent, c.config.RequestTimeout)
			defer cancel()
		}
		resp, progression = c.handle(ctx, &req)
	}

	if msg.Reply != "" {
		c.publish(msg.Reply, resp)
	}

	if progression != nil && c.config.IssuedSubject != "" {
		c.publish(c.config.IssuedSubject, &IssuedProgression{
			RequestID:   resp.RequestID,
			RecordID:    resp.RecordID,
			Progression: resp.Progression,
			IssuedAt:    time.Now().UTC(),
		})
	}
}

// Handle answers a single request without any transport.
func (c *Component) Handle(ctx context.Context, req *PathRequest) *PathResponse {
	resp, _ := c.handle(ctx, req)
	return resp
}

func (c *Component) handle(ctx context.Context, req *PathRequest) (*PathResponse, *modulation.Progression) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	resp, p := c.execute(ctx, requestID, req)
	resp.QueryTime = time.Since(start)

	c.observe(resp, p)
	return resp, p
}

func (c *Component) execute(ctx context.Context, requestID string, req *PathRequest) (*PathResponse, *modulation.Progression) {
	startKey, err := theory.ParseKeyString(req.Start)
	if err != nil {
		return NewErrorResponse(requestID, ErrorInvalidRequest, fmt.Sprintf("start: %v", err)), nil
	}
	destKey, err := theory.ParseKeyString(req.Destination)
	if err != nil {
		return NewErrorResponse(requestID, ErrorInvalidRequest, fmt.Sprintf("destination: %v", err)), nil
	}

	p, err := c.finder.FindChordPath(ctx, startKey, destKey)
	if err != nil {
		return NewErrorResponse(requestID, classify(err), err.Error()), nil
	}

	resp := NewResponse(requestID)
	resp.Progression = export.NewProgressionDocument(p)

	if c.recorder != nil {
		rec := storage.FromProgression(p, c.fingerprint)
		rec.RequestID = requestID
		id, err := c.recorder.Record(ctx, rec)
		if err != nil {
			// The progression is still valid; only the audit copy is missing.
			c.logger.Warn("Failed to record progression", "request_id", requestID, "error", err)
		} else {
			resp.RecordID = id
		}
	}

	return resp, p
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, modulation.ErrUnknownKey):
		return ErrorUnknownKey
	case errors.Is(err, modulation.ErrUnreachable):
		return ErrorUnreachable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorTimeout
	default:
		return ErrorInternal
	}
}

func (c *Component) observe(resp *PathResponse, p *modulation.Progression) {
	c.mu.Lock()
	c.queriesProcessed++
	c.lastQuery = time.Now()
	if !resp.Success {
		c.errorCount++
	}
	c.mu.Unlock()

	result := "success"
	if !resp.Success {
		result = string(resp.ErrorKind)
	}
	pathQueryTotal.WithLabelValues(result).Inc()
	pathQueryDuration.Observe(resp.QueryTime.Seconds())
	if p != nil {
		pathHops.Observe(float64(p.Hops()))
	}

	if resp.Success {
		c.logger.Debug("Path request served",
			"request_id", resp.RequestID,
			"hops", resp.Progression.Hops,
			"duration", resp.QueryTime)
	} else {
		c.logger.Debug("Path request failed",
			"request_id", resp.RequestID,
			"kind", resp.ErrorKind,
			"error", resp.Error)
	}
}

func (c *Component) publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		publishFailures.Inc()
		c.logger.Error("Failed to marshal message", "subject", subject, "error", err)
		return
	}
	if err := c.conn.Publish(subject, data); err != nil {
		publishFailures.Inc()
		c.logger.Warn("Failed to publish message", "subject", subject, "error", err)
	}
}

// Name returns the component name
func (c *Component) Name() string {
	return c.name
}

// Health returns the current health status
func (c *Component) Health() HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var uptime time.Duration
	if c.running {
		uptime = time.Since(c.startTime)
	}
	return HealthStatus{
		Healthy:          c.running,
		Status:           c.getStatus(),
		Uptime:           uptime,
		QueriesProcessed: c.queriesProcessed,
		ErrorCount:       c.errorCount,
		LastActivity:     c.lastQuery,
	}
}

// getStatus returns a status string
func (c *Component) getStatus() string {
	if c.running {
		return "running"
	}
	return "stopped"
}
