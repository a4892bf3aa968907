// Package server exposes a gesture classifier over JSON-RPC 2.0, both as
// plain HTTP POST and over WebSocket with gesture push notifications.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/buttonpad/buttonpad/internal/button"
	"github.com/buttonpad/buttonpad/internal/gesture"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

// Custom JSON-RPC error codes for button operations.
const (
	codeInputFailed       = jrpc2.Code(-32001)
	codeIntervalsRejected = jrpc2.Code(-32002)
	codeInvalidParams     = jrpc2.Code(-32602)
)

// RPCConfig holds configuration for the JSON-RPC endpoint.
type RPCConfig struct {
	Secret    string // Auth token (required -- empty means every request is rejected)
	ListenAll bool   // If true, bind to 0.0.0.0 instead of 127.0.0.1
	Version   string // Build version
	Commit    string // Git commit
	BuildType string // Build type
}

// RPCServer manages the JSON-RPC 2.0 bridge and method handlers.
type RPCServer struct {
	methods    handler.Map
	bridge     jhttp.Bridge
	secret     string
	version    string
	commit     string
	buildType  string
	classifier *gesture.Classifier
	notifier   *RPCNotifier
	log        logger.Logger
}

// VersionResult is the response for system.getVersion.
type VersionResult struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"buildType,omitempty"`
}

// KeyParam names one button, by name ("menu") or code ("9").
type KeyParam struct {
	Key string `json:"key"`
}

// HeldResult is the response for buttons.held.
type HeldResult struct {
	Keys []string `json:"keys"`
}

// IntervalsResult is the response for intervals.get and intervals.set.
// All values are milliseconds.
type IntervalsResult struct {
	EventDelayMs      int64 `json:"eventDelayMs"`
	HardButtonDelayMs int64 `json:"hardButtonDelayMs"`
	ClickMinMs        int64 `json:"clickMinMs"`
	ClickMaxMs        int64 `json:"clickMaxMs"`
	LongPressMinMs    int64 `json:"longPressMinMs"`
	LongPressMaxMs    int64 `json:"longPressMaxMs"`
	LongPressRepeatMs int64 `json:"longPressRepeatMs"`
}

// IntervalsParams is the input for intervals.set. Omitted fields keep their
// current value.
type IntervalsParams struct {
	EventDelayMs      *int64 `json:"eventDelayMs,omitempty"`
	HardButtonDelayMs *int64 `json:"hardButtonDelayMs,omitempty"`
	ClickMinMs        *int64 `json:"clickMinMs,omitempty"`
	ClickMaxMs        *int64 `json:"clickMaxMs,omitempty"`
	LongPressMinMs    *int64 `json:"longPressMinMs,omitempty"`
	LongPressMaxMs    *int64 `json:"longPressMaxMs,omitempty"`
	LongPressRepeatMs *int64 `json:"longPressRepeatMs,omitempty"`
}

// EmptyResult is a placeholder for methods that return no data.
type EmptyResult struct{}

// NewRPCServer creates a new RPCServer with method handlers and HTTP bridge.
// It registers an RPCNotifier on c so that WebSocket clients receive gesture
// notifications; Close removes it.
func NewRPCServer(cfg *RPCConfig, c *gesture.Classifier, l logger.Logger) *RPCServer {
	l = logger.OrNop(l)
	rs := &RPCServer{
		secret:     cfg.Secret,
		version:    cfg.Version,
		commit:     cfg.Commit,
		buildType:  cfg.BuildType,
		classifier: c,
		notifier:   NewRPCNotifier(l),
		log:        l,
	}

	rs.methods = handler.Map{
		"system.getVersion": handler.New(rs.systemGetVersion),
		"button.down":       handler.New(rs.buttonDown),
		"button.up":         handler.New(rs.buttonUp),
		"buttons.held":      handler.New(rs.buttonsHeld),
		"intervals.get":     handler.New(rs.intervalsGet),
		"intervals.set":     handler.New(rs.intervalsSet),
	}

	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	c.AddButtonListener(rs.notifier)
	c.AddNoiseListener(rs.notifier)
	return rs
}

// Notifier returns the notifier broadcasting gestures to WebSocket clients.
func (rs *RPCServer) Notifier() *RPCNotifier {
	return rs.notifier
}

// Handler serves POST /jsonrpc and the /jsonrpc/ws WebSocket endpoint, both
// behind Bearer token authentication.
func (rs *RPCServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/jsonrpc", requireToken(rs.secret, rs.bridge))
	mux.Handle("/jsonrpc/ws", requireToken(rs.secret, http.HandlerFunc(rs.handleWebSocket)))
	return mux
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*VersionResult, error) {
	return &VersionResult{
		Version:   rs.version,
		Commit:    rs.commit,
		BuildType: rs.buildType,
	}, nil
}

func parseKeyParam(p *KeyParam) (button.Key, error) {
	if p.Key == "" {
		return button.NoKey, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: key"}
	}
	k, err := button.ParseKey(p.Key)
	if err != nil {
		return button.NoKey, &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	}
	return k, nil
}

// buttonDown feeds a press edge into the classifier.
func (rs *RPCServer) buttonDown(_ context.Context, p *KeyParam) (*EmptyResult, error) {
	k, err := parseKeyParam(p)
	if err != nil {
		return nil, err
	}
	if err := rs.classifier.HandleButtonDown(k); err != nil {
		return nil, &jrpc2.Error{Code: codeInputFailed, Message: err.Error()}
	}
	return &EmptyResult{}, nil
}

// buttonUp feeds a release edge into the classifier.
func (rs *RPCServer) buttonUp(_ context.Context, p *KeyParam) (*EmptyResult, error) {
	k, err := parseKeyParam(p)
	if err != nil {
		return nil, err
	}
	if err := rs.classifier.HandleButtonUp(k); err != nil {
		return nil, &jrpc2.Error{Code: codeInputFailed, Message: err.Error()}
	}
	return &EmptyResult{}, nil
}

// buttonsHeld returns the held buttons in press order.
func (rs *RPCServer) buttonsHeld(_ context.Context) (*HeldResult, error) {
	down := rs.classifier.ButtonsDown()
	keys := make([]string, 0, len(down))
	for _, b := range down {
		keys = append(keys, b.String())
	}
	return &HeldResult{Keys: keys}, nil
}

func (rs *RPCServer) intervalsGet(_ context.Context) (*IntervalsResult, error) {
	return toIntervalsResult(rs.classifier.Intervals()), nil
}

// intervalsSet merges the given fields into the current intervals.
func (rs *RPCServer) intervalsSet(_ context.Context, p *IntervalsParams) (*IntervalsResult, error) {
	iv := rs.classifier.Intervals()
	set := func(dst *time.Duration, ms *int64) {
		if ms != nil {
			*dst = time.Duration(*ms) * time.Millisecond
		}
	}
	set(&iv.EventDelay, p.EventDelayMs)
	set(&iv.HardButtonDelay, p.HardButtonDelayMs)
	set(&iv.ClickMin, p.ClickMinMs)
	set(&iv.ClickMax, p.ClickMaxMs)
	set(&iv.LongPressMin, p.LongPressMinMs)
	set(&iv.LongPressMax, p.LongPressMaxMs)
	set(&iv.LongPressRepeat, p.LongPressRepeatMs)

	if err := rs.classifier.SetIntervals(iv); err != nil {
		return nil, &jrpc2.Error{Code: codeIntervalsRejected, Message: err.Error()}
	}
	return toIntervalsResult(iv), nil
}

func toIntervalsResult(iv gesture.Intervals) *IntervalsResult {
	return &IntervalsResult{
		EventDelayMs:      iv.EventDelay.Milliseconds(),
		HardButtonDelayMs: iv.HardButtonDelay.Milliseconds(),
		ClickMinMs:        iv.ClickMin.Milliseconds(),
		ClickMaxMs:        iv.ClickMax.Milliseconds(),
		LongPressMinMs:    iv.LongPressMin.Milliseconds(),
		LongPressMaxMs:    iv.LongPressMax.Milliseconds(),
		LongPressRepeatMs: iv.LongPressRepeat.Milliseconds(),
	}
}

// Close shuts down the jrpc2 bridge and detaches the notifier from the
// classifier.
func (rs *RPCServer) Close() {
	rs.classifier.RemoveButtonListener(rs.notifier)
	rs.classifier.RemoveNoiseListener(rs.notifier)
	rs.bridge.Close()
}
