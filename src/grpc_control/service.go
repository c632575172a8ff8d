package grpc_control

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"forex-signal-bot/src/config"
	datasource "forex-signal-bot/src/data_source"
	"forex-signal-bot/src/helpers"
	"forex-signal-bot/src/interfaces"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/models"
	"forex-signal-bot/src/utils"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// SignalService implements SignalServiceServer
type SignalService struct {
	Config         *config.Config
	ConfigPath     string
	Analyzer       interfaces.ISignalAnalyzer
	Router         *datasource.BarRouter
	Sessions       *utils.SessionClock
	NetworkManager interfaces.INetworkManager
	Logger         *logger.Logger

	mu sync.Mutex // guards Config.DataSource
}

// NewSignalService creates a new instance of SignalService
func NewSignalService(
	cfg *config.Config,
	cfgPath string,
	analyzer interfaces.ISignalAnalyzer,
	router *datasource.BarRouter,
	sessions *utils.SessionClock,
	netMgr interfaces.INetworkManager,
	log *logger.Logger,
) *SignalService {
	if log == nil {
		log = logger.NewLogger(nil, "SignalService")
	}
	if sessions == nil {
		sessions = utils.NewSessionClock(log)
	}
	return &SignalService{
		Config:         cfg,
		ConfigPath:     cfgPath,
		Analyzer:       analyzer,
		Router:         router,
		Sessions:       sessions,
		NetworkManager: netMgr,
		Logger:         log,
	}
}

// -----------------------------------------------------------------------------

// toStruct converts any JSON-serialisable value into a Struct.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// stringList accepts either a list of strings or one comma-separated string.
func stringList(v interface{}) []string {
	var raw []string
	switch t := v.(type) {
	case string:
		raw = strings.Split(t, ",")
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}
	var out []string
	for _, s := range raw {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// -----------------------------------------------------------------------------

func (s *SignalService) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := req.AsMap()
	pairs := stringList(in["pairs"])
	if len(pairs) == 0 {
		pairs = s.Config.Pairs()
	}
	tf := stringField(in, "timeframe")
	if tf == "" {
		tf = "15m"
	}

	if secs := s.Config.Analysis.RequestTimeoutSeconds; secs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(secs)*time.Second)
		defer cancel()
	}

	results, err := s.Analyzer.Analyze(ctx, pairs, tf, s.Config.EngineConfig())
	if err != nil {
		if helpers.IsUnsupportedTimeframe(err) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	s.Logger.Info("gRPC: Analyze %d pairs on %s", len(pairs), tf)
	return toStruct(models.MAnalyzeResponse{
		RequestID:    uuid.NewString(),
		Timeframe:    tf,
		OpenSessions: s.Sessions.Current(),
		Results:      results,
	})
}

// -----------------------------------------------------------------------------

func (s *SignalService) Health(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(map[string]interface{}{
		"status":        "healthy",
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"open_sessions": s.Sessions.Current(),
	})
}

// -----------------------------------------------------------------------------

func (s *SignalService) ListSources(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	byName := make(map[string]models.MSourceConfig, len(s.Config.DataSource.Sources))
	for _, sc := range s.Config.DataSource.Sources {
		byName[sc.Name] = sc
	}
	s.mu.Unlock()

	var sources []map[string]interface{}
	for i, name := range s.Router.SourceNames() {
		sc := byName[name]
		symbols := sc.Symbols
		if symbols == nil {
			symbols = []string{}
		}
		sources = append(sources, map[string]interface{}{
			"name":     name,
			"type":     sc.Type,
			"priority": i,
			"symbols":  symbols,
		})
	}
	return toStruct(map[string]interface{}{"sources": sources})
}

// -----------------------------------------------------------------------------

func (s *SignalService) AddSource(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := req.AsMap()
	sc := models.MSourceConfig{
		Name:    stringField(in, "name"),
		Type:    strings.ToLower(stringField(in, "type")),
		Symbols: stringList(in["symbols"]),
	}
	if rps, ok := in["requests_per_second"].(float64); ok {
		sc.RequestsPerSecond = rps
	}
	if sc.Name == "" || sc.Type == "" {
		return nil, status.Error(codes.InvalidArgument, "name and type are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.Router.SourceNames() {
		if existing == sc.Name {
			return nil, status.Errorf(codes.AlreadyExists, "source %s already exists", sc.Name)
		}
	}
	if err := datasource.RegisterSource(s.Router, sc, s.NetworkManager); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.Config.DataSource.Sources = append(s.Config.DataSource.Sources, sc)
	s.persist()

	s.Logger.Info("gRPC: Added source %s (%s)", sc.Name, sc.Type)
	return toStruct(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Added source %s", sc.Name),
		"sources": s.Router.SourceNames(),
	})
}

// -----------------------------------------------------------------------------

func (s *SignalService) RemoveSource(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := stringField(req.AsMap(), "name")
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Router.RemoveSource(name); err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}

	kept := []models.MSourceConfig{}
	for _, sc := range s.Config.DataSource.Sources {
		if sc.Name != name {
			kept = append(kept, sc)
		}
	}
	s.Config.DataSource.Sources = kept
	s.persist()

	s.Logger.Info("gRPC: Removed source %s", name)
	return toStruct(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Removed source %s", name),
		"sources": s.Router.SourceNames(),
	})
}

// -----------------------------------------------------------------------------

// persist writes the config back when it came from a file. Callers hold mu.
func (s *SignalService) persist() {
	if s.ConfigPath == "" {
		return
	}
	if err := s.Config.Save(s.ConfigPath); err != nil {
		s.Logger.Error("gRPC: Failed to save config: %v", err)
	}
}
