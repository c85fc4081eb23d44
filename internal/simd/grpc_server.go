package simd

import (
	"context"
	"errors"
	"time"

	"github.com/GoSim-25-26J-441/gansim/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// SimulatorGRPCServer implements SimulatorServiceServer on top of a SessionStore.
type SimulatorGRPCServer struct {
	store          *SessionStore
	streamInterval time.Duration
}

var _ SimulatorServiceServer = (*SimulatorGRPCServer)(nil)

// NewSimulatorGRPCServer creates a SimulatorGRPCServer backed by store.
func NewSimulatorGRPCServer(store *SessionStore) *SimulatorGRPCServer {
	return &SimulatorGRPCServer{
		store:          store,
		streamInterval: 500 * time.Millisecond,
	}
}

// SetStreamInterval sets how often WatchState polls for changes.
func (s *SimulatorGRPCServer) SetStreamInterval(d time.Duration) {
	if d > 0 {
		s.streamInterval = d
	}
}

// grpcError maps store errors onto gRPC status codes
func grpcError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrSessionExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrSessionIDMissing), errors.Is(err, ErrSessionIDInvalid),
		errors.Is(err, ErrInvalidURL), errors.Is(err, ErrMetadataEndpoint):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrSessionLimit), errors.Is(err, ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, ErrJournalDisabled):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func encodeResponse(v any) (*structpb.Struct, error) {
	st, err := EncodeStruct(v)
	if err != nil {
		logger.Error("failed to encode gRPC response", "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}

func (s *SimulatorGRPCServer) CreateSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		SessionID   string    `json:"session_id"`
		Seed        int64     `json:"seed"`
		Samples     []float64 `json:"samples"`
		CallbackURL string    `json:"callback_url"`
	}
	if req != nil {
		if err := DecodeStruct(req, &in); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
	}
	for _, v := range in.Samples {
		if v < 0 || v >= 1 {
			return nil, status.Error(codes.InvalidArgument, "samples must be in [0, 1)")
		}
	}

	view, err := s.store.Create(CreateOptions{
		SessionID:   in.SessionID,
		Seed:        in.Seed,
		Samples:     in.Samples,
		CallbackURL: in.CallbackURL,
	})
	if err != nil {
		return nil, grpcError(err)
	}
	return encodeResponse(map[string]any{"session": view})
}

func (s *SimulatorGRPCServer) GetState(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	view, err := s.store.Get(req.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	return encodeResponse(map[string]any{"session": view})
}

func (s *SimulatorGRPCServer) Step(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	out, err := s.store.Step(ctx, req.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	return encodeResponse(map[string]any{
		"state":   out.State,
		"outcome": out,
	})
}

func (s *SimulatorGRPCServer) Reset(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	st, err := s.store.Reset(ctx, req.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	return encodeResponse(map[string]any{"state": st})
}

func (s *SimulatorGRPCServer) ListSessions(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	sessions := s.store.List(int(req.GetValue()))
	return encodeResponse(map[string]any{
		"sessions": sessions,
		"total":    s.store.Len(),
	})
}

func (s *SimulatorGRPCServer) DeleteSession(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.store.Delete(req.GetValue()); err != nil {
		return nil, grpcError(err)
	}
	return &emptypb.Empty{}, nil
}

// WatchState sends the current state, then a new document every time the
// session version changes. The stream ends with NotFound once the session is deleted.
func (s *SimulatorGRPCServer) WatchState(req *wrapperspb.StringValue, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	id := req.GetValue()
	view, err := s.store.Get(id)
	if err != nil {
		return grpcError(err)
	}

	send := func(v SessionView) error {
		msg, err := encodeResponse(stateEventData(v))
		if err != nil {
			return err
		}
		return stream.Send(msg)
	}
	if err := send(view); err != nil {
		return err
	}
	lastVersion := view.Version

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stream.Context().Done():
			return stream.Context().Err()
		case <-ticker.C:
			view, err := s.store.Get(id)
			if err != nil {
				return grpcError(err)
			}
			if view.Version == lastVersion {
				continue
			}
			lastVersion = view.Version
			if err := send(view); err != nil {
				return err
			}
		}
	}
}
