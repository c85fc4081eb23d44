package simd

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// SimulatorServiceName is the fully qualified gRPC service name.
const SimulatorServiceName = "gansim.v1.SimulatorService"

// SimulatorServiceServer is served over gRPC. Messages are protobuf
// well-known types: session IDs travel as StringValue and documents as Struct
// with the same field names as the HTTP API.
type SimulatorServiceServer interface {
	CreateSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetState(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Step(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Reset(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListSessions(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	DeleteSession(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	WatchState(*wrapperspb.StringValue, grpc.ServerStreamingServer[structpb.Struct]) error
}

func fullMethod(name string) string {
	return "/" + SimulatorServiceName + "/" + name
}

func unaryHandler[Req any, PReq interface {
	*Req
	proto.Message
}, Resp any](method string, call func(SimulatorServiceServer, context.Context, PReq) (Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			out, err := call(srv.(SimulatorServiceServer), ctx, in)
			return out, err
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			out, err := call(srv.(SimulatorServiceServer), ctx, req.(PReq))
			return out, err
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchStateHandler(srv any, stream grpc.ServerStream) error {
	in := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SimulatorServiceServer).WatchState(in, &grpc.GenericServerStream[wrapperspb.StringValue, structpb.Struct]{ServerStream: stream})
}

// SimulatorServiceDesc describes the service for grpc.Server registration.
var SimulatorServiceDesc = grpc.ServiceDesc{
	ServiceName: SimulatorServiceName,
	HandlerType: (*SimulatorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateSession", Handler: unaryHandler[structpb.Struct]("CreateSession", SimulatorServiceServer.CreateSession)},
		{MethodName: "GetState", Handler: unaryHandler[wrapperspb.StringValue]("GetState", SimulatorServiceServer.GetState)},
		{MethodName: "Step", Handler: unaryHandler[wrapperspb.StringValue]("Step", SimulatorServiceServer.Step)},
		{MethodName: "Reset", Handler: unaryHandler[wrapperspb.StringValue]("Reset", SimulatorServiceServer.Reset)},
		{MethodName: "ListSessions", Handler: unaryHandler[wrapperspb.Int64Value]("ListSessions", SimulatorServiceServer.ListSessions)},
		{MethodName: "DeleteSession", Handler: unaryHandler[wrapperspb.StringValue]("DeleteSession", SimulatorServiceServer.DeleteSession)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchState", Handler: watchStateHandler, ServerStreams: true},
	},
	Metadata: "gansim/v1/simulator.proto",
}

// RegisterSimulatorServiceServer registers srv with a gRPC server.
func RegisterSimulatorServiceServer(s grpc.ServiceRegistrar, srv SimulatorServiceServer) {
	s.RegisterService(&SimulatorServiceDesc, srv)
}

// SimulatorClient calls SimulatorService on a gRPC connection.
type SimulatorClient struct {
	cc grpc.ClientConnInterface
}

func NewSimulatorClient(cc grpc.ClientConnInterface) *SimulatorClient {
	return &SimulatorClient{cc: cc}
}

func invoke[Resp any, PResp interface {
	*Resp
	proto.Message
}](ctx context.Context, cc grpc.ClientConnInterface, method string, in proto.Message, opts ...grpc.CallOption) (PResp, error) {
	out := PResp(new(Resp))
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		var zero PResp
		return zero, err
	}
	return out, nil
}

func (c *SimulatorClient) CreateSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "CreateSession", in, opts...)
}

func (c *SimulatorClient) GetState(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "GetState", wrapperspb.String(id), opts...)
}

func (c *SimulatorClient) Step(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "Step", wrapperspb.String(id), opts...)
}

func (c *SimulatorClient) Reset(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "Reset", wrapperspb.String(id), opts...)
}

func (c *SimulatorClient) ListSessions(ctx context.Context, limit int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "ListSessions", wrapperspb.Int64(limit), opts...)
}

func (c *SimulatorClient) DeleteSession(ctx context.Context, id string, opts ...grpc.CallOption) error {
	_, err := invoke[emptypb.Empty](ctx, c.cc, "DeleteSession", wrapperspb.String(id), opts...)
	return err
}

// WatchState streams a state document on subscribe and after every change.
func (c *SimulatorClient) WatchState(ctx context.Context, id string, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &SimulatorServiceDesc.Streams[0], fullMethod("WatchState"), opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[wrapperspb.StringValue, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(wrapperspb.String(id)); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// EncodeStruct converts any JSON-serializable value into a Struct.
func EncodeStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(b, st); err != nil {
		return nil, fmt.Errorf("to struct: %w", err)
	}
	return st, nil
}

// DecodeStruct fills v from a Struct using v's JSON tags.
func DecodeStruct(st *structpb.Struct, v any) error {
	b, err := protojson.Marshal(st)
	if err != nil {
		return fmt.Errorf("from struct: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}
