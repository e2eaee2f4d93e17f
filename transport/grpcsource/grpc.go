package grpcsource

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ArchiveServer is the server API for the Archive gRPC service.
//
// We intentionally use protobuf well-known wrapper types so this package does
// not require a protoc/codegen toolchain.
//
// Proto definition:
//
//	service Archive {
//	  rpc Fetch(google.protobuf.StringValue) returns (stream google.protobuf.BytesValue);
//	}
type ArchiveServer interface {
	Fetch(*wrapperspb.StringValue, Archive_FetchServer) error
}

// UnimplementedArchiveServer can be embedded to have forward compatible implementations.
type UnimplementedArchiveServer struct{}

func (UnimplementedArchiveServer) Fetch(*wrapperspb.StringValue, Archive_FetchServer) error {
	return status.Error(codes.Unimplemented, "method Fetch not implemented")
}

// Archive_FetchServer is the server side of a Fetch stream.
type Archive_FetchServer interface {
	Send(*wrapperspb.BytesValue) error
	grpc.ServerStream
}

type archiveFetchServer struct{ grpc.ServerStream }

func (x *archiveFetchServer) Send(m *wrapperspb.BytesValue) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterArchiveServer registers the Archive service on a gRPC server.
func RegisterArchiveServer(s grpc.ServiceRegistrar, srv ArchiveServer) {
	s.RegisterService(&Archive_ServiceDesc, srv)
}

// ArchiveClient is the client API for the Archive gRPC service.
type ArchiveClient interface {
	Fetch(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (Archive_FetchClient, error)
}

// Archive_FetchClient is the client side of a Fetch stream.
type Archive_FetchClient interface {
	Recv() (*wrapperspb.BytesValue, error)
	grpc.ClientStream
}

type archiveClient struct{ cc grpc.ClientConnInterface }

func NewArchiveClient(cc grpc.ClientConnInterface) ArchiveClient { return &archiveClient{cc: cc} }

func (c *archiveClient) Fetch(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (Archive_FetchClient, error) {
	stream, err := c.cc.NewStream(ctx, &Archive_ServiceDesc.Streams[0], "/xdao.carstream.transport.v1.Archive/Fetch", opts...)
	if err != nil {
		return nil, err
	}
	x := &archiveFetchClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type archiveFetchClient struct{ grpc.ClientStream }

func (x *archiveFetchClient) Recv() (*wrapperspb.BytesValue, error) {
	m := new(wrapperspb.BytesValue)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _Archive_Fetch_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ArchiveServer).Fetch(m, &archiveFetchServer{stream})
}

// Archive_ServiceDesc is the grpc.ServiceDesc for Archive service.
var Archive_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "xdao.carstream.transport.v1.Archive",
	HandlerType: (*ArchiveServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Fetch",
			Handler:       _Archive_Fetch_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "archive.proto",
}
