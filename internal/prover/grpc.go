package prover

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/danielpatrickdp/breeding-verifier/internal/dna"
	"github.com/danielpatrickdp/breeding-verifier/internal/journal"
)

// #region service-desc
// The Prover service has a single unary method. Requests carry the 52-byte
// private input stream; responses carry the journal followed by the seal.
const (
	ServiceName   = "breeding.v1.Prover"
	executeMethod = "/" + ServiceName + "/Execute"
)

// ProverServiceClient is the client side of breeding.v1.Prover.
type ProverServiceClient interface {
	Execute(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

// ProverServiceServer is the server side of breeding.v1.Prover.
type ProverServiceServer interface {
	Execute(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

type proverServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewProverServiceClient binds a client to a connection.
func NewProverServiceClient(cc grpc.ClientConnInterface) ProverServiceClient {
	return &proverServiceClient{cc: cc}
}

func (c *proverServiceClient) Execute(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, executeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func executeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProverServiceServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: executeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProverServiceServer).Execute(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

var proverServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProverServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: executeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "breeding/v1/prover.proto",
}

// RegisterProverServiceServer attaches srv to a gRPC server.
func RegisterProverServiceServer(s grpc.ServiceRegistrar, srv ProverServiceServer) {
	s.RegisterService(&proverServiceDesc, srv)
}

// #endregion service-desc

// #region client
// Client is a Backend that forwards to a remote breeding.v1.Prover.
type Client struct {
	conn   *grpc.ClientConn
	client ProverServiceClient
}

// NewClient connects to a prover daemon.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{
		conn:   conn,
		client: NewProverServiceClient(conn),
	}, nil
}

// NewClientWithService creates a Client with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewClientWithService(svc ProverServiceClient) *Client {
	return &Client{client: svc}
}

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Execute sends the private input stream to the remote prover.
func (c *Client) Execute(ctx context.Context, privateInput []byte) (Receipt, error) {
	resp, err := c.client.Execute(ctx, wrapperspb.Bytes(privateInput))
	if err != nil {
		return Receipt{}, fmt.Errorf("execute rpc: %w: %w", ErrBackend, err)
	}
	return splitReceipt(resp.GetValue())
}

// #endregion client

// #region server
// Server exposes any Backend as breeding.v1.Prover.
type Server struct {
	backend Backend
	log     *zap.Logger
}

// NewServer wraps backend. A nil logger discards output.
func NewServer(backend Backend, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{backend: backend, log: log}
}

// Execute implements ProverServiceServer.
func (s *Server) Execute(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	rcpt, err := s.backend.Execute(ctx, in.GetValue())
	if err != nil {
		s.log.Warn("execute failed", zap.Int("input_bytes", len(in.GetValue())), zap.Error(err))
		if errors.Is(err, dna.ErrMalformedRecord) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	if len(rcpt.Journal) != journal.Size {
		s.log.Error("backend returned a bad journal", zap.Int("journal_bytes", len(rcpt.Journal)))
		return nil, status.Errorf(codes.Internal, "journal is %d bytes, want %d", len(rcpt.Journal), journal.Size)
	}
	return wrapperspb.Bytes(joinReceipt(rcpt)), nil
}

// #endregion server

// #region framing
func joinReceipt(r Receipt) []byte {
	buf := make([]byte, 0, len(r.Journal)+len(r.Seal))
	buf = append(buf, r.Journal...)
	return append(buf, r.Seal...)
}

func splitReceipt(b []byte) (Receipt, error) {
	if len(b) < journal.Size {
		return Receipt{}, fmt.Errorf("execute rpc: %d byte response: %w: %w", len(b), ErrBackend, journal.ErrTruncatedRecord)
	}
	return Receipt{
		Journal: append([]byte(nil), b[:journal.Size]...),
		Seal:    append([]byte(nil), b[journal.Size:]...),
	}, nil
}

// #endregion framing
