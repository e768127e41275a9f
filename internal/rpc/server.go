package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/route-sculpture/internal/db"
	"github.com/banshee-data/route-sculpture/internal/elevation"
	"github.com/banshee-data/route-sculpture/internal/monitoring"
	"github.com/banshee-data/route-sculpture/internal/pipeline"
	"github.com/banshee-data/route-sculpture/internal/printcheck"
	"github.com/banshee-data/route-sculpture/internal/stl"
	"github.com/banshee-data/route-sculpture/internal/version"
)

// MaxMessageBytes bounds request and reply size. Exports carry the STL
// inline, so the gRPC 4MB default is too small for large grids.
const MaxMessageBytes = 64 << 20

var _ SculptureServiceServer = (*Server)(nil)

// Server implements SculptureService over the pipeline.
type Server struct {
	tiles *elevation.TileSource
	db    *db.DB
}

// NewServer returns a server. tiles may be nil (terrain mode then fails)
// and store may be nil (runs are not recorded).
func NewServer(tiles *elevation.TileSource, store *db.DB) *Server {
	return &Server{tiles: tiles, db: store}
}

// NewGRPCServer returns a grpc.Server with srv registered and call logging.
func NewGRPCServer(srv *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.MaxRecvMsgSize(MaxMessageBytes),
		grpc.MaxSendMsgSize(MaxMessageBytes),
		grpc.ChainUnaryInterceptor(LoggingInterceptor),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterSculptureServiceServer(s, srv)
	return s
}

// LoggingInterceptor logs method, status code and duration of every call.
func LoggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	monitoring.Logf("[gRPC] %s %s %.3fms", info.FullMethod, status.Code(err), float64(time.Since(start).Nanoseconds())/1e6)
	return resp, err
}

func (s *Server) ServerInfo(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"version":   version.Version,
		"gitSha":    version.GitSHA,
		"buildTime": version.BuildTime,
	})
}

type gridReply struct {
	*elevation.Result
	Stats *elevation.Stats `json:"stats,omitempty"`
}

func (s *Server) BuildGrid(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decode(in)
	if err != nil {
		return nil, err
	}
	res, err := req.Grid(ctx, s.tiles)
	if err != nil {
		return nil, statusError(err)
	}
	reply := gridReply{Result: res}
	if res.Grid != nil {
		st := res.Grid.Stats()
		reply.Stats = &st
	}
	return encode(reply)
}

type validateReply struct {
	printcheck.Result
	TileCoverage *float64 `json:"tileCoverage,omitempty"`
	RunID        string   `json:"runId,omitempty"`
}

func (s *Server) Validate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decode(in)
	if err != nil {
		return nil, err
	}
	sc, err := req.Sculpture(ctx, s.tiles)
	if err != nil {
		return nil, statusError(err)
	}
	reply := validateReply{Result: sc.Validate(), TileCoverage: sc.TileCoverage()}
	if s.db != nil {
		run, err := s.db.RecordValidation(ctx, req.RouteName, req.Cfg, reply.Result, reply.TileCoverage)
		if err != nil {
			monitoring.Logf("rpc: failed to record validation: %v", err)
		} else {
			reply.RunID = run.ID
		}
	}
	return encode(reply)
}

func (s *Server) QuickStatus(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decode(in)
	if err != nil {
		return nil, err
	}
	return encode(printcheck.QuickStatus(req.Cfg))
}

// exportReply carries the encoded file inline, base64 in JSON form.
type exportReply struct {
	stl.Result
	Data       []byte         `json:"data,omitempty"`
	Check      stl.MeshCheck  `json:"meshCheck"`
	Dimensions stl.Dimensions `json:"dimensions"`
	RunID      string         `json:"runId,omitempty"`
}

// Export answers with success false rather than an error status when the
// geometry cannot be encoded.
func (s *Server) Export(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decode(in)
	if err != nil {
		return nil, err
	}
	sc, err := req.Sculpture(ctx, s.tiles)
	if err != nil {
		return nil, statusError(err)
	}
	res := sc.Export(req.RouteName, req.Export)
	reply := exportReply{
		Result:     res,
		Data:       res.Data,
		Check:      stl.ValidateMeshForPrinting(sc.Scene),
		Dimensions: stl.CalculatePrintDimensions(req.Cfg),
	}
	if res.Success && s.db != nil {
		run, err := s.db.RecordExport(ctx, req.RouteName, req.Cfg, res)
		if err != nil {
			monitoring.Logf("rpc: failed to record export: %v", err)
		} else {
			reply.RunID = run.ID
		}
	}
	return encode(reply)
}

// decode turns the Struct back into JSON and reads it as a pipeline request.
func decode(in *structpb.Struct) (*pipeline.Request, error) {
	data, err := protojson.Marshal(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	req, err := pipeline.DecodeRequest(bytes.NewReader(data))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return req, nil
}

func encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	return out, nil
}

// statusError maps grid and scene construction failures to gRPC codes.
func statusError(err error) error {
	switch {
	case errors.Is(err, elevation.ErrNoTerrainData):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, pipeline.ErrNoElevation):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.InvalidArgument, fmt.Sprint(err))
	}
}
