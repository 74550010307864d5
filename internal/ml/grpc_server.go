package ml

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// scorerServiceDesc exposes a Scorer as horsemen.v1.Scorer
var scorerServiceDesc = grpc.ServiceDesc{
	ServiceName: "horsemen.v1.Scorer",
	HandlerType: (*Scorer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PredictProba",
			Handler:    predictProbaHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "horsemen/v1/scorer.proto",
}

// RegisterScorerServer serves scorer on s so other processes can use it through GRPCScorer
func RegisterScorerServer(s grpc.ServiceRegistrar, scorer Scorer) {
	s.RegisterService(&scorerServiceDesc, scorer)
}

func predictProbaHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return servePredictProba(ctx, srv.(Scorer), req.(*structpb.Struct))
	}
	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: PredictProbaMethod,
	}
	return interceptor(ctx, in, info, handler)
}

func servePredictProba(ctx context.Context, scorer Scorer, req *structpb.Struct) (*structpb.Struct, error) {
	features, err := decodeMatrix(req.GetFields()["features"])
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	probs, err := scorer.PredictProba(ctx, features)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"probabilities": encodeVector(probs),
		"model_version": structpb.NewStringValue(scorer.Version()),
	}}, nil
}
