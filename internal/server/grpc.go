package server

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// PredictMethod is the full gRPC method name of the unary Predict call.
const PredictMethod = "/emotion.v1.EmotionService/Predict"

// EmotionServiceServer is the gRPC surface. Messages are protobuf well-known
// types: the request is the text, the response a struct {text, emotion}.
type EmotionServiceServer interface {
	Predict(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

var emotionServiceDesc = grpc.ServiceDesc{
	ServiceName: "emotion.v1.EmotionService",
	HandlerType: (*EmotionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Predict", Handler: predictHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "emotion/v1/emotion.proto",
}

func registerEmotionService(s *grpc.Server, srv EmotionServiceServer) {
	s.RegisterService(&emotionServiceDesc, srv)
}

func predictHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EmotionServiceServer).Predict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PredictMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EmotionServiceServer).Predict(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// gRPC service implementation
type emotionService struct {
	srv *Server
}

func (e *emotionService) Predict(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	res, err := e.srv.predictor.Predict(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, status.FromContextError(err).Err()
		}
		e.srv.log.Error("prediction failed", zap.String("transport", "grpc"), zap.Error(err))
		return nil, status.Error(codes.Internal, "Internal Server Error")
	}
	return structpb.NewStruct(map[string]any{
		"text":    res.Text,
		"emotion": string(res.Emotion),
	})
}

func (s *Server) unaryLogger(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.log.Info("rpc",
		zap.String("method", info.FullMethod),
		zap.String("code", status.Code(err).String()),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, err
}
