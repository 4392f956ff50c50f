// Package v1 реализует gRPC-сервис filler.v1.SlideFiller.
//
// Сообщения передаются как google.protobuf.Struct, поэтому сгенерированный код не нужен.
// Поля запроса: template (base64), filename, running_numbers, placeholder_text,
// items_per_slide, user_id. Поля ответа: filename, document (base64), slides, codes.
package v1

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/model"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/service"
)

const (
	ServiceName    = "filler.v1.SlideFiller"
	GenerateMethod = "/" + ServiceName + "/Generate"
)

// SlideFillerServer: серверная часть filler.v1.SlideFiller.
type SlideFillerServer interface {
	Generate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// SlideFillerServiceDesc описывает сервис для grpc.Server.RegisterService.
var SlideFillerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SlideFillerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Generate",
			Handler:    generateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "filler/v1/filler.proto",
}

func generateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SlideFillerServer).Generate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GenerateMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SlideFillerServer).Generate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type GRPCServer struct {
	Service *service.GeneratorService
	Logger  *zap.Logger
}

func NewGRPCServer(svc *service.GeneratorService, logger *zap.Logger) *GRPCServer {
	return &GRPCServer{Service: svc, Logger: logger}
}

// NewServer создаёт grpc.Server с зарегистрированным SlideFiller и логирующим перехватчиком.
// maxMessage ограничивает размер входящего сообщения (шаблон приходит целиком).
func NewServer(svc *service.GeneratorService, logger *zap.Logger, maxMessage int) *grpc.Server {
	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(LoggingInterceptor(logger))}
	if maxMessage > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(maxMessage))
	}
	s := grpc.NewServer(opts...)
	s.RegisterService(&SlideFillerServiceDesc, NewGRPCServer(svc, logger))
	return s
}

func (s *GRPCServer) Generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, userID, err := decodeRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.Service.Generate(ctx, userID, in)
	if err != nil {
		if service.IsClientError(err) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.Logger.Error("gRPC generation failed", zap.String("template", in.Filename), zap.Error(err))
		return nil, status.Errorf(codes.Internal, "generation failed: %v", err)
	}

	out, err := structpb.NewStruct(map[string]any{
		"filename": result.Filename,
		"document": base64.StdEncoding.EncodeToString(result.Document),
		"slides":   result.Slides,
		"codes":    result.Codes,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func decodeRequest(req *structpb.Struct) (model.GenerateRequest, string, error) {
	var in model.GenerateRequest
	fields := req.GetFields()

	encoded, err := stringField(fields, "template")
	if err != nil {
		return in, "", err
	}
	if encoded == "" {
		return in, "", errors.New("template is required")
	}
	in.Template, err = base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return in, "", fmt.Errorf("template is not valid base64: %w", err)
	}

	if in.Filename, err = stringField(fields, "filename"); err != nil {
		return in, "", err
	}
	if in.RunningNumbers, err = stringField(fields, "running_numbers"); err != nil {
		return in, "", err
	}
	if in.Placeholder, err = stringField(fields, "placeholder_text"); err != nil {
		return in, "", err
	}
	if in.ItemsPerSlide, err = intField(fields, "items_per_slide"); err != nil {
		return in, "", err
	}
	if in.ItemsPerSlide < 0 {
		return in, "", fmt.Errorf("%w: %d", service.ErrInvalidItemsPerSlide, in.ItemsPerSlide)
	}

	userID, err := stringField(fields, "user_id")
	return in, userID, err
}

func stringField(fields map[string]*structpb.Value, name string) (string, error) {
	v, ok := fields[name]
	if !ok {
		return "", nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("field %s must be a string", name)
	}
	return s.StringValue, nil
}

func intField(fields map[string]*structpb.Value, name string) (int, error) {
	v, ok := fields[name]
	if !ok {
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, fmt.Errorf("field %s must be an integer", name)
	}
	return int(n.NumberValue), nil
}

// LoggingInterceptor пишет в лог каждый unary-вызов.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil && code == codes.Internal {
			logger.Error("gRPC Request", append(fields, zap.Error(err))...)
		} else {
			logger.Info("gRPC Request", fields...)
		}
		return resp, err
	}
}

// Generate вызывает filler.v1.SlideFiller/Generate через соединение conn.
func Generate(ctx context.Context, conn grpc.ClientConnInterface, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, GenerateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
