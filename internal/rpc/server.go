package rpc

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/config"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/service"
)

type BookmarkerServerImpl struct {
	bookmarks  *service.Bookmarks
	logger     *zap.SugaredLogger
	grpcServer *grpc.Server
	health     *health.Server
}

func NewGRPCServer(lc fx.Lifecycle, cfg *config.Config, bookmarks *service.Bookmarks, logger *zap.SugaredLogger) *BookmarkerServerImpl {
	instance := newGRPCServer(bookmarks, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", cfg.Host+":"+cfg.GRPCPort)
			if err != nil {
				return errors.Wrap(err, "failed to listen")
			}
			logger.Infow("Starting GRPC server.", "listen", lis.Addr().String())
			go instance.Serve(lis)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping GRPC server.")
			instance.health.Shutdown()
			instance.grpcServer.GracefulStop()
			return nil
		},
	})

	return instance
}

func newGRPCServer(bookmarks *service.Bookmarks, logger *zap.SugaredLogger) *BookmarkerServerImpl {
	instance := &BookmarkerServerImpl{
		bookmarks: bookmarks,
		logger:    logger,
		health:    health.NewServer(),
	}
	instance.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(instance.logCalls))

	RegisterBookmarksServer(instance.grpcServer, instance)
	healthpb.RegisterHealthServer(instance.grpcServer, instance.health)
	reflection.Register(instance.grpcServer)
	instance.health.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	return instance
}

func (s *BookmarkerServerImpl) Serve(lis net.Listener) {
	if err := s.grpcServer.Serve(lis); err != nil {
		s.logger.Errorw("failed to serve", "error", err)
	}
}

func (s *BookmarkerServerImpl) ListBookmarks(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := listRequest(in)
	if err != nil {
		return nil, s.toStatus(err)
	}
	items, err := s.bookmarks.List(ctx, req)
	if err != nil {
		return nil, s.toStatus(err)
	}
	out, err := listResponse(items)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return out, nil
}

func (s *BookmarkerServerImpl) logCalls(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	fields := []interface{}{
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"latency", time.Since(start),
	}
	if err != nil {
		s.logger.Warnw("grpc call", fields...)
		return resp, err
	}
	s.logger.Infow("grpc call", fields...)
	return resp, err
}

// toStatus keeps internal details out of the status message.
func (s *BookmarkerServerImpl) toStatus(err error) error {
	var (
		validationErr *service.ValidationError
		notFoundErr   *service.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		return status.Error(codes.InvalidArgument, validationErr.Msg)
	case errors.As(err, &notFoundErr):
		return status.Error(codes.NotFound, notFoundErr.Error())
	}
	s.logger.Errorw("list bookmarks", "error", err)
	return status.Error(codes.Internal, "internal error")
}
