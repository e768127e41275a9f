package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/banshee-data/route-sculpture/internal/api"
	"github.com/banshee-data/route-sculpture/internal/config"
	"github.com/banshee-data/route-sculpture/internal/db"
	"github.com/banshee-data/route-sculpture/internal/fsutil"
	"github.com/banshee-data/route-sculpture/internal/monitoring"
	"github.com/banshee-data/route-sculpture/internal/rpc"
	"github.com/banshee-data/route-sculpture/internal/stl"
	"github.com/banshee-data/route-sculpture/internal/version"
)

func newServeCmd(g *globalOptions) *cobra.Command {
	var (
		listen     string
		grpcListen string
		noHistory  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the grid, validation and export API over HTTP and gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := g.serviceConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				svc.Listen = &listen
			}
			if grpcListen != "" {
				svc.GRPCListen = &grpcListen
			}

			if path := svc.GetLogFile(); path != "" {
				closer, err := monitoring.OpenRotatingLog(monitoring.RotatingLog{Path: path})
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer closer.Close()
			}

			s, err := newService(svc, noHistory)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return s.run(ctx, svc.GetListen())
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides the service config)")
	cmd.Flags().StringVar(&grpcListen, "grpc-listen", "", "gRPC listen address (overrides the service config; empty disables gRPC)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record runs in the history database")
	return cmd
}

// service owns everything serve opens.
type service struct {
	handler   http.Handler
	downloads   *stl.Downloads
	downloadTTL time.Duration
	store       *db.DB
	grpc        *grpc.Server
	grpcAddr    string
}

func newService(svc *config.ServiceConfig, noHistory bool) (*service, error) {
	s := &service{
		downloads:   stl.NewDownloads(fsutil.OSFileSystem{}, svc.GetExportDir(), api.DownloadsPrefix),
		downloadTTL: svc.GetDownloadTTL(),
	}
	if !noHistory {
		store, err := db.Open(svc.GetDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		s.store = store
	}

	mux := api.NewServer(tileSource(svc), s.downloads, s.store, svc.GetMaxRequestBytes()).ServeMux()
	if s.store != nil {
		if err := s.store.AttachAdminRoutes(mux); err != nil {
			s.Close()
			return nil, err
		}
	}
	s.handler = api.LoggingMiddleware(mux)

	if addr := svc.GetGRPCListen(); addr != "" {
		s.grpc = rpc.NewGRPCServer(rpc.NewServer(tileSource(svc), s.store))
		s.grpcAddr = addr
	}
	return s, nil
}

func (s *service) run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.downloads.RunSweeper(ctx, min(s.downloadTTL, time.Minute), s.downloadTTL)

	if s.grpc != nil {
		lis, err := net.Listen("tcp", s.grpcAddr)
		if err != nil {
			return fmt.Errorf("failed to listen for gRPC: %w", err)
		}
		go func() {
			log.Printf("sculpt gRPC listening on %s", lis.Addr())
			if err := s.grpc.Serve(lis); err != nil {
				log.Printf("gRPC server error: %v", err)
			}
		}()
		defer s.grpc.GracefulStop()
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("sculpt %s listening on %s", version.Version, addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	return nil
}

// Close revokes published downloads and closes the store.
func (s *service) Close() error {
	err := s.downloads.Close()
	if s.store != nil {
		err = errors.Join(err, s.store.Close())
	}
	return err
}
