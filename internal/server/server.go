// Package server はRADIUS UDPサーバーとリスナー監視を提供する。
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/oyaguma3/subscriber-radius/internal/config"
	"layeh.com/radius"
)

// Server はRADIUS UDPサーバーのラッパー
type Server struct {
	ps *radius.PacketServer
}

// NewServer は新しいServerを生成する
func NewServer(addr string, handler radius.Handler, secretSource radius.SecretSource) *Server {
	return &Server{
		ps: &radius.PacketServer{
			Addr:         addr,
			SecretSource: secretSource,
			Handler:      handler,
		},
	}
}

// ListenAndServe はUDPサーバーを起動する
func (s *Server) ListenAndServe() error {
	return s.ps.ListenAndServe()
}

// Serve は既存のPacketConn上でサーバーを起動する
func (s *Server) Serve(conn net.PacketConn) error {
	return s.ps.Serve(conn)
}

// Shutdown はサーバーをグレースフルに停止する
func (s *Server) Shutdown(ctx context.Context) error {
	return s.ps.Shutdown(ctx)
}

// Supervisor はリスナーの異常終了を監視し、再起動する。
type Supervisor struct {
	name    string
	factory func() *Server

	cur      atomic.Pointer[Server]
	stopping atomic.Bool
}

// NewSupervisor は新しいSupervisorを生成する。
// factoryは再起動のたびに呼ばれ、新しいServerを返す。
func NewSupervisor(name string, factory func() *Server) *Supervisor {
	return &Supervisor{name: name, factory: factory}
}

// Run はリスナーを起動し、Shutdownが呼ばれるまで監視する。
// 異常終了時は一定時間待って再起動する。
func (s *Supervisor) Run() {
	for {
		srv := s.factory()
		s.cur.Store(srv)
		if s.stopping.Load() {
			return
		}

		err := srv.ListenAndServe()
		if s.stopping.Load() || errors.Is(err, radius.ErrServerShutdown) {
			return
		}

		slog.Error("リスナーが異常終了",
			"event_id", "LISTENER_ERR",
			"listener", s.name,
			"error", err,
		)
		time.Sleep(config.ListenerRestartDelay)
	}
}

// Shutdown は監視を止め、現在のリスナーをグレースフルに停止する。
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.stopping.Store(true)
	if srv := s.cur.Load(); srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}
