package viewbridge

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/pokemon-chess-battle/internal/adapter/battlepresenter"
	"github.com/park285/pokemon-chess-battle/internal/arena"
	"github.com/park285/pokemon-chess-battle/internal/battle"
	"github.com/park285/pokemon-chess-battle/internal/obslog"
	"github.com/park285/pokemon-chess-battle/pkg/battledto"
)

const (
	defaultResultsLimit = 20
	maxResultsLimit     = 200
)

// Server exposes the arena to a local presentation client over HTTP.
type Server struct {
	arena *arena.Arena
	http  *fasthttp.Server
	log   *zap.Logger
}

func NewServer(a *arena.Arena) *Server {
	s := &Server{arena: a, log: obslog.L().Named("bridge")}
	s.http = &fasthttp.Server{
		Handler:               s.Handle,
		Name:                  "pokemon-chess-battle",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
		MaxRequestBodySize:    64 << 10,
		NoDefaultServerHeader: true,
	}
	return s
}

// Serve blocks until ln is closed or Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("bridge_listen", zap.String("addr", ln.Addr().String()))
	return s.http.Serve(ln)
}

func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.ShutdownWithContext(ctx)
}

// Handle routes a request. It is exported so tests can drive a bare RequestCtx.
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	method := string(ctx.Method())
	path := string(ctx.Path())

	switch {
	case method == fasthttp.MethodGet && path == "/healthz":
		s.writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok", "battleId": s.arena.BattleID()})
	case method == fasthttp.MethodGet && path == "/api/state":
		s.writeJSON(ctx, fasthttp.StatusOK, s.arena.State(ctx))
	case method == fasthttp.MethodGet && path == "/api/legal":
		s.handleLegal(ctx)
	case method == fasthttp.MethodPost && path == "/api/move":
		s.handleMove(ctx)
	case method == fasthttp.MethodPost && path == "/api/promote":
		s.handlePromote(ctx)
	case method == fasthttp.MethodPost && path == "/api/undo":
		s.handleUndo(ctx)
	case method == fasthttp.MethodPost && path == "/api/reset":
		s.writeJSON(ctx, fasthttp.StatusOK, s.arena.Reset(ctx))
	case method == fasthttp.MethodGet && path == "/api/results":
		s.handleResults(ctx)
	default:
		s.writeError(ctx, fasthttp.StatusNotFound, battledto.CodeNotFound, "no route for "+method+" "+path, nil)
	}

	s.log.Debug("bridge_request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", ctx.Response.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *Server) handleLegal(ctx *fasthttp.RequestCtx) {
	raw := string(ctx.QueryArgs().Peek("square"))
	sq, err := battle.ParseSquare(raw)
	if err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, battledto.CodeBadRequest, err.Error(), nil)
		return
	}
	moves := s.arena.LegalMoves(ctx, sq)
	s.writeJSON(ctx, fasthttp.StatusOK, battledto.LegalMovesResponse{
		Square: sq.String(),
		Moves:  battlepresenter.ToDTOSquares(moves),
	})
}

func (s *Server) handleMove(ctx *fasthttp.RequestCtx) {
	var req battledto.MoveRequest
	if !s.decode(ctx, &req) {
		return
	}
	from, err := battle.ParseSquare(req.From)
	if err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, battledto.CodeBadRequest, "from: "+err.Error(), nil)
		return
	}
	to, err := battle.ParseSquare(req.To)
	if err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, battledto.CodeBadRequest, "to: "+err.Error(), nil)
		return
	}
	out, st, err := s.arena.Move(ctx, from, to)
	if err != nil {
		s.writeDomainError(ctx, err, st)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, battledto.MoveResponse{Outcome: out.String(), State: st})
}

func (s *Server) handlePromote(ctx *fasthttp.RequestCtx) {
	var req battledto.PromoteRequest
	if !s.decode(ctx, &req) {
		return
	}
	kind, err := battle.ParsePieceKind(req.Kind)
	if err != nil {
		// 알 수 없는 이름도 승급 선택 오류로 취급
		st := s.arena.State(ctx)
		s.writeDomainError(ctx, &battle.PromotionError{Kind: battle.NoKind, Reason: err.Error()}, st)
		return
	}
	out, st, err := s.arena.Promote(ctx, kind)
	if err != nil {
		s.writeDomainError(ctx, err, st)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, battledto.MoveResponse{Outcome: out.String(), State: st})
}

func (s *Server) handleUndo(ctx *fasthttp.RequestCtx) {
	st, err := s.arena.Undo(ctx)
	if errors.Is(err, battle.ErrEmptyHistory) {
		// nothing to undo is not a failure for the client
		s.writeJSON(ctx, fasthttp.StatusOK, battledto.UndoResponse{Undone: false, State: st})
		return
	}
	if err != nil {
		s.writeDomainError(ctx, err, st)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, battledto.UndoResponse{Undone: true, State: st})
}

func (s *Server) handleResults(ctx *fasthttp.RequestCtx) {
	limit := defaultResultsLimit
	if raw := strings.TrimSpace(string(ctx.QueryArgs().Peek("limit"))); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(ctx, fasthttp.StatusBadRequest, battledto.CodeBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = min(n, maxResultsLimit)
	}
	results, err := s.arena.Results(ctx, limit)
	if err != nil {
		s.writeDomainError(ctx, err, nil)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, battledto.ResultsResponse{Results: battlepresenter.ToDTOResults(results)})
}

func (s *Server) decode(ctx *fasthttp.RequestCtx, out any) bool {
	body := ctx.PostBody()
	if len(body) == 0 {
		s.writeError(ctx, fasthttp.StatusBadRequest, battledto.CodeBadRequest, "request body required", nil)
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, battledto.CodeBadRequest, "decode request: "+err.Error(), nil)
		return false
	}
	return true
}

// writeDomainError maps engine errors to status codes. Rule rejections carry
// the unchanged state so the client can redraw.
func (s *Server) writeDomainError(ctx *fasthttp.RequestCtx, err error, st *battledto.State) {
	var moveErr *battle.MoveError
	switch {
	case errors.As(err, &moveErr):
		s.writeError(ctx, fasthttp.StatusUnprocessableEntity, battledto.CodeInvalidMove, err.Error(), st)
	case errors.Is(err, battle.ErrInvalidPromotionChoice):
		s.writeError(ctx, fasthttp.StatusUnprocessableEntity, battledto.CodeInvalidPromotion, err.Error(), st)
	case errors.Is(err, battle.ErrEmptyHistory):
		s.writeError(ctx, fasthttp.StatusUnprocessableEntity, battledto.CodeEmptyHistory, err.Error(), st)
	default:
		s.log.Error("bridge_internal_error", zap.String("path", string(ctx.Path())), zap.Error(err))
		s.writeError(ctx, fasthttp.StatusInternalServerError, battledto.CodeInternal, "internal error", nil)
	}
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, status int, code, msg string, st *battledto.State) {
	resp := battledto.ErrorResponse{
		Error: battledto.DomainError{Code: code, Message: msg, Retryable: status >= 500},
		State: st,
	}
	s.writeJSON(ctx, status, resp)
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.log.Error("bridge_encode_error", zap.Error(err))
		ctx.Error(`{"error":{"code":"internal","message":"encode response"}}`, fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(payload)
}
