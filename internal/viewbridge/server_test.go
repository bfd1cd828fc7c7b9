package viewbridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/pokemon-chess-battle/internal/arena"
	"github.com/park285/pokemon-chess-battle/internal/battlestore"
	"github.com/park285/pokemon-chess-battle/pkg/battledto"
)

func newTestArena(t *testing.T, feed arena.Publisher) *arena.Arena {
	t.Helper()
	a, err := arena.Open(context.Background(), arena.Options{
		Slot:    "bridge-test",
		MaxAge:  24 * time.Hour,
		Store:   battlestore.NewMemoryStore(),
		Archive: battlestore.NewMemoryArchive(),
		Feed:    feed,
	})
	if err != nil {
		t.Fatalf("arena.Open: %v", err)
	}
	return a
}

func do(t *testing.T, s *Server, method, uri, body string) *fasthttp.RequestCtx {
	t.Helper()
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBodyString(body)
	}
	s.Handle(&ctx)
	return &ctx
}

func decodeBody[T any](t *testing.T, ctx *fasthttp.RequestCtx) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(ctx.Response.Body(), &v); err != nil {
		t.Fatalf("decode %s: %v", ctx.Response.Body(), err)
	}
	return v
}

func TestHealthAndState(t *testing.T) {
	s := NewServer(newTestArena(t, nil))

	ctx := do(t, s, "GET", "/healthz", "")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("healthz status = %d", ctx.Response.StatusCode())
	}
	health := decodeBody[map[string]string](t, ctx)
	if health["status"] != "ok" || health["battleId"] == "" {
		t.Fatalf("healthz body = %v", health)
	}

	ctx = do(t, s, "GET", "/api/state", "")
	st := decodeBody[battledto.State](t, ctx)
	if st.BattleID != health["battleId"] || st.ToMove != "white" || len(st.Board) != 8 {
		t.Fatalf("state = %+v", st)
	}
	if string(ctx.Response.Header.ContentType()) != "application/json" {
		t.Fatalf("content type = %s", ctx.Response.Header.ContentType())
	}
}

func TestLegalMoves(t *testing.T) {
	s := NewServer(newTestArena(t, nil))

	resp := decodeBody[battledto.LegalMovesResponse](t, do(t, s, "GET", "/api/legal?square=b1", ""))
	if resp.Square != "b1" || len(resp.Moves) != 2 {
		t.Fatalf("legal b1 = %+v", resp)
	}
	if ctx := do(t, s, "GET", "/api/legal?square=z9", ""); ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("bad square status = %d", ctx.Response.StatusCode())
	}
	resp = decodeBody[battledto.LegalMovesResponse](t, do(t, s, "GET", "/api/legal?square=e4", ""))
	if len(resp.Moves) != 0 {
		t.Fatalf("empty square moves = %v", resp.Moves)
	}
}

func TestMoveAcceptedAndRejected(t *testing.T) {
	s := NewServer(newTestArena(t, nil))

	ctx := do(t, s, "POST", "/api/move", `{"from":"e2","to":"e4"}`)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("move status = %d body=%s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	mv := decodeBody[battledto.MoveResponse](t, ctx)
	if mv.Outcome != "moved" || mv.State.ToMove != "black" || mv.State.LastMove == nil || mv.State.LastMove.To != "e4" {
		t.Fatalf("move response = %+v", mv)
	}

	ctx = do(t, s, "POST", "/api/move", `{"from":"e4","to":"e5"}`)
	if ctx.Response.StatusCode() != fasthttp.StatusUnprocessableEntity {
		t.Fatalf("rejected move status = %d", ctx.Response.StatusCode())
	}
	rej := decodeBody[battledto.ErrorResponse](t, ctx)
	if rej.Error.Code != battledto.CodeInvalidMove || rej.State == nil || rej.State.ToMove != "black" {
		t.Fatalf("rejection = %+v", rej)
	}

	for name, body := range map[string]string{
		"empty":      "",
		"bad json":   "{",
		"bad square": `{"from":"e9","to":"e5"}`,
	} {
		if ctx := do(t, s, "POST", "/api/move", body); ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
			t.Fatalf("%s: status = %d", name, ctx.Response.StatusCode())
		}
	}
}

func TestPromoteWithoutPending(t *testing.T) {
	s := NewServer(newTestArena(t, nil))
	for _, body := range []string{`{"kind":"queen"}`, `{"kind":"dragon"}`} {
		ctx := do(t, s, "POST", "/api/promote", body)
		if ctx.Response.StatusCode() != fasthttp.StatusUnprocessableEntity {
			t.Fatalf("%s: status = %d", body, ctx.Response.StatusCode())
		}
		if rej := decodeBody[battledto.ErrorResponse](t, ctx); rej.Error.Code != battledto.CodeInvalidPromotion {
			t.Fatalf("%s: code = %q", body, rej.Error.Code)
		}
	}
}

func TestUndoAndReset(t *testing.T) {
	s := NewServer(newTestArena(t, nil))

	undo := decodeBody[battledto.UndoResponse](t, do(t, s, "POST", "/api/undo", ""))
	if undo.Undone {
		t.Fatalf("undo on fresh battle reported success")
	}
	do(t, s, "POST", "/api/move", `{"from":"g1","to":"f3"}`)
	undo = decodeBody[battledto.UndoResponse](t, do(t, s, "POST", "/api/undo", ""))
	if !undo.Undone || undo.State.ToMove != "white" || undo.State.Board[7][6] == nil {
		t.Fatalf("undo = %+v", undo)
	}

	before := decodeBody[battledto.State](t, do(t, s, "GET", "/api/state", ""))
	after := decodeBody[battledto.State](t, do(t, s, "POST", "/api/reset", ""))
	if after.BattleID == before.BattleID {
		t.Fatalf("reset kept battle id %s", after.BattleID)
	}
}

func TestResults(t *testing.T) {
	s := NewServer(newTestArena(t, nil))
	for _, mv := range []string{
		`{"from":"f2","to":"f3"}`, `{"from":"e7","to":"e5"}`,
		`{"from":"g2","to":"g4"}`, `{"from":"d8","to":"h4"}`,
	} {
		if ctx := do(t, s, "POST", "/api/move", mv); ctx.Response.StatusCode() != fasthttp.StatusOK {
			t.Fatalf("move %s: %s", mv, ctx.Response.Body())
		}
	}
	res := decodeBody[battledto.ResultsResponse](t, do(t, s, "GET", "/api/results?limit=5", ""))
	if len(res.Results) != 1 || res.Results[0].Winner != "black" || res.Results[0].Outcome != "checkmate" {
		t.Fatalf("results = %+v", res.Results)
	}
	if ctx := do(t, s, "GET", "/api/results?limit=-1", ""); ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("negative limit status = %d", ctx.Response.StatusCode())
	}
}

func TestUnknownRoute(t *testing.T) {
	s := NewServer(newTestArena(t, nil))
	ctx := do(t, s, "DELETE", "/api/state", "")
	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	if rej := decodeBody[battledto.ErrorResponse](t, ctx); rej.Error.Code != battledto.CodeNotFound {
		t.Fatalf("code = %q", rej.Error.Code)
	}
}
