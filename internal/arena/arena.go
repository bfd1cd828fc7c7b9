package arena

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/pokemon-chess-battle/internal/adapter/battlepresenter"
	"github.com/park285/pokemon-chess-battle/internal/battle"
	"github.com/park285/pokemon-chess-battle/internal/battlestore"
	"github.com/park285/pokemon-chess-battle/internal/obslog"
	"github.com/park285/pokemon-chess-battle/internal/roster"
	"github.com/park285/pokemon-chess-battle/pkg/battledto"
)

// Publisher receives the state after every accepted mutation.
type Publisher interface {
	Publish(ctx context.Context, st *battledto.State)
}

type Options struct {
	Slot    string
	MaxAge  time.Duration // saves older than this are discarded on Open; 0 keeps all
	Store   battlestore.Store
	Archive battlestore.Archive
	Roster  *roster.Catalog
	Feed    Publisher
	Clock   func() time.Time
}

// Arena owns the single battle of the process and serializes access to it.
type Arena struct {
	mu sync.Mutex

	engine    *battle.Engine
	battleID  string
	startedAt time.Time
	updatedAt time.Time

	slot      string
	maxAge    time.Duration
	store     battlestore.Store
	archive   battlestore.Archive
	roster    *roster.Catalog
	presenter *battlepresenter.Presenter
	feed      Publisher
	now       func() time.Time
	log       *zap.Logger
}

// Open restores the battle saved in opts.Slot, or starts a fresh one when
// the slot is empty, expired, or unreadable.
func Open(ctx context.Context, opts Options) (*Arena, error) {
	a := &Arena{
		slot:    strings.TrimSpace(opts.Slot),
		maxAge:  opts.MaxAge,
		store:   opts.Store,
		archive: opts.Archive,
		roster:  opts.Roster,
		feed:    opts.Feed,
		now:     opts.Clock,
		log:     obslog.L(),
	}
	if a.slot == "" {
		return nil, fmt.Errorf("save slot required")
	}
	if a.roster == nil {
		a.roster = roster.Default()
	}
	if a.now == nil {
		a.now = time.Now
	}
	a.presenter = battlepresenter.New(a.roster)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.resume(ctx) {
		a.archiveIfFinished(ctx)
		return a, nil
	}
	a.startFresh()
	if err := a.save(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Arena) engineOptions() []battle.Option {
	return []battle.Option{
		battle.WithNarrator(a.roster),
		battle.WithLogger(a.log.Named("battle")),
		battle.WithClock(a.now),
	}
}

// resume loads the slot. It reports false when a fresh battle is needed.
func (a *Arena) resume(ctx context.Context) bool {
	if a.store == nil {
		return false
	}
	saved, err := a.store.Load(ctx, a.slot)
	if err != nil {
		// 손상된 저장본은 통째로 버린다
		a.log.Warn("arena_load_discarded", zap.String("slot", a.slot), zap.Error(err))
		return false
	}
	if saved == nil {
		return false
	}
	if age := a.now().Sub(saved.Snapshot.Timestamp); a.maxAge > 0 && age > a.maxAge {
		a.log.Info("arena_load_expired",
			zap.String("slot", a.slot),
			zap.String("battle_id", saved.BattleID),
			zap.Duration("age", age),
		)
		return false
	}
	eng, err := battle.Restore(saved.Snapshot, a.engineOptions()...)
	if err != nil {
		a.log.Warn("arena_load_discarded", zap.String("slot", a.slot), zap.Error(err))
		return false
	}
	a.engine = eng
	a.battleID = saved.BattleID
	a.startedAt = saved.StartedAt
	a.updatedAt = saved.Snapshot.Timestamp
	a.log.Info("arena_resume",
		zap.String("battle_id", a.battleID),
		zap.Int("turn", eng.State().TurnCounter),
		zap.Stringer("status", eng.Status()),
	)
	return true
}

func (a *Arena) startFresh() {
	a.engine = battle.New(a.engineOptions()...)
	a.battleID = uuid.NewString()
	a.startedAt = a.now()
	a.updatedAt = a.startedAt
	a.log.Info("arena_battle_start", zap.String("battle_id", a.battleID))
}

func (a *Arena) save(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	saved := battlestore.SavedBattle{
		BattleID:  a.battleID,
		StartedAt: a.startedAt,
		Snapshot:  a.engine.Snapshot(),
	}
	if err := a.store.Save(ctx, a.slot, saved); err != nil {
		return fmt.Errorf("save battle: %w", err)
	}
	return nil
}

// commit runs after every accepted mutation. Persistence failures are
// logged; the in-memory battle stays authoritative.
func (a *Arena) commit(ctx context.Context, event string) *battledto.State {
	a.updatedAt = a.now()
	if err := a.save(ctx); err != nil {
		a.log.Error("arena_autosave_error", zap.String("battle_id", a.battleID), zap.Error(err))
	}
	a.archiveIfFinished(ctx)
	st := a.stateLocked()
	a.log.Info(event,
		zap.String("battle_id", a.battleID),
		zap.String("status", st.Status),
		zap.String("to_move", st.ToMove),
		zap.Int("turn", st.TurnCounter),
	)
	if a.feed != nil {
		a.feed.Publish(ctx, st)
	}
	return st
}

func (a *Arena) archiveIfFinished(ctx context.Context) {
	if a.archive == nil || !a.engine.Status().Terminal() {
		return
	}
	v := a.engine.State()
	r := battlestore.Result{
		BattleID:  a.battleID,
		Outcome:   v.Status.String(),
		TurnCount: v.TurnCounter,
		HalfMoves: len(a.engine.Snapshot().History),
		MoveList:  v.MoveList,
		StartedAt: a.startedAt,
		EndedAt:   a.updatedAt,
	}
	if v.Status == battle.StatusCheckmate {
		r.Winner = v.ToMove.Opponent().String()
	}
	if err := a.archive.SaveResult(ctx, r); err != nil {
		a.log.Error("arena_archive_error", zap.String("battle_id", a.battleID), zap.Error(err))
		return
	}
	a.log.Info("arena_archive", zap.String("battle_id", a.battleID), zap.String("outcome", r.Outcome), zap.String("winner", r.Winner))
}

func (a *Arena) stateLocked() *battledto.State {
	return a.presenter.ToDTOState(a.battleID, a.engine.State(), a.startedAt, a.updatedAt)
}

// State returns the current read model.
func (a *Arena) State(ctx context.Context) *battledto.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateLocked()
}

// BattleID identifies the current battle; it changes on Reset.
func (a *Arena) BattleID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.battleID
}

// LegalMoves lists destinations for the piece on sq.
func (a *Arena) LegalMoves(ctx context.Context, sq battle.Square) []battle.Square {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.LegalMoves(sq)
}

// Move plays from-to. On rejection the unchanged state is returned with the error.
func (a *Arena) Move(ctx context.Context, from, to battle.Square) (battle.MoveOutcome, *battledto.State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out, err := a.engine.AttemptMove(from, to)
	if err != nil {
		return 0, a.stateLocked(), err
	}
	return out, a.commit(ctx, "arena_move"), nil
}

// Promote completes a pending promotion.
func (a *Arena) Promote(ctx context.Context, kind battle.PieceKind) (battle.MoveOutcome, *battledto.State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out, err := a.engine.CompletePromotion(kind)
	if err != nil {
		return 0, a.stateLocked(), err
	}
	return out, a.commit(ctx, "arena_promote"), nil
}

// Undo takes back the last half-move. It returns battle.ErrEmptyHistory
// when there is none.
func (a *Arena) Undo(ctx context.Context) (*battledto.State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.engine.Undo() {
		return a.stateLocked(), battle.ErrEmptyHistory
	}
	return a.commit(ctx, "arena_undo"), nil
}

// Reset starts a new battle with a new id.
func (a *Arena) Reset(ctx context.Context) *battledto.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.startFresh()
	return a.commit(ctx, "arena_reset")
}

// Results lists archived battles, newest first.
func (a *Arena) Results(ctx context.Context, limit int) ([]battlestore.Result, error) {
	if a.archive == nil {
		return nil, errors.New("battle archive not configured")
	}
	return a.archive.RecentResults(ctx, limit)
}
