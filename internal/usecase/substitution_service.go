package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/pitch"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/subplan"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/cache"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/logging"
)

// BatchEntry is one substitution of a confirmation dialog with its
// participants resolved. When a player id no longer resolves against the
// live roster the entry falls back to the last-known cached snapshot and
// Stale is set; the dialog degrades rather than failing pitch-side.
type BatchEntry struct {
	Event      subplan.Event
	Outgoing   pitch.Player
	Incoming   pitch.Player
	SwapPlayer *pitch.Player
	Stale      bool
}

// BatchView is one due batch prepared for display.
type BatchView struct {
	Key              subplan.BatchKey
	Steps            int
	CountdownSeconds int
	Entries          []BatchEntry
}

// SubstitutionService runs the scheduled-substitution state machine of one
// session: due detection, batch confirmation and skipping, and the option
// search entry point. All roster mutation in the engine happens here or in
// explicit admin overrides; computed options are advisory only.
type SubstitutionService struct {
	mu       sync.Mutex
	roster   *pitch.Roster
	plan     subplan.Plan
	clock    *ClockService
	players  *cache.Store
	logger   *logging.Logger
	onChange func()
}

func NewSubstitutionService(roster *pitch.Roster, plan subplan.Plan, clock *ClockService, players *cache.Store, logger *logging.Logger) *SubstitutionService {
	if players == nil {
		players = cache.NewStore(0)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SubstitutionService{
		roster:  roster,
		plan:    subplan.ClonePlan(plan),
		clock:   clock,
		players: players,
		logger:  logger,
	}
}

// SetOnChange registers a hook invoked after every committed roster or plan
// mutation. The session uses it to persist local state and nudge the sync
// service.
func (s *SubstitutionService) SetOnChange(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = hook
}

// Roster returns the live roster.
func (s *SubstitutionService) Roster() *pitch.Roster {
	return s.roster
}

// Plan returns a copy of the current plan.
func (s *SubstitutionService) Plan() subplan.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return subplan.ClonePlan(s.plan)
}

// PlanActive reports whether a substitution plan is currently in effect.
func (s *SubstitutionService) PlanActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan.Active
}

// SetPlan replaces the authored plan.
func (s *SubstitutionService) SetPlan(ctx context.Context, plan subplan.Plan) error {
	for _, event := range plan.Events {
		if err := event.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	s.mu.Lock()
	s.plan = subplan.ClonePlan(plan)
	for i := range s.plan.Events {
		if s.plan.Events[i].Status == "" {
			s.plan.Events[i].Status = subplan.StatusScheduled
		}
	}
	hook := s.onChange
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "substitution plan replaced", "events", len(plan.Events), "active", plan.Active)
	if hook != nil {
		hook()
	}
	return nil
}

// OptionsFor computes the legal substitutions for the outgoing player. An
// empty result is a valid outcome, including when the player holds no
// pitch position.
func (s *SubstitutionService) OptionsFor(ctx context.Context, playerID string) ([]pitch.Option, error) {
	outgoing, ok := s.roster.ByID(playerID)
	if !ok {
		return nil, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	s.rememberPlayers(ctx, s.roster.Players())

	return pitch.ComputeOptions(outgoing, s.roster.Bench(), s.roster.OnPitch()), nil
}

// DueBatches marks newly due events and returns every batch awaiting
// confirmation, prepared for display. The due transition is the pure
// elapsed-time comparison; the countdown ticker never drives it.
func (s *SubstitutionService) DueBatches(ctx context.Context) []BatchView {
	elapsed := s.clock.Elapsed()
	half := s.clock.Half()

	s.mu.Lock()
	for i := range s.plan.Events {
		event := &s.plan.Events[i]
		if event.Status == subplan.StatusScheduled && event.DueAt(elapsed, half) {
			event.Status = subplan.StatusDue
		}
	}

	pending := make([]subplan.Event, 0, len(s.plan.Events))
	for _, event := range s.plan.Events {
		if event.Status == subplan.StatusDue {
			pending = append(pending, subplan.CloneEvent(event))
		}
	}
	s.mu.Unlock()

	batches := subplan.GroupBatches(pending)
	views := make([]BatchView, 0, len(batches))
	for _, batch := range batches {
		views = append(views, BatchView{
			Key:              batch.Key,
			Steps:            batch.Steps(),
			CountdownSeconds: countdownSeconds(batch.Key, elapsed, half),
			Entries:          s.resolveEntries(ctx, batch.Events),
		})
	}
	return views
}

// UpcomingBatches returns batches not yet due, with their countdowns, in
// trigger order.
func (s *SubstitutionService) UpcomingBatches(ctx context.Context) []BatchView {
	elapsed := s.clock.Elapsed()
	half := s.clock.Half()

	s.mu.Lock()
	pending := make([]subplan.Event, 0, len(s.plan.Events))
	for _, event := range s.plan.Events {
		if event.Status == subplan.StatusScheduled && !event.DueAt(elapsed, half) {
			pending = append(pending, subplan.CloneEvent(event))
		}
	}
	s.mu.Unlock()

	batches := subplan.GroupBatches(pending)
	views := make([]BatchView, 0, len(batches))
	for _, batch := range batches {
		views = append(views, BatchView{
			Key:              batch.Key,
			Steps:            batch.Steps(),
			CountdownSeconds: countdownSeconds(batch.Key, elapsed, half),
			Entries:          s.resolveEntries(ctx, batch.Events),
		})
	}
	return views
}

// ConfirmBatch applies every member of the batch atomically: all roster
// mutations commit together or none do.
func (s *SubstitutionService) ConfirmBatch(ctx context.Context, key subplan.BatchKey) error {
	elapsed := s.clock.Elapsed()

	s.mu.Lock()
	defer s.mu.Unlock()

	indexes := s.batchIndexes(key)
	if len(indexes) == 0 {
		return fmt.Errorf("%w: no pending substitutions at %ds half %d", ErrNotFound, key.TriggerSeconds, key.Half)
	}

	staged := s.roster.Clone()
	staged.AccrueThrough(elapsed)

	for _, i := range indexes {
		event := s.plan.Events[i]
		if err := applyEvent(staged, event); err != nil {
			return err
		}
	}
	if err := staged.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.roster.Replace(staged)
	for _, i := range indexes {
		s.plan.Events[i].Status = subplan.StatusConfirmed
	}
	s.rememberPlayers(ctx, s.roster.Players())

	s.logger.InfoContext(ctx, "substitution batch confirmed",
		"trigger_seconds", key.TriggerSeconds,
		"half", key.Half,
		"events", len(indexes),
		"clock_elapsed", elapsed,
	)

	if s.onChange != nil {
		s.onChange()
	}
	return nil
}

// SkipBatch marks every member skipped. No roster mutation occurs and
// skipped events are never retried.
func (s *SubstitutionService) SkipBatch(ctx context.Context, key subplan.BatchKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	indexes := s.batchIndexes(key)
	if len(indexes) == 0 {
		return fmt.Errorf("%w: no pending substitutions at %ds half %d", ErrNotFound, key.TriggerSeconds, key.Half)
	}
	for _, i := range indexes {
		s.plan.Events[i].Status = subplan.StatusSkipped
	}

	s.logger.InfoContext(ctx, "substitution batch skipped",
		"trigger_seconds", key.TriggerSeconds,
		"half", key.Half,
		"events", len(indexes),
	)

	if s.onChange != nil {
		s.onChange()
	}
	return nil
}

// CountdownSeconds returns the display countdown for a batch: seconds until
// its trigger, zero once due. Purely derived; reading it never changes
// event status.
func (s *SubstitutionService) CountdownSeconds(key subplan.BatchKey) int {
	return countdownSeconds(key, s.clock.Elapsed(), s.clock.Half())
}

func countdownSeconds(key subplan.BatchKey, elapsed, half int) int {
	if half > key.Half {
		return 0
	}
	// Triggers live on the same elapsed axis as the clock, so the countdown
	// for a later-half trigger keeps shrinking through the current half and
	// rolls over the break without jumping.
	remaining := key.TriggerSeconds - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// batchIndexes returns the plan indexes of non-terminal events in the
// batch. Callers hold the mutex.
func (s *SubstitutionService) batchIndexes(key subplan.BatchKey) []int {
	indexes := make([]int, 0)
	for i, event := range s.plan.Events {
		if event.Terminal() {
			continue
		}
		if event.BatchKey() == key {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

func applyEvent(staged *pitch.Roster, event subplan.Event) error {
	outgoing, ok := staged.ByID(event.OutgoingID)
	if !ok {
		return fmt.Errorf("%w: outgoing player %s", ErrNotFound, event.OutgoingID)
	}
	if outgoing.PitchPosition == nil {
		return fmt.Errorf("%w: outgoing player %s is not on the pitch", ErrInvalidInput, event.OutgoingID)
	}
	vacated := *outgoing.PitchPosition

	if err := staged.SendToBench(event.OutgoingID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if event.Swap != nil {
		// The swap player rotates into the vacated slot first, then the
		// incoming player takes the slot the swap player left behind.
		if err := staged.Assign(event.Swap.PlayerID, event.Swap.To); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if err := staged.Assign(event.IncomingID, event.Swap.From); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil
	}

	if err := staged.Assign(event.IncomingID, vacated); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func (s *SubstitutionService) resolveEntries(ctx context.Context, events []subplan.Event) []BatchEntry {
	entries := make([]BatchEntry, 0, len(events))
	for _, event := range events {
		entry := BatchEntry{Event: event}

		outgoing, outOK := s.resolvePlayer(ctx, event.OutgoingID)
		incoming, inOK := s.resolvePlayer(ctx, event.IncomingID)
		entry.Outgoing = outgoing
		entry.Incoming = incoming
		entry.Stale = !outOK || !inOK

		if event.Swap != nil {
			swapPlayer, swapOK := s.resolvePlayer(ctx, event.Swap.PlayerID)
			entry.SwapPlayer = &swapPlayer
			if !swapOK {
				entry.Stale = true
			}
		}

		entries = append(entries, entry)
	}
	return entries
}

// resolvePlayer reads a player from the live roster, falling back to the
// last-known cached snapshot. The bool reports a live hit.
func (s *SubstitutionService) resolvePlayer(ctx context.Context, playerID string) (pitch.Player, bool) {
	if player, ok := s.roster.ByID(playerID); ok {
		s.players.Set(ctx, playerCacheKey(playerID), player)
		return player, true
	}
	if cached, ok := s.players.Get(ctx, playerCacheKey(playerID)); ok {
		if player, valid := cached.(pitch.Player); valid {
			return player, false
		}
	}
	s.logger.WarnContext(ctx, "substitution references unknown player", "player_id", playerID)
	return pitch.Player{ID: playerID, Name: playerID}, false
}

func (s *SubstitutionService) rememberPlayers(ctx context.Context, players []pitch.Player) {
	for _, player := range players {
		s.players.Set(ctx, playerCacheKey(player.ID), player)
	}
}

func playerCacheKey(playerID string) string {
	return "player::" + playerID
}
