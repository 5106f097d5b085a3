package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"SiamKingdoms/internal/game/app/port"
	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/shared/gameconfig/troopcfg"
)

// fakeStore 内存版持久层，供处理器测试使用。单线程驱动，不加锁。
type fakeStore struct {
	villages  map[domain.VillageID]*domain.Village
	buildings map[domain.BuildingID]*domain.Building
	queue     map[domain.ConstructionQueueID]*domain.ConstructionQueueEntry
	garrisons map[garrisonKey]*domain.Garrison
	trainings map[domain.TrainingQueueID]*domain.TrainingQueueEntry
	armies    map[domain.ArmyID]*domain.Army
	nextID    int64
}

type garrisonKey struct {
	villageID domain.VillageID
	troopType troopcfg.TroopType
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		villages:  make(map[domain.VillageID]*domain.Village),
		buildings: make(map[domain.BuildingID]*domain.Building),
		queue:     make(map[domain.ConstructionQueueID]*domain.ConstructionQueueEntry),
		garrisons: make(map[garrisonKey]*domain.Garrison),
		trainings: make(map[domain.TrainingQueueID]*domain.TrainingQueueEntry),
		armies:    make(map[domain.ArmyID]*domain.Army),
	}
}

func (s *fakeStore) genID() int64 {
	s.nextID++
	return s.nextID
}

// WithTx 模拟真实事务：闭包报错时整份状态回滚。
func (s *fakeStore) WithTx(ctx context.Context, fn func(tx port.Store) error) error {
	snap := s.clone()
	if err := fn(s); err != nil {
		s.villages, s.buildings, s.queue = snap.villages, snap.buildings, snap.queue
		s.garrisons, s.trainings, s.armies = snap.garrisons, snap.trainings, snap.armies
		s.nextID = snap.nextID
		return err
	}
	return nil
}

func (s *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	c.nextID = s.nextID
	for id, v := range s.villages {
		cv := *v
		c.villages[id] = &cv
	}
	for id, b := range s.buildings {
		cb := *b
		c.buildings[id] = &cb
	}
	for id, e := range s.queue {
		ce := *e
		c.queue[id] = &ce
	}
	for k, g := range s.garrisons {
		cg := *g
		c.garrisons[k] = &cg
	}
	for id, e := range s.trainings {
		ce := *e
		c.trainings[id] = &ce
	}
	for id, a := range s.armies {
		ca := *a
		ca.Troops = a.Troops.Clone()
		c.armies[id] = &ca
	}
	return c
}

func (s *fakeStore) Villages() port.VillageRepository   { return &fakeVillageRepo{s} }
func (s *fakeStore) Buildings() port.BuildingRepository { return &fakeBuildingRepo{s} }
func (s *fakeStore) Troops() port.TroopRepository       { return &fakeTroopRepo{s} }
func (s *fakeStore) Armies() port.ArmyRepository        { return &fakeArmyRepo{s} }

func (s *fakeStore) putGarrison(villageID domain.VillageID, t troopcfg.TroopType, count, inVillage int) {
	s.garrisons[garrisonKey{villageID, t}] = &domain.Garrison{
		VillageID: villageID, Type: t, Count: count, InVillage: inVillage,
	}
}

type fakeVillageRepo struct{ s *fakeStore }

func (r *fakeVillageRepo) Get(ctx context.Context, id domain.VillageID) (*domain.Village, error) {
	v, ok := r.s.villages[id]
	if !ok {
		return nil, domain.ErrVillageNotFound
	}
	return v, nil
}

func (r *fakeVillageRepo) GetForUpdate(ctx context.Context, id domain.VillageID) (*domain.Village, error) {
	return r.Get(ctx, id)
}

func (r *fakeVillageRepo) FindByCoordinates(ctx context.Context, x, y int) (*domain.Village, error) {
	for _, v := range r.s.villages {
		if v.X == x && v.Y == y {
			return v, nil
		}
	}
	return nil, domain.ErrVillageNotFound
}

func (r *fakeVillageRepo) ListIDs(ctx context.Context) ([]domain.VillageID, error) {
	out := make([]domain.VillageID, 0, len(r.s.villages))
	for id := range r.s.villages {
		out = append(out, id)
	}
	return out, nil
}

func (r *fakeVillageRepo) Create(ctx context.Context, v *domain.Village) error {
	if v.ID == 0 {
		v.ID = domain.VillageID(r.s.genID())
	}
	r.s.villages[v.ID] = v
	return nil
}

func (r *fakeVillageRepo) Save(ctx context.Context, v *domain.Village) error {
	r.s.villages[v.ID] = v
	return nil
}

type fakeBuildingRepo struct{ s *fakeStore }

func (r *fakeBuildingRepo) Get(ctx context.Context, id domain.BuildingID) (*domain.Building, error) {
	b, ok := r.s.buildings[id]
	if !ok {
		return nil, fmt.Errorf("building %d not found", id)
	}
	return b, nil
}

func (r *fakeBuildingRepo) ListByVillage(ctx context.Context, villageID domain.VillageID) ([]*domain.Building, error) {
	var out []*domain.Building
	for _, b := range r.s.buildings {
		if b.VillageID == villageID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBuildingRepo) Save(ctx context.Context, b *domain.Building) error {
	if b.ID == 0 {
		b.ID = domain.BuildingID(r.s.genID())
	}
	r.s.buildings[b.ID] = b
	return nil
}

func (r *fakeBuildingRepo) DueConstruction(ctx context.Context, now time.Time) ([]*domain.ConstructionQueueEntry, error) {
	var out []*domain.ConstructionQueueEntry
	for _, e := range r.s.queue {
		if e.InProgress && !e.EndsAt.After(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeBuildingRepo) NextQueued(ctx context.Context, villageID domain.VillageID) (*domain.ConstructionQueueEntry, error) {
	var next *domain.ConstructionQueueEntry
	for _, e := range r.s.queue {
		if e.VillageID != villageID || e.InProgress {
			continue
		}
		if next == nil || e.ID < next.ID {
			next = e
		}
	}
	return next, nil
}

func (r *fakeBuildingRepo) InProgressCount(ctx context.Context, villageID domain.VillageID) (int, error) {
	n := 0
	for _, e := range r.s.queue {
		if e.VillageID == villageID && e.InProgress {
			n++
		}
	}
	return n, nil
}

func (r *fakeBuildingRepo) SaveQueueEntry(ctx context.Context, e *domain.ConstructionQueueEntry) error {
	if e.ID == 0 {
		e.ID = domain.ConstructionQueueID(r.s.genID())
	}
	r.s.queue[e.ID] = e
	return nil
}

func (r *fakeBuildingRepo) DeleteQueueEntry(ctx context.Context, id domain.ConstructionQueueID) error {
	delete(r.s.queue, id)
	return nil
}

type fakeTroopRepo struct{ s *fakeStore }

// GarrisonByVillage 返回快照副本：真实仓储每次查询都是新行，
// 后续写操作不应影响已读出的切片。
func (r *fakeTroopRepo) GarrisonByVillage(ctx context.Context, villageID domain.VillageID) ([]*domain.Garrison, error) {
	var out []*domain.Garrison
	for _, g := range r.s.garrisons {
		if g.VillageID == villageID {
			snapshot := *g
			out = append(out, &snapshot)
		}
	}
	return out, nil
}

func (r *fakeTroopRepo) AddTroops(ctx context.Context, villageID domain.VillageID, t troopcfg.TroopType, count int) error {
	key := garrisonKey{villageID, t}
	g, ok := r.s.garrisons[key]
	if !ok {
		g = &domain.Garrison{VillageID: villageID, Type: t}
		r.s.garrisons[key] = g
	}
	g.Count += count
	g.InVillage += count
	return nil
}

func (r *fakeTroopRepo) KillTroops(ctx context.Context, villageID domain.VillageID, t troopcfg.TroopType, count int) error {
	if g, ok := r.s.garrisons[garrisonKey{villageID, t}]; ok {
		g.Count = max(g.Count-count, 0)
		g.InVillage = max(g.InVillage-count, 0)
	}
	return nil
}

func (r *fakeTroopRepo) ReduceCount(ctx context.Context, villageID domain.VillageID, t troopcfg.TroopType, count int) error {
	if g, ok := r.s.garrisons[garrisonKey{villageID, t}]; ok {
		g.Count = max(g.Count-count, 0)
	}
	return nil
}

func (r *fakeTroopRepo) AdjustInVillage(ctx context.Context, villageID domain.VillageID, t troopcfg.TroopType, delta int) error {
	if g, ok := r.s.garrisons[garrisonKey{villageID, t}]; ok {
		g.InVillage = min(max(g.InVillage+delta, 0), g.Count)
	}
	return nil
}

func (r *fakeTroopRepo) DueTraining(ctx context.Context, now time.Time) ([]*domain.TrainingQueueEntry, error) {
	var out []*domain.TrainingQueueEntry
	for _, e := range r.s.trainings {
		if !e.EndsAt.IsZero() && !e.EndsAt.After(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeTroopRepo) NextTraining(ctx context.Context, villageID domain.VillageID) (*domain.TrainingQueueEntry, error) {
	var next *domain.TrainingQueueEntry
	for _, e := range r.s.trainings {
		if e.VillageID != villageID || !e.EndsAt.IsZero() {
			continue
		}
		if next == nil || e.ID < next.ID {
			next = e
		}
	}
	return next, nil
}

func (r *fakeTroopRepo) CountTraining(ctx context.Context, villageID domain.VillageID) (int, error) {
	n := 0
	for _, e := range r.s.trainings {
		if e.VillageID == villageID {
			n++
		}
	}
	return n, nil
}

func (r *fakeTroopRepo) SaveTraining(ctx context.Context, e *domain.TrainingQueueEntry) error {
	if e.ID == 0 {
		e.ID = domain.TrainingQueueID(r.s.genID())
	}
	r.s.trainings[e.ID] = e
	return nil
}

func (r *fakeTroopRepo) DeleteTraining(ctx context.Context, id domain.TrainingQueueID) error {
	delete(r.s.trainings, id)
	return nil
}

type fakeArmyRepo struct{ s *fakeStore }

func (r *fakeArmyRepo) Get(ctx context.Context, id domain.ArmyID) (*domain.Army, error) {
	a, ok := r.s.armies[id]
	if !ok {
		return nil, domain.ErrArmyNotFound
	}
	return a, nil
}

func (r *fakeArmyRepo) DueArrivals(ctx context.Context, now time.Time) ([]*domain.Army, error) {
	var out []*domain.Army
	for _, a := range r.s.armies {
		if !a.Stationed && !a.Returning && !a.ArrivesAt.After(now) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeArmyRepo) DueReturns(ctx context.Context, now time.Time) ([]*domain.Army, error) {
	var out []*domain.Army
	for _, a := range r.s.armies {
		if a.Returning && !a.ReturningAt.After(now) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeArmyRepo) StationedAt(ctx context.Context, villageID domain.VillageID) ([]*domain.Army, error) {
	var out []*domain.Army
	for _, a := range r.s.armies {
		if a.Stationed && a.ToVillageID == villageID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeArmyRepo) Create(ctx context.Context, a *domain.Army) error {
	if a.ID == 0 {
		a.ID = domain.ArmyID(r.s.genID())
	}
	r.s.armies[a.ID] = a
	return nil
}

func (r *fakeArmyRepo) Save(ctx context.Context, a *domain.Army) error {
	r.s.armies[a.ID] = a
	return nil
}

func (r *fakeArmyRepo) Delete(ctx context.Context, id domain.ArmyID) error {
	delete(r.s.armies, id)
	return nil
}

// fakeReportRepo 只记录归档调用。
type fakeReportRepo struct {
	battles     []*domain.BattleReport
	scouts      []*domain.ScoutReport
	starvations []*domain.StarvationReport
}

func (r *fakeReportRepo) SaveBattleReport(ctx context.Context, br *domain.BattleReport) error {
	r.battles = append(r.battles, br)
	return nil
}

func (r *fakeReportRepo) SaveScoutReport(ctx context.Context, sr *domain.ScoutReport) error {
	r.scouts = append(r.scouts, sr)
	return nil
}

func (r *fakeReportRepo) SaveStarvationReport(ctx context.Context, sr *domain.StarvationReport) error {
	r.starvations = append(r.starvations, sr)
	return nil
}

func (r *fakeReportRepo) ListBattleReports(ctx context.Context, playerID domain.PlayerID, limit int) ([]*domain.BattleReport, error) {
	return nil, nil
}

func (r *fakeReportRepo) GetBattleReport(ctx context.Context, id domain.ReportID) (*domain.BattleReport, error) {
	return nil, domain.ErrReportNotFound
}

func (r *fakeReportRepo) MarkBattleReportRead(ctx context.Context, id domain.ReportID, playerID domain.PlayerID) error {
	return nil
}

func (r *fakeReportRepo) CountUnreadBattleReports(ctx context.Context, playerID domain.PlayerID) (int64, error) {
	return 0, nil
}

type publishedEvent struct {
	channel string
	event   domain.Event
}

type fakePublisher struct {
	events []publishedEvent
}

func (p *fakePublisher) Publish(channel string, ev domain.Event) {
	p.events = append(p.events, publishedEvent{channel: channel, event: ev})
}

func (p *fakePublisher) byType(t domain.EventType) []publishedEvent {
	var out []publishedEvent
	for _, pe := range p.events {
		if pe.event.Type == t {
			out = append(out, pe)
		}
	}
	return out
}

func TestFakeStoreWithTx_报错回滚(t *testing.T) {
	store := newFakeStore()
	store.putGarrison(1, troopcfg.Infantry, 5, 5)

	boom := errors.New("boom")
	err := store.WithTx(context.Background(), func(tx port.Store) error {
		if err := tx.Troops().AddTroops(context.Background(), 1, troopcfg.Infantry, 10); err != nil {
			return err
		}
		if err := tx.Troops().SaveTraining(context.Background(), &domain.TrainingQueueEntry{VillageID: 1}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	if g := store.garrisons[garrisonKey{1, troopcfg.Infantry}]; g.Count != 5 || g.InVillage != 5 {
		t.Fatalf("garrison = %d/%d, want rolled back to 5/5", g.Count, g.InVillage)
	}
	if len(store.trainings) != 0 {
		t.Fatalf("trainings = %d, want rolled back to 0", len(store.trainings))
	}
}
