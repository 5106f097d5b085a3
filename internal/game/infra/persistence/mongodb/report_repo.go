package mongodb

import (
	"context"
	"errors"

	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/game/errs"
	"SiamKingdoms/internal/game/infra/persistence/model"
	"SiamKingdoms/internal/shared/gameconfig/troopcfg"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	battleCollectionName     = "battle_reports"
	scoutCollectionName      = "scout_reports"
	starvationCollectionName = "starvation_reports"
)

// ReportRepository 战报档案库。战报在事务提交后归档，与事务型存储解耦。
type ReportRepository struct {
	battles     *mongo.Collection
	scouts      *mongo.Collection
	starvations *mongo.Collection
}

func NewReportRepository(db *mongo.Database) *ReportRepository {
	return &ReportRepository{
		battles:     db.Collection(battleCollectionName),
		scouts:      db.Collection(scoutCollectionName),
		starvations: db.Collection(starvationCollectionName),
	}
}

const OpSaveBattleReport = "repo.report.SaveBattleReport"

func (r *ReportRepository) SaveBattleReport(ctx context.Context, rep *domain.BattleReport) error {
	if rep == nil {
		return nil
	}
	doc := battleReportToDoc(rep)
	_, err := r.battles.ReplaceOne(
		ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errs.Wrap(OpSaveBattleReport, errs.KindInfra, err, map[string]any{"report_id": rep.ID})
	}
	return nil
}

const OpSaveScoutReport = "repo.report.SaveScoutReport"

func (r *ReportRepository) SaveScoutReport(ctx context.Context, rep *domain.ScoutReport) error {
	if rep == nil {
		return nil
	}
	doc := scoutReportToDoc(rep)
	_, err := r.scouts.ReplaceOne(
		ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errs.Wrap(OpSaveScoutReport, errs.KindInfra, err, map[string]any{"report_id": rep.ID})
	}
	return nil
}

const OpSaveStarvationReport = "repo.report.SaveStarvationReport"

func (r *ReportRepository) SaveStarvationReport(ctx context.Context, rep *domain.StarvationReport) error {
	if rep == nil {
		return nil
	}
	doc := &model.StarvationReportDoc{
		ID:          string(rep.ID),
		VillageID:   int64(rep.VillageID),
		PlayerID:    int64(rep.PlayerID),
		TroopsLost:  troopsToDoc(rep.TroopsLost),
		CropDeficit: rep.CropDeficit,
		Read:        rep.Read,
		OccurredAt:  rep.OccurredAt,
	}
	_, err := r.starvations.ReplaceOne(
		ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errs.Wrap(OpSaveStarvationReport, errs.KindInfra, err, map[string]any{"report_id": rep.ID})
	}
	return nil
}

const OpListBattleReports = "repo.report.ListBattleReports"

// ListBattleReports 按发生时间倒序，双方当事人都能看到同一份战报。
func (r *ReportRepository) ListBattleReports(ctx context.Context, playerID domain.PlayerID, limit int) ([]*domain.BattleReport, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"attacker_id": int64(playerID)},
		bson.M{"defender_id": int64(playerID)},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.battles.Find(ctx, filter, opts)
	if err != nil {
		return nil, errs.Wrap(OpListBattleReports, errs.KindInfra, err, map[string]any{"player_id": playerID})
	}
	defer cur.Close(ctx)

	var out []*domain.BattleReport
	for cur.Next(ctx) {
		var doc model.BattleReportDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errs.Wrap(OpListBattleReports, errs.KindInfra, err, nil)
		}
		rep, err := battleReportToEntity(&doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.Wrap(OpListBattleReports, errs.KindInfra, err, nil)
	}
	return out, nil
}

const OpGetBattleReport = "repo.report.GetBattleReport"

func (r *ReportRepository) GetBattleReport(ctx context.Context, id domain.ReportID) (*domain.BattleReport, error) {
	var doc model.BattleReportDoc
	err := r.battles.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if err == nil {
		return battleReportToEntity(&doc)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrReportNotFound
	}
	return nil, errs.Wrap(OpGetBattleReport, errs.KindInfra, err, map[string]any{"report_id": id})
}

const OpMarkBattleReportRead = "repo.report.MarkBattleReportRead"

// MarkBattleReportRead 只翻当事一方自己的标记：先按攻方匹配，不中再按守方。
func (r *ReportRepository) MarkBattleReportRead(ctx context.Context, id domain.ReportID, playerID domain.PlayerID) error {
	res, err := r.battles.UpdateOne(ctx,
		bson.M{"_id": string(id), "attacker_id": int64(playerID)},
		bson.M{"$set": bson.M{"attacker_read": true}},
	)
	if err != nil {
		return errs.Wrap(OpMarkBattleReportRead, errs.KindInfra, err, map[string]any{"report_id": id})
	}
	if res.MatchedCount > 0 {
		return nil
	}
	res, err = r.battles.UpdateOne(ctx,
		bson.M{"_id": string(id), "defender_id": int64(playerID)},
		bson.M{"$set": bson.M{"defender_read": true}},
	)
	if err != nil {
		return errs.Wrap(OpMarkBattleReportRead, errs.KindInfra, err, map[string]any{"report_id": id})
	}
	if res.MatchedCount == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}

const OpCountUnreadBattleReports = "repo.report.CountUnreadBattleReports"

// CountUnreadBattleReports 统计当事人未读的战报数，攻守两侧各看各的标记。
func (r *ReportRepository) CountUnreadBattleReports(ctx context.Context, playerID domain.PlayerID) (int64, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"attacker_id": int64(playerID), "attacker_read": false},
		bson.M{"defender_id": int64(playerID), "defender_read": false},
	}}
	n, err := r.battles.CountDocuments(ctx, filter)
	if err != nil {
		return 0, errs.Wrap(OpCountUnreadBattleReports, errs.KindInfra, err, map[string]any{"player_id": playerID})
	}
	return n, nil
}

func battleReportToDoc(rep *domain.BattleReport) *model.BattleReportDoc {
	return &model.BattleReportDoc{
		ID:              string(rep.ID),
		AttackerID:      int64(rep.AttackerID),
		DefenderID:      int64(rep.DefenderID),
		FromVillageID:   int64(rep.FromVillageID),
		TargetVillageID: int64(rep.TargetVillageID),
		Mission:         string(rep.Mission),
		AttackerTroops:  troopsToDoc(rep.AttackerTroops),
		DefenderTroops:  troopsToDoc(rep.DefenderTroops),
		AttackerLosses:  troopsToDoc(rep.AttackerLosses),
		DefenderLosses:  troopsToDoc(rep.DefenderLosses),
		LootWood:        rep.Loot.Wood,
		LootClay:        rep.Loot.Clay,
		LootIron:        rep.Loot.Iron,
		LootCrop:        rep.Loot.Crop,
		Winner:          string(rep.Winner),
		LoyaltyReduced:  rep.LoyaltyReduced,
		Conquered:       rep.Conquered,
		AttackerRead:    rep.AttackerRead,
		DefenderRead:    rep.DefenderRead,
		OccurredAt:      rep.OccurredAt,
	}
}

func battleReportToEntity(doc *model.BattleReportDoc) (*domain.BattleReport, error) {
	mission, err := domain.ParseMissionKind(doc.Mission)
	if err != nil {
		return nil, errs.Wrap(OpGetBattleReport, errs.KindIntegrity, err, map[string]any{"report_id": doc.ID})
	}
	at, err := troopsFromDoc(doc.AttackerTroops)
	if err != nil {
		return nil, errs.Wrap(OpGetBattleReport, errs.KindIntegrity, err, map[string]any{"report_id": doc.ID})
	}
	dt, err := troopsFromDoc(doc.DefenderTroops)
	if err != nil {
		return nil, errs.Wrap(OpGetBattleReport, errs.KindIntegrity, err, map[string]any{"report_id": doc.ID})
	}
	al, err := troopsFromDoc(doc.AttackerLosses)
	if err != nil {
		return nil, errs.Wrap(OpGetBattleReport, errs.KindIntegrity, err, map[string]any{"report_id": doc.ID})
	}
	dl, err := troopsFromDoc(doc.DefenderLosses)
	if err != nil {
		return nil, errs.Wrap(OpGetBattleReport, errs.KindIntegrity, err, map[string]any{"report_id": doc.ID})
	}
	return &domain.BattleReport{
		ID:              domain.ReportID(doc.ID),
		AttackerID:      domain.PlayerID(doc.AttackerID),
		DefenderID:      domain.PlayerID(doc.DefenderID),
		FromVillageID:   domain.VillageID(doc.FromVillageID),
		TargetVillageID: domain.VillageID(doc.TargetVillageID),
		Mission:         mission,
		AttackerTroops:  at,
		DefenderTroops:  dt,
		AttackerLosses:  al,
		DefenderLosses:  dl,
		Loot: domain.Resources{
			Wood: doc.LootWood,
			Clay: doc.LootClay,
			Iron: doc.LootIron,
			Crop: doc.LootCrop,
		},
		Winner:         domain.BattleWinner(doc.Winner),
		LoyaltyReduced: doc.LoyaltyReduced,
		Conquered:      doc.Conquered,
		AttackerRead:   doc.AttackerRead,
		DefenderRead:   doc.DefenderRead,
		OccurredAt:     doc.OccurredAt,
	}, nil
}

func scoutReportToDoc(rep *domain.ScoutReport) *model.ScoutReportDoc {
	doc := &model.ScoutReportDoc{
		ID:              string(rep.ID),
		AttackerID:      int64(rep.AttackerID),
		DefenderID:      int64(rep.DefenderID),
		FromVillageID:   int64(rep.FromVillageID),
		TargetVillageID: int64(rep.TargetVillageID),
		AttackerCount:   rep.AttackerCount,
		DefenderCount:   rep.DefenderCount,
		AttackerLosses:  rep.AttackerLosses,
		DefenderLosses:  rep.DefenderLosses,
		Success:         rep.Success,
		AttackerRead:    rep.AttackerRead,
		DefenderRead:    rep.DefenderRead,
		OccurredAt:      rep.OccurredAt,
	}
	if rep.Intel != nil {
		doc.Intel = &model.ScoutIntelDoc{
			Wood:   rep.Intel.Resources.Wood,
			Clay:   rep.Intel.Resources.Clay,
			Iron:   rep.Intel.Resources.Iron,
			Crop:   rep.Intel.Resources.Crop,
			Troops: troopsToDoc(rep.Intel.Troops),
		}
	}
	return doc
}

func troopsToDoc(tc domain.TroopCounts) map[string]int {
	out := make(map[string]int, len(tc))
	for t, n := range tc {
		out[string(t)] = n
	}
	return out
}

func troopsFromDoc(m map[string]int) (domain.TroopCounts, error) {
	out := make(domain.TroopCounts, len(m))
	for k, v := range m {
		t, err := troopcfg.Parse(k)
		if err != nil {
			return nil, err
		}
		out[t] = v
	}
	return out, nil
}
