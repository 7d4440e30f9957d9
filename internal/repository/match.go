package repo

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	matchdomain "draughts_arena/internal/domain/match"
	"draughts_arena/internal/errors"
	"draughts_arena/internal/statuses"
)

// MatchRepository persists matches and their two move ledgers (human moves in
// "moves", bot moves in "ai_moves"). Moves are owned by their match and are
// cascade-deleted with it.
type MatchRepository struct {
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewMatchRepository(log *zap.SugaredLogger, mongo *mongo.Database) *MatchRepository {
	return &MatchRepository{
		log:   log,
		mongo: mongo,
	}
}

func (r *MatchRepository) matches() *mongo.Collection { return r.mongo.Collection("matches") }
func (r *MatchRepository) moves() *mongo.Collection   { return r.mongo.Collection("moves") }
func (r *MatchRepository) aiMoves() *mongo.Collection { return r.mongo.Collection("ai_moves") }

func (r *MatchRepository) CreateMatch(ctx context.Context, m matchdomain.Match) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.matches().InsertOne(ctx, m)
	if err != nil {
		r.log.Errorf("failed to insert match: %v", err)
		return err
	}
	return nil
}

func (r *MatchRepository) GetMatchByID(ctx context.Context, id string) (matchdomain.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result matchdomain.Match
	err := r.matches().FindOne(ctx, bson.M{"_id": id}).Decode(&result)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return matchdomain.Match{}, errors.ErrMatchNotFound
	} else if err != nil {
		r.log.Errorf("failed to load match %s: %v", id, err)
		return matchdomain.Match{}, err
	}
	return result, nil
}

func (r *MatchRepository) SaveBoard(ctx context.Context, id string, board string, moveCount int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.matches().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"board": board, "move_count": moveCount}})
	if err != nil {
		r.log.Errorf("failed to save board of match %s: %v", id, err)
		return err
	}
	if res.MatchedCount == 0 {
		return errors.ErrMatchNotFound
	}
	return nil
}

// FinishMatch moves a match into a terminal status. Matches already terminal
// are left untouched so a terminal state can never be overwritten.
func (r *MatchRepository) FinishMatch(ctx context.Context, id string, status string, winnerID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.matches().UpdateOne(ctx,
		bson.M{"_id": id, "status": statuses.StatusInProgress},
		bson.M{"$set": bson.M{"status": status, "winner_id": winnerID}})
	if err != nil {
		r.log.Errorf("failed to finish match %s: %v", id, err)
		return err
	}
	if res.MatchedCount == 0 {
		return errors.ErrMatchNotInProgress
	}
	return nil
}

func (r *MatchRepository) AppendMove(ctx context.Context, rec matchdomain.MoveRecord) error {
	return r.append(ctx, r.moves(), rec)
}

func (r *MatchRepository) AppendAIMove(ctx context.Context, rec matchdomain.MoveRecord) error {
	return r.append(ctx, r.aiMoves(), rec)
}

func (r *MatchRepository) append(ctx context.Context, col *mongo.Collection, rec matchdomain.MoveRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := col.InsertOne(ctx, rec)
	if err != nil {
		r.log.Errorf("failed to append move %d of match %s: %v", rec.Seq, rec.MatchID, err)
		return err
	}
	return nil
}

func (r *MatchRepository) CountMoves(ctx context.Context, matchID string) (int, error) {
	return r.count(ctx, r.moves(), matchID)
}

func (r *MatchRepository) CountAIMoves(ctx context.Context, matchID string) (int, error) {
	return r.count(ctx, r.aiMoves(), matchID)
}

func (r *MatchRepository) count(ctx context.Context, col *mongo.Collection, matchID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := col.CountDocuments(ctx, bson.M{"match_id": matchID})
	if err != nil {
		r.log.Errorf("failed to count moves of match %s: %v", matchID, err)
		return 0, err
	}
	return int(n), nil
}

func (r *MatchRepository) LastMove(ctx context.Context, matchID string) (matchdomain.MoveRecord, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})

	var rec matchdomain.MoveRecord
	err := r.moves().FindOne(ctx, bson.M{"match_id": matchID}, opts).Decode(&rec)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return matchdomain.MoveRecord{}, false, nil
	} else if err != nil {
		r.log.Errorf("failed to load last move of match %s: %v", matchID, err)
		return matchdomain.MoveRecord{}, false, err
	}
	return rec, true, nil
}

// ListMoves merges the human and AI ledgers, ordered by play (timestamps
// break ties between the two collections' sequence numbers).
func (r *MatchRepository) ListMoves(ctx context.Context, matchID string) ([]matchdomain.MoveRecord, error) {
	human, err := r.list(ctx, r.moves(), matchID)
	if err != nil {
		return nil, err
	}
	bot, err := r.list(ctx, r.aiMoves(), matchID)
	if err != nil {
		return nil, err
	}

	all := append(human, bot...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all, nil
}

func (r *MatchRepository) list(ctx context.Context, col *mongo.Collection, matchID string) ([]matchdomain.MoveRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := col.Find(ctx, bson.M{"match_id": matchID}, opts)
	if err != nil {
		r.log.Errorf("failed to list moves of match %s: %v", matchID, err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []matchdomain.MoveRecord
	for cursor.Next(ctx) {
		var rec matchdomain.MoveRecord
		if err = cursor.Decode(&rec); err != nil {
			r.log.Error(err)
			return nil, err
		}
		result = append(result, rec)
	}
	return result, cursor.Err()
}

func (r *MatchRepository) ListFinishedByPlayer(ctx context.Context, playerID string, since *time.Time) ([]matchdomain.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"$and": []bson.M{
			{
				"$or": []bson.M{
					{"player1_id": playerID},
					{"player2_id": playerID},
				},
			},
			{
				"status": bson.M{"$ne": statuses.StatusInProgress},
			},
		},
	}
	if since != nil {
		filter["started_at"] = bson.M{"$gte": *since}
	}

	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}})
	cursor, err := r.matches().Find(ctx, filter, opts)
	if err != nil {
		r.log.Errorf("failed to list matches of player %s: %v", playerID, err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []matchdomain.Match
	for cursor.Next(ctx) {
		var m matchdomain.Match
		if err = cursor.Decode(&m); err != nil {
			r.log.Error(err)
			return nil, err
		}
		result = append(result, m)
	}
	return result, cursor.Err()
}

// DeleteMatch removes the match and cascades to both move ledgers.
func (r *MatchRepository) DeleteMatch(ctx context.Context, matchID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.moves().DeleteMany(ctx, bson.M{"match_id": matchID}); err != nil {
		r.log.Errorf("failed to delete moves of match %s: %v", matchID, err)
		return err
	}
	if _, err := r.aiMoves().DeleteMany(ctx, bson.M{"match_id": matchID}); err != nil {
		r.log.Errorf("failed to delete ai moves of match %s: %v", matchID, err)
		return err
	}
	res, err := r.matches().DeleteOne(ctx, bson.M{"_id": matchID})
	if err != nil {
		r.log.Errorf("failed to delete match %s: %v", matchID, err)
		return err
	}
	if res.DeletedCount == 0 {
		return errors.ErrMatchNotFound
	}
	return nil
}
