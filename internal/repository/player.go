package repo

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"draughts_arena/internal/domain/user"
	"draughts_arena/internal/errors"
)

type PlayerRepository struct {
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewPlayerRepository(log *zap.SugaredLogger, mongo *mongo.Database) *PlayerRepository {
	return &PlayerRepository{
		log:   log,
		mongo: mongo,
	}
}

func (p *PlayerRepository) players() *mongo.Collection {
	return p.mongo.Collection("players")
}

func (p *PlayerRepository) GetByID(ctx context.Context, id string) (user.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result user.Player
	err := p.players().FindOne(ctx, bson.M{"_id": id}).Decode(&result)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return user.Player{}, errors.ErrUserNotFound
	} else if err != nil {
		p.log.Errorf("failed to load player %s: %v", id, err)
		return user.Player{}, err
	}
	return result, nil
}

func (p *PlayerRepository) GetByEmail(ctx context.Context, email string) (user.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result user.Player
	err := p.players().FindOne(ctx, bson.M{"email": email}).Decode(&result)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return user.Player{}, errors.ErrUserNotFound
	} else if err != nil {
		p.log.Errorf("failed to load player by email %s: %v", email, err)
		return user.Player{}, err
	}
	return result, nil
}

func (p *PlayerRepository) GetByUsername(ctx context.Context, username string) (user.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result user.Player
	err := p.players().FindOne(ctx, bson.M{"username": username}).Decode(&result)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return user.Player{}, errors.ErrUserNotFound
	} else if err != nil {
		p.log.Errorf("failed to load player by username %s: %v", username, err)
		return user.Player{}, err
	}
	return result, nil
}

func (p *PlayerRepository) Create(ctx context.Context, newPlayer user.Player) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.players().InsertOne(ctx, newPlayer)
	if err != nil {
		p.log.Errorf("failed to insert player %s: %v", newPlayer.Username, err)
		return err
	}
	return nil
}

// IncBalance applies a signed delta with a single $inc, which keeps the row
// update atomic on the database side.
func (p *PlayerRepository) IncBalance(ctx context.Context, id string, delta float64) error {
	return p.incField(ctx, id, "token_balance", delta)
}

func (p *PlayerRepository) IncScore(ctx context.Context, id string, delta float64) error {
	return p.incField(ctx, id, "total_score", delta)
}

func (p *PlayerRepository) incField(ctx context.Context, id, field string, delta float64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := p.players().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{field: delta},
			"$set": bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		p.log.Errorf("failed to update %s of player %s: %v", field, id, err)
		return err
	}
	if res.MatchedCount == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

func (p *PlayerRepository) SetBalance(ctx context.Context, id string, amount float64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := p.players().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"token_balance": amount, "updated_at": time.Now()}})
	if err != nil {
		p.log.Errorf("failed to set balance of player %s: %v", id, err)
		return err
	}
	if res.MatchedCount == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

func (p *PlayerRepository) ListByScore(ctx context.Context, ascending bool, limit int) ([]user.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	order := -1
	if ascending {
		order = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "total_score", Value: order}}).
		SetLimit(int64(limit))

	cursor, err := p.players().Find(ctx, bson.M{"role": user.RoleUser}, opts)
	if err != nil {
		p.log.Error(err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []user.Player
	for cursor.Next(ctx) {
		var pl user.Player
		if err = cursor.Decode(&pl); err != nil {
			p.log.Error(err)
			return nil, err
		}
		result = append(result, pl)
	}
	return result, cursor.Err()
}
