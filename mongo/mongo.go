// Package mongo provides MongoDB implementations of the cargo and handling
// event repositories.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Qalifah/voyage-tracker/cargo"
)

const opTimeout = 10 * time.Second

// Collection names.
const (
	CargoCollection         = "cargos"
	HandlingEventCollection = "handling_events"
)

// Connect connects to the MongoDB deployment at uri and returns the named
// database.
func Connect(ctx context.Context, uri, database string) (*driver.Database, error) {
	client, err := driver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client.Database(database), nil
}

type cargoRepository struct {
	coll *driver.Collection
}

// NewCargoRepository returns a cargo repository storing one document per
// cargo, keyed by tracking id.
func NewCargoRepository(db *driver.Database) cargo.Repository {
	return &cargoRepository{coll: db.Collection(CargoCollection)}
}

func (r *cargoRepository) Store(c *cargo.Cargo) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": c.TrackingID}, c, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store cargo %s: %w", c.TrackingID, err)
	}
	return nil
}

func (r *cargoRepository) Find(id cargo.TrackingID) (*cargo.Cargo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var c cargo.Cargo
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, driver.ErrNoDocuments) {
		return nil, cargo.ErrUnknown
	}
	if err != nil {
		return nil, fmt.Errorf("find cargo %s: %w", id, err)
	}
	return &c, nil
}

func (r *cargoRepository) FindAll() ([]*cargo.Cargo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"registered_at": 1}))
	if err != nil {
		return nil, fmt.Errorf("list cargos: %w", err)
	}
	var cargos []*cargo.Cargo
	if err := cur.All(ctx, &cargos); err != nil {
		return nil, fmt.Errorf("list cargos: %w", err)
	}
	return cargos, nil
}

type handlingEventRepository struct {
	coll *driver.Collection
}

// NewHandlingEventRepository returns a handling event repository storing
// one document per event.
func NewHandlingEventRepository(db *driver.Database) cargo.HandlingEventRepository {
	return &handlingEventRepository{coll: db.Collection(HandlingEventCollection)}
}

func (r *handlingEventRepository) Store(e cargo.HandlingEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("store handling event: %w", err)
	}
	return nil
}

func (r *handlingEventRepository) QueryHandlingHistory(id cargo.TrackingID) (cargo.HandlingHistory, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"tracking_id": id}, options.Find().SetSort(bson.D{{Key: "completed", Value: 1}, {Key: "registered", Value: 1}}))
	if err != nil {
		return cargo.HandlingHistory{}, fmt.Errorf("query handling history: %w", err)
	}
	var events []cargo.HandlingEvent
	if err := cur.All(ctx, &events); err != nil {
		return cargo.HandlingHistory{}, fmt.Errorf("query handling history: %w", err)
	}
	return cargo.HandlingHistory{HandlingEvents: events}, nil
}

// EnsureIndexes creates the indexes the repositories query by.
func EnsureIndexes(ctx context.Context, db *driver.Database) error {
	_, err := db.Collection(HandlingEventCollection).Indexes().CreateOne(ctx, driver.IndexModel{
		Keys: bson.D{{Key: "tracking_id", Value: 1}, {Key: "completed", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create handling event index: %w", err)
	}
	return nil
}
