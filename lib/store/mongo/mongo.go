// Package mongo implements the store interface for MongoDB.
package mongo

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/idefi-ai/agents/lib/store"
	"github.com/idefi-ai/agents/lib/util"
)

// Database and collection names.
const (
	usersDB     = "users"
	settingsCol = "settings"
	insightsDB  = "insights"
	insightsCol = "records"
	mailDB      = "mail"
	mailCol     = "mail"
	addrDB      = "addr"
)

// Mongo implements a connection to a MongoDB database.
type Mongo struct {
	c *mgo.Client
}

// MongoAddress implements a store address to MongoDB.
type MongoAddress struct {
	ID   primitive.ObjectID `json:"_id" bson:"_id"`
	Name string             `json:"name,omitempty" bson:"name,omitempty"`
	Addr string             `json:"address" bson:"address"`
}

// Address converts a MongoAddress to store.Address type.
func (a MongoAddress) Address() store.Address {
	return store.Address{ID: a.ID[:], Addr: a.Addr, Name: a.Name}
}

// New returns a Mongo client connection to the specified MongoDB database uri.
func New(uri string) (*Mongo, error) {
	c, err := mgo.NewClient(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongo DB in %s: %w", uri, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:gomnd // 5 seconds timeout
	defer cancel()

	if err = c.Connect(ctx); err != nil {
		return nil, fmt.Errorf("error connecting to mongo DB: %w", err)
	}

	return &Mongo{c: c}, nil
}

// CloseMongo will close a database connection. Must be called at termination time.
func (m *Mongo) CloseMongo() error {
	return m.c.Disconnect(context.Background())
}

// LoadSettings reads the settings document of userID.
func (m *Mongo) LoadSettings(ctx context.Context, userID string) (s store.UserSettings, err error) {
	err = m.c.Database(usersDB).Collection(settingsCol).FindOne(ctx, bson.M{"userId": userID}).Decode(&s)
	if errors.Is(err, mgo.ErrNoDocuments) {
		err = store.ErrDataNotFound
	}

	return
}

// SaveSettings upserts the settings document of s.UserID.
func (m *Mongo) SaveSettings(ctx context.Context, s store.UserSettings) error {
	if s.UserID == "" {
		return store.ErrNoUser
	}

	_, err := m.c.Database(usersDB).Collection(settingsCol).UpdateOne(ctx,
		bson.M{"userId": s.UserID}, // filter
		bson.D{{Key: "$set", Value: bson.D{ // update
			{Key: "userEmail", Value: s.UserEmail},
			{Key: "walletAddress", Value: s.WalletAddress},
			{Key: "notificationPreferences", Value: s.Preferences},
		}}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("could not save settings for %s: %w", s.UserID, err)
	}

	return nil
}

// AddInsight appends a record to the insight log.
func (m *Mongo) AddInsight(ctx context.Context, i store.Insight) error {
	if _, err := m.c.Database(insightsDB).Collection(insightsCol).InsertOne(ctx, i); err != nil {
		return fmt.Errorf("could not insert insight: %w", err)
	}

	return nil
}

// GetInsights returns the insight records of address ordered by timestamp.
func (m *Mongo) GetInsights(ctx context.Context, address string) ([]store.Insight, error) {
	cur, err := m.c.Database(insightsDB).Collection(insightsCol).Find(ctx,
		bson.M{"userAddress": address},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("could not find insights: %w", err)
	}

	r := []store.Insight{}
	if err = cur.All(ctx, &r); err != nil {
		return nil, fmt.Errorf("could not decode insights: %w", err)
	}

	return r, nil
}

// QueueMail writes a mail document to the outbox collection.
func (m *Mongo) QueueMail(ctx context.Context, mail store.OutboxMail) error {
	if _, err := m.c.Database(mailDB).Collection(mailCol).InsertOne(ctx, mail); err != nil {
		return fmt.Errorf("could not queue mail: %w", err)
	}

	return nil
}

// AddAddress saves an address for its owner (a.Name) if the pair does not already exist.
func (m *Mongo) AddAddress(ctx context.Context, a store.Address, net string) ([]byte, error) {
	var ma MongoAddress

	col := m.c.Database(addrDB).Collection(net)

	// try and find it
	err := col.FindOne(ctx, bson.M{"name": a.Name, "address": a.Addr}).Decode(&ma)
	if errors.Is(err, mgo.ErrNoDocuments) { // if not found, do insert it!!
		res, errIns := col.InsertOne(ctx, bson.M{"name": a.Name, "address": a.Addr})
		if errIns != nil {
			return nil, fmt.Errorf("could not insert address in db: %w", errIns)
		}

		return hex.DecodeString(res.InsertedID.(primitive.ObjectID).Hex())
	}

	if err != nil {
		return nil, fmt.Errorf("could not insert address in db: %w", err)
	}

	return hex.DecodeString(ma.ID.Hex())
}

// RemoveAddress deletes the entry of a.Name for a.Addr from the database.
func (m *Mongo) RemoveAddress(ctx context.Context, a store.Address, net string) error {
	res, err := m.c.Database(addrDB).Collection(net).DeleteOne(ctx, bson.M{"name": a.Name, "address": a.Addr})
	if err == nil && res.DeletedCount != 1 {
		err = store.ErrAddrNotFound
	}

	return err
}

// GetAddresses returns the addresses monitored for the networks indicated in the net slice.
func (m *Mongo) GetAddresses(ctx context.Context, net []string) ([]store.ListenedAddresses, error) {
	cols, err := m.c.Database(addrDB).ListCollections(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("error getting mongo DB object: %w", err)
	}

	addrs := []store.ListenedAddresses{}

	for cols.Next(ctx) {
		col := strings.Trim(cols.Current.Lookup("name").String(), `"`)

		if len(net) != 0 && !util.In(net, col) {
			continue
		}

		addr := store.ListenedAddresses{Net: col, Addr: []store.Address{}}

		docs, err := m.c.Database(addrDB).Collection(col).Find(ctx, bson.M{})
		if err != nil {
			return nil, fmt.Errorf("error listing addresses of %s: %w", col, err)
		}

		for docs.Next(ctx) {
			var a MongoAddress
			if err = bson.Unmarshal(docs.Current, &a); err == nil {
				addr.Addr = append(addr.Addr, a.Address())
			}
		}

		addrs = append(addrs, addr)
	}

	return addrs, nil
}
