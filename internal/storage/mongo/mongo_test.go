package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/spigell/lead-scorer/internal/model"
	"github.com/spigell/lead-scorer/internal/storage"
)

func TestScoreResultDocumentEmbedsLead(t *testing.T) {
	result := model.ScoreResult{
		ID:       "r1",
		LeadID:   "l1",
		OfferID:  "o1",
		Intent:   model.IntentMedium,
		Score:    60,
		ScoredAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Lead:     model.Lead{ID: "l1", Name: "Ava", Role: "Lead Engineer"},
	}

	raw, err := bson.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var doc struct {
		ID      string `bson:"_id"`
		OfferID string `bson:"offer_id"`
		Lead    struct {
			ID   string `bson:"_id"`
			Role string `bson:"role"`
		} `bson:"lead"`
	}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.ID != "r1" || doc.OfferID != "o1" {
		t.Fatalf("unexpected document keys %+v", doc)
	}
	if doc.Lead.ID != "l1" || doc.Lead.Role != "Lead Engineer" {
		t.Fatalf("unexpected lead snapshot %+v", doc.Lead)
	}
}

func TestResultsOrderFollowsLeads(t *testing.T) {
	order := resultsOrder()
	if len(order) != 2 || order[0].Key != "lead.uploaded_at" || order[1].Key != "lead._id" {
		t.Fatalf("unexpected sort %v", order)
	}
}

func TestStoreAgainstMockDeployment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("ensure indexes creates unique lead offer index", func(mt *mtest.T) {
		store := New(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := store.EnsureIndexes(context.Background()); err != nil {
			mt.Fatalf("ensure indexes: %v", err)
		}

		evt := mt.GetStartedEvent()
		if evt.CommandName != "createIndexes" {
			mt.Fatalf("expected createIndexes, got %s", evt.CommandName)
		}
		if coll := evt.Command.Lookup("createIndexes").StringValue(); coll != resultsCollection {
			mt.Fatalf("expected index on %s, got %s", resultsCollection, coll)
		}
		keys := evt.Command.Lookup("indexes", "0", "key").Document()
		elems, err := keys.Elements()
		if err != nil {
			mt.Fatalf("reading index keys: %v", err)
		}
		if len(elems) != 2 || elems[0].Key() != "lead_id" || elems[1].Key() != "offer_id" {
			mt.Fatalf("unexpected index keys %v", keys)
		}
		if unique, ok := evt.Command.Lookup("indexes", "0", "unique").BooleanOK(); !ok || !unique {
			mt.Fatalf("expected a unique index, got %v", evt.Command.Lookup("indexes", "0"))
		}
	})

	mt.Run("delete then insert is scoped to the offer", func(mt *mtest.T) {
		store := New(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		ctx := context.Background()
		if err := store.DeleteScoreResults(ctx, "o1"); err != nil {
			mt.Fatalf("delete results: %v", err)
		}
		result := model.ScoreResult{LeadID: "l1", OfferID: "o1", Intent: model.IntentHigh, Score: 90}
		if err := store.CreateScoreResult(ctx, &result); err != nil {
			mt.Fatalf("create result: %v", err)
		}

		deleted := mt.GetStartedEvent()
		if deleted.CommandName != "delete" {
			mt.Fatalf("expected delete first, got %s", deleted.CommandName)
		}
		if offer := deleted.Command.Lookup("deletes", "0", "q", "offer_id").StringValue(); offer != "o1" {
			mt.Fatalf("expected delete filter on offer o1, got %q", offer)
		}
		if limit := deleted.Command.Lookup("deletes", "0", "limit").Int32(); limit != 0 {
			mt.Fatalf("expected every matching result to be removed, got limit %d", limit)
		}

		inserted := mt.GetStartedEvent()
		if inserted.CommandName != "insert" {
			mt.Fatalf("expected insert second, got %s", inserted.CommandName)
		}
		if id := inserted.Command.Lookup("documents", "0", "_id").StringValue(); id == "" || id != result.ID {
			mt.Fatalf("expected inserted id %q, got %q", result.ID, id)
		}
	})

	mt.Run("list results sorts by lead upload order", func(mt *mtest.T) {
		store := New(mt.DB)
		uploaded := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		ns := mt.DB.Name() + "." + resultsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "r2"}, {Key: "lead_id", Value: "l1"}, {Key: "offer_id", Value: "o1"},
				{Key: "intent", Value: "High"}, {Key: "score", Value: 90},
				{Key: "lead", Value: bson.D{{Key: "_id", Value: "l1"}, {Key: "name", Value: "Ava Patel"}, {Key: "uploaded_at", Value: uploaded}}},
			},
			bson.D{
				{Key: "_id", Value: "r1"}, {Key: "lead_id", Value: "l2"}, {Key: "offer_id", Value: "o1"},
				{Key: "intent", Value: "Low"}, {Key: "score", Value: 10},
				{Key: "lead", Value: bson.D{{Key: "_id", Value: "l2"}, {Key: "name", Value: "Sam Lee"}, {Key: "uploaded_at", Value: uploaded.Add(time.Millisecond)}}},
			},
		))

		results, err := store.ListScoreResults(context.Background(), "o1")
		if err != nil {
			mt.Fatalf("list results: %v", err)
		}
		if len(results) != 2 || results[0].Lead.Name != "Ava Patel" || results[1].Lead.Name != "Sam Lee" {
			mt.Fatalf("unexpected results %+v", results)
		}
		if results[0].Intent != model.IntentHigh || results[0].Score != 90 {
			mt.Fatalf("unexpected first result %+v", results[0])
		}

		find := mt.GetStartedEvent()
		if offer := find.Command.Lookup("filter", "offer_id").StringValue(); offer != "o1" {
			mt.Fatalf("expected filter on offer o1, got %q", offer)
		}
		sort, err := find.Command.Lookup("sort").Document().Elements()
		if err != nil {
			mt.Fatalf("reading sort: %v", err)
		}
		if len(sort) != 2 || sort[0].Key() != "lead.uploaded_at" || sort[1].Key() != "lead._id" {
			mt.Fatalf("unexpected sort %v", sort)
		}
	})

	mt.Run("missing offer maps to not found", func(mt *mtest.T) {
		store := New(mt.DB)
		ns := mt.DB.Name() + "." + offersCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := store.GetOffer(context.Background(), "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
