package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"convostore/pkg/logger"
	"convostore/pkg/models"
)

// payload field names on each point. The full record travels as one JSON
// string; user_id and updated_ts are duplicated as indexable fields for
// filtering.
const (
	fieldUserID       = "user_id"
	fieldUpdatedTS    = "updated_ts"
	fieldConversation = "conversation"
)

// QdrantOptions configures the hosted Qdrant backend.
type QdrantOptions struct {
	Host       string
	Port       int
	UseTLS     bool
	APIKey     string
	Collection string
}

// Qdrant stores conversation records as points in one external collection.
// The client handle is created once at startup and is read-only afterwards.
type Qdrant struct {
	client     *qdrant.Client
	collection string
}

// NewQdrant creates the client handle. Dialing is lazy; connectivity problems
// surface on the first operation (and on /health).
func NewQdrant(opts QdrantOptions) (*Qdrant, error) {
	if opts.Collection == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}
	c, err := qdrant.NewClient(&qdrant.Config{
		Host:   opts.Host,
		Port:   opts.Port,
		APIKey: opts.APIKey,
		UseTLS: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	logger.Info("qdrant_client_created", "host", opts.Host, "port", opts.Port, "tls", opts.UseTLS, "collection", opts.Collection)
	return &Qdrant{client: c, collection: opts.Collection}, nil
}

func (q *Qdrant) Close() error { return q.client.Close() }

// EnsureCollection creates the collection on first deployment; existing
// collections are left untouched.
func (q *Qdrant) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", q.collection, err)
	}
	if exists {
		logger.Info("collection_exists", "collection", q.collection)
		return nil
	}
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", q.collection, err)
	}
	logger.Info("collection_created", "collection", q.collection)
	return nil
}

func (q *Qdrant) Save(ctx context.Context, c models.Conversation) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(uint64(c.ID)),
		Vectors: qdrant.NewVectors(EmbedConversation(c)...),
		Payload: qdrant.NewValueMap(map[string]any{
			fieldUserID:       c.UserID,
			fieldUpdatedTS:    updatedUnix(c.UpdatedAt),
			fieldConversation: string(b),
		}),
	}
	_, err = q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("upsert point %d: %w", c.ID, err)
	}
	return nil
}

func (q *Qdrant) Get(ctx context.Context, id int64) (models.Conversation, error) {
	pts, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: q.collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDNum(uint64(id))},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return models.Conversation{}, fmt.Errorf("retrieve point %d: %w", id, err)
	}
	if len(pts) == 0 {
		return models.Conversation{}, ErrNotFound
	}
	return decodePayload(pts[0].Payload)
}

func (q *Qdrant) ListByUser(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	pts, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: q.collection,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch(fieldUserID, userID)},
		},
		Limit:       qdrant.PtrOf(uint32(limit)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("scroll user %s: %w", userID, err)
	}
	out := make([]models.Conversation, 0, len(pts))
	for _, p := range pts {
		c, err := decodePayload(p.Payload)
		if err != nil {
			logger.Warn("skip_malformed_point", "error", err)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (q *Qdrant) Delete(ctx context.Context, id int64) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(qdrant.NewIDNum(uint64(id))),
	})
	if err != nil {
		return fmt.Errorf("delete point %d: %w", id, err)
	}
	return nil
}

func (q *Qdrant) Collections(ctx context.Context) (int, error) {
	names, err := q.client.ListCollections(ctx)
	if err != nil {
		return 0, fmt.Errorf("list collections: %w", err)
	}
	return len(names), nil
}

// PurgeOlderThan scrolls points whose updated_ts is older than cutoff and
// deletes them batch by batch until no stale points remain.
func (q *Qdrant) PurgeOlderThan(ctx context.Context, cutoff time.Time, batch int, dryRun bool) (int, error) {
	if batch <= 0 {
		batch = 100
	}
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewRange(fieldUpdatedTS, &qdrant.Range{
				Lt: qdrant.PtrOf(float64(cutoff.Unix())),
			}),
		},
	}
	purged := 0
	for {
		pts, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: q.collection,
			Filter:         filter,
			Limit:          qdrant.PtrOf(uint32(batch)),
		})
		if err != nil {
			return purged, fmt.Errorf("scroll stale points: %w", err)
		}
		if len(pts) == 0 {
			return purged, nil
		}
		if dryRun {
			return purged + len(pts), nil
		}
		ids := make([]*qdrant.PointId, 0, len(pts))
		for _, p := range pts {
			ids = append(ids, p.Id)
		}
		_, err = q.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: q.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         qdrant.NewPointsSelector(ids...),
		})
		if err != nil {
			return purged, fmt.Errorf("delete stale points: %w", err)
		}
		purged += len(pts)
		if len(pts) < batch {
			return purged, nil
		}
	}
}

func decodePayload(payload map[string]*qdrant.Value) (models.Conversation, error) {
	raw := payload[fieldConversation].GetStringValue()
	if raw == "" {
		return models.Conversation{}, fmt.Errorf("point payload missing %s field", fieldConversation)
	}
	var c models.Conversation
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return models.Conversation{}, fmt.Errorf("decode stored conversation: %w", err)
	}
	if c.Messages == nil {
		c.Messages = []models.Message{}
	}
	return c, nil
}

func updatedUnix(rfc3339 string) int64 {
	t, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		return time.Now().UTC().Unix()
	}
	return t.Unix()
}
