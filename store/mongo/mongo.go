/*
Package mongo provides a MongoDB-backed implementation of the storage interfaces.

PURPOSE:
  Same contract as store/sqlite for deployments that already run MongoDB.
  Decimals are stored as strings so no precision is lost to BSON doubles.

COLLECTIONS:
  calculations:   One document per saved evaluation, _id = calculation id
  bracket_tables: One document per table version, _id = "<table id>/<year>"

INDEXES:
  - calculations.idempotency_key: unique, sparse (documents without a key
    never collide)
  - calculations.created_at: List() newest first

SEE ALSO:
  - generic/store.go: Interface definitions
  - store/sqlite/sqlite.go: SQLite implementation
*/
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fiscalkit/bracket-engine/generic"
)

type Store struct {
	client       *mongo.Client
	calculations *mongo.Collection
	tables       *mongo.Collection
}

// New connects to uri and prepares the collections in database.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:       client,
		calculations: db.Collection("calculations"),
		tables:       db.Collection("bracket_tables"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.calculations.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "idempotency_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// =============================================================================
// DOCUMENTS
// =============================================================================

type rowDoc struct {
	Label  string  `bson:"label"`
	From   string  `bson:"from"`
	To     *string `bson:"to,omitempty"`
	Base   string  `bson:"base"`
	Rate   string  `bson:"rate"`
	Amount string  `bson:"amount"`
}

type resultDoc struct {
	TableID   string   `bson:"table_id"`
	Year      int      `bson:"year"`
	Currency  string   `bson:"currency"`
	Base      string   `bson:"base"`
	TotalTax  string   `bson:"total_tax"`
	Breakdown []rowDoc `bson:"breakdown"`
}

type calculationDoc struct {
	ID             string         `bson:"_id"`
	Kind           string         `bson:"kind"`
	TableID        string         `bson:"table_id,omitempty"`
	Year           int            `bson:"year"`
	Input          map[string]any `bson:"input"`
	Result         resultDoc      `bson:"result"`
	IdempotencyKey string         `bson:"idempotency_key,omitempty"`
	CreatedAt      time.Time      `bson:"created_at"`
}

type bracketDoc struct {
	UpTo  *string `bson:"up_to,omitempty"`
	Rate  string  `bson:"rate"`
	Label string  `bson:"label,omitempty"`
}

type tableDoc struct {
	Key          string       `bson:"_id"`
	ID           string       `bson:"table_id"`
	Year         int          `bson:"year"`
	Name         string       `bson:"name"`
	Jurisdiction string       `bson:"jurisdiction"`
	Currency     string       `bson:"currency"`
	Brackets     []bracketDoc `bson:"brackets"`
	UpdatedAt    time.Time    `bson:"updated_at"`
}

func nullString(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func parseNull(s *string) decimal.NullDecimal {
	if s == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(generic.MustParseDecimal(*s))
}

func toResultDoc(r generic.Result) resultDoc {
	doc := resultDoc{
		TableID:  string(r.TableID),
		Year:     r.Year,
		Currency: string(r.Currency),
		Base:     r.Base.String(),
		TotalTax: r.TotalTax.String(),
	}
	for _, row := range r.Breakdown {
		doc.Breakdown = append(doc.Breakdown, rowDoc{
			Label:  row.Label,
			From:   row.From.String(),
			To:     nullString(row.To),
			Base:   row.BaseInBracket.String(),
			Rate:   row.Rate.String(),
			Amount: row.AmountInBracket.String(),
		})
	}
	return doc
}

func (d resultDoc) result() generic.Result {
	r := generic.Result{
		TableID:  generic.TableID(d.TableID),
		Year:     d.Year,
		Currency: generic.Currency(d.Currency),
		Base:     generic.MustParseDecimal(d.Base),
		TotalTax: generic.MustParseDecimal(d.TotalTax),
	}
	for _, row := range d.Breakdown {
		r.Breakdown = append(r.Breakdown, generic.Row{
			Label:           row.Label,
			From:            generic.MustParseDecimal(row.From),
			To:              parseNull(row.To),
			BaseInBracket:   generic.MustParseDecimal(row.Base),
			Rate:            generic.MustParseDecimal(row.Rate),
			AmountInBracket: generic.MustParseDecimal(row.Amount),
		})
	}
	return r
}

func (d calculationDoc) calculation() generic.Calculation {
	return generic.Calculation{
		ID:             generic.CalculationID(d.ID),
		Kind:           d.Kind,
		TableID:        generic.TableID(d.TableID),
		Year:           d.Year,
		Input:          d.Input,
		Result:         d.Result.result(),
		IdempotencyKey: d.IdempotencyKey,
		CreatedAt:      d.CreatedAt,
	}
}

// =============================================================================
// CALCULATION STORE (generic.Store interface)
// =============================================================================

func (s *Store) Save(ctx context.Context, c generic.Calculation) error {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	doc := calculationDoc{
		ID:             string(c.ID),
		Kind:           c.Kind,
		TableID:        string(c.TableID),
		Year:           c.Year,
		Input:          c.Input,
		Result:         toResultDoc(c.Result),
		IdempotencyKey: c.IdempotencyKey,
		CreatedAt:      createdAt.UTC(),
	}
	if _, err := s.calculations.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to save calculation: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id generic.CalculationID) (generic.Calculation, error) {
	var doc calculationDoc
	err := s.calculations.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return generic.Calculation{}, generic.ErrCalculationNotFound
	}
	if err != nil {
		return generic.Calculation{}, fmt.Errorf("failed to get calculation: %w", err)
	}
	return doc.calculation(), nil
}

func (s *Store) List(ctx context.Context, limit int) ([]generic.Calculation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.calculations.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list calculations: %w", err)
	}
	var docs []calculationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode calculations: %w", err)
	}

	result := make([]generic.Calculation, len(docs))
	for i, d := range docs {
		result[i] = d.calculation()
	}
	return result, nil
}

// =============================================================================
// TABLE STORE (generic.TableStore interface)
// =============================================================================

func (s *Store) SaveTable(ctx context.Context, t generic.Table) error {
	doc := tableDoc{
		Key:          fmt.Sprintf("%s/%d", t.ID, t.Year),
		ID:           string(t.ID),
		Year:         t.Year,
		Name:         t.Name,
		Jurisdiction: string(t.Jurisdiction),
		Currency:     string(t.Currency),
		UpdatedAt:    time.Now().UTC(),
	}
	for _, b := range t.Brackets {
		doc.Brackets = append(doc.Brackets, bracketDoc{
			UpTo:  nullString(b.UpperLimit),
			Rate:  b.Rate.String(),
			Label: b.Label,
		})
	}

	_, err := s.tables.ReplaceOne(ctx, bson.M{"_id": doc.Key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save table: %w", err)
	}
	return nil
}

func (s *Store) LoadTables(ctx context.Context) ([]generic.Table, error) {
	opts := options.Find().SetSort(bson.D{{Key: "table_id", Value: 1}, {Key: "year", Value: 1}})
	cur, err := s.tables.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}
	var docs []tableDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tables: %w", err)
	}

	result := make([]generic.Table, 0, len(docs))
	for _, d := range docs {
		t := generic.Table{
			ID:           generic.TableID(d.ID),
			Name:         d.Name,
			Jurisdiction: generic.Jurisdiction(d.Jurisdiction),
			Year:         d.Year,
			Currency:     generic.Currency(d.Currency),
		}
		for _, b := range d.Brackets {
			t.Brackets = append(t.Brackets, generic.Bracket{
				UpperLimit: parseNull(b.UpTo),
				Rate:       generic.MustParseDecimal(b.Rate),
				Label:      b.Label,
			})
		}
		result = append(result, t)
	}
	return result, nil
}
