package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/sigdex/internal/db"
	"github.com/kailas-cloud/sigdex/internal/domain/search/filter"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestWaitForReady_RetriesUntilPong(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
			Return(mock.ErrorResult(errors.New("connection refused"))),
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
			Return(mock.Result(mock.RedisString("PONG"))),
	)

	s := NewStoreForTest(c)
	if err := s.WaitForReady(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_TimeoutKeepsLastError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	refused := errors.New("connection refused")
	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(refused)).AnyTimes()

	s := NewStoreForTest(c)
	err := s.WaitForReady(context.Background(), 50*time.Millisecond)
	if !errors.Is(err, refused) {
		t.Errorf("expected last ping error, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

func TestNewStore_RequiresAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error without addrs")
	}
}

// --- hash.go tests ---

func TestHSetMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(2)),
			mock.Result(mock.RedisInt64(2)),
		})

	s := NewStoreForTest(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f1": "v1"}},
		{Key: "k2", Fields: map[string]string{"f2": "v2"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetMulti_PartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(2)),
			mock.Result(mock.RedisError("OOM command not allowed")),
			mock.ErrorResult(context.DeadlineExceeded),
		})

	s := NewStoreForTest(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f": "v"}},
		{Key: "k2", Fields: map[string]string{"f": "v"}},
		{Key: "k3", Fields: map[string]string{"f": "v"}},
	})

	var be *db.BatchError
	if !errors.As(err, &be) {
		t.Fatalf("expected *db.BatchError, got %v", err)
	}
	if len(be.Failed) != 2 || be.Failed[0] != "k2" || be.Failed[1] != "k3" {
		t.Errorf("Failed = %v, want [k2 k3]", be.Failed)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected joined cause to include DeadlineExceeded")
	}
}

func TestHSetMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil)
	if err := s.HSetMulti(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHGetAll_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "sigdex:signal:reddit_1")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"title": mock.RedisString("hello"),
		})))

	s := NewStoreForTest(c)
	m, err := s.HGetAll(context.Background(), "sigdex:signal:reddit_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["title"] != "hello" {
		t.Errorf("unexpected fields: %v", m)
	}
}

func TestHGetAll_Missing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "nope")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{})))

	s := NewStoreForTest(c)
	_, err := s.HGetAll(context.Background(), "nope")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

// --- kv.go tests ---

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.Result(mock.RedisString("value")))

	s := NewStoreForTest(c)
	data, err := s.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "value" {
		t.Errorf("expected value, got %q", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "missing")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

// --- index.go tests ---

func TestCreateIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	idx := db.NewIndex("sigdex").
		Prefix("sigdex:signal:").
		WeightedText("title", 3).
		TagWithOpts("tags", ",", false).
		SortableNumeric("created_at").
		VectorHNSW("embedding", 4, db.DistanceCosine, 16, 200).
		MustBuild()
	if err := s.CreateIndex(context.Background(), idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined := strings.Join(got, " ")
	for _, want := range []string{
		"ON HASH PREFIX 1 sigdex:signal:",
		"title TEXT WEIGHT 3",
		"tags TAG SEPARATOR ,",
		"created_at NUMERIC SORTABLE",
		"embedding VECTOR HNSW 10 TYPE FLOAT32 DIM 4 DISTANCE_METRIC COSINE M 16 EF_CONSTRUCTION 200",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q in %q", want, joined)
		}
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{
		Name:   "sigdex",
		Fields: []db.IndexField{{Name: "f", Type: db.IndexFieldTag}},
	}
	err := s.CreateIndex(context.Background(), idx)
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestDropIndex_DeleteDocs(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "sigdex", "DD")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.DropIndex(context.Background(), "sigdex", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDropIndex_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "sigdex")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	err := s.DropIndex(context.Background(), "sigdex", false)
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestIndexExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("FT.INFO", "sigdex")).
			Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("sigdex")))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("FT.INFO", "sigdex")).
			Return(mock.Result(mock.RedisError("Unknown Index name"))),
	)

	s := NewStoreForTest(c)
	exists, err := s.IndexExists(context.Background(), "sigdex")
	if err != nil || !exists {
		t.Fatalf("expected exists, got %v %v", exists, err)
	}
	exists, err = s.IndexExists(context.Background(), "sigdex")
	if err != nil || exists {
		t.Fatalf("expected missing, got %v %v", exists, err)
	}
}

func TestBuildFieldArgs_Errors(t *testing.T) {
	if _, err := buildFieldArgs(&db.IndexField{Name: "", Type: db.IndexFieldTag}); err == nil {
		t.Error("expected error for empty field name")
	}
	if _, err := buildFieldArgs(&db.IndexField{Name: "f", Type: db.IndexFieldType(99)}); err == nil {
		t.Error("expected error for unknown type")
	}
	if _, err := buildFieldArgs(&db.IndexField{Name: "f", Type: db.IndexFieldVector}); err == nil {
		t.Error("expected error for zero vector dim")
	}
}

// --- search.go tests ---

func TestSearchKNN_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("sigdex:signal:reddit_1"),
			mock.RedisArray(
				mock.RedisString("title"),
				mock.RedisString("hello"),
				mock.RedisString("__vector_score"),
				mock.RedisString("0.1"), // distance 0.1 → similarity 0.9
			),
		)))

	p, _ := filter.NewMatch("platform", "reddit")
	expr, _ := filter.NewExpression([]filter.Condition{p}, nil, nil)

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName:    "sigdex",
		VectorField:  "embedding",
		Filters:      expr,
		Vector:       []float32{0.1, 0.2},
		K:            25,
		ReturnFields: []string{"title"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	e := result.Entries[0]
	if e.Score < 0.89 || e.Score > 0.91 {
		t.Errorf("expected score ~0.9, got %f", e.Score)
	}
	if _, ok := e.Fields["__vector_score"]; ok {
		t.Error("score field should be stripped from fields")
	}

	if got[2] != "(@platform:{reddit})=>[KNN 25 @embedding $BLOB AS __vector_score]" {
		t.Errorf("unexpected query %q", got[2])
	}
	joined := strings.Join(got, " ")
	for _, want := range []string{"RETURN 2 title __vector_score", "SORTBY __vector_score ASC", "LIMIT 0 25", "DIALECT 2"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q in args", want)
		}
	}
}

func TestSearchKNN_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(errors.New("connection refused")))

	s := NewStoreForTest(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "sigdex", VectorField: "embedding", Vector: []float32{1}, K: 1,
	})
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %v", err)
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	s := &Store{}
	ctx := context.Background()
	cases := []*db.KNNQuery{
		{VectorField: "v", Vector: []float32{1}, K: 1},
		{IndexName: "i", Vector: []float32{1}, K: 1},
		{IndexName: "i", VectorField: "v", K: 1},
		{IndexName: "i", VectorField: "v", Vector: []float32{1}},
	}
	for i, q := range cases {
		if _, err := s.SearchKNN(ctx, q); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestSearchText_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("sigdex:signal:github_9"),
			mock.RedisString("2.5"),
			mock.RedisArray(mock.RedisString("title"), mock.RedisString("invoice bug")),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName:  "sigdex",
		Terms:      "Invoice, invoice tools!",
		TextFields: []string{"title", "body"},
		TagField:   "tags",
		Offset:     0,
		Limit:      20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 || result.Entries[0].Score != 2.5 {
		t.Errorf("unexpected result: %+v", result)
	}
	want := "((@title|body:(invoice | tools)) | (@tags:{invoice|tools}))"
	if got[2] != want {
		t.Errorf("query = %q, want %q", got[2], want)
	}
	if !strings.Contains(strings.Join(got, " "), "WITHSCORES LIMIT 0 20") {
		t.Errorf("expected WITHSCORES and LIMIT in %v", got)
	}
}

func TestSearchText_NoTermsSkipsRoundTrip(t *testing.T) {
	s := NewStoreForTest(nil)
	result, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName: "sigdex", Terms: "?!", TextFields: []string{"title"}, Limit: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(result.Entries))
	}
}

func TestSearchText_Validation(t *testing.T) {
	s := &Store{}
	ctx := context.Background()
	cases := []*db.TextQuery{
		{Terms: "x", TextFields: []string{"title"}, Limit: 1},
		{IndexName: "i", Terms: "x", Limit: 1},
		{IndexName: "i", Terms: "x", TextFields: []string{"title"}},
		{IndexName: "i", Terms: "x", TextFields: []string{"title"}, Limit: 1, Offset: -1},
	}
	for i, q := range cases {
		if _, err := s.SearchText(ctx, q); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestSearchCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.SEARCH", "sigdex", "@platform:{github}", "LIMIT", "0", "0", "DIALECT", "2")).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(42))))

	p, _ := filter.NewMatch("platform", "github")
	expr, _ := filter.NewExpression([]filter.Condition{p}, nil, nil)

	s := NewStoreForTest(c)
	count, err := s.SearchCount(context.Background(), &db.CountQuery{IndexName: "sigdex", Filters: expr})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 42 {
		t.Errorf("expected 42, got %d", count)
	}
}

func TestSearchCount_All(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.SEARCH", "sigdex", "*", "LIMIT", "0", "0", "DIALECT", "2")).
		Return(mock.Result(mock.RedisArray()))

	s := NewStoreForTest(c)
	count, err := s.SearchCount(context.Background(), &db.CountQuery{IndexName: "sigdex"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0, got %d", count)
	}
}

// --- helpers ---

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
