package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/document"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/query"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/schema"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/schematype"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

var ctx = context.Background()

type registry map[string]*Model

func (r registry) Lookup(name string) (*Model, bool) {
	m, ok := r[name]
	return m, ok
}

func (r registry) Deregister(name string) { delete(r, name) }

type ModelTestSuite struct {
	suite.Suite
	reg registry
}

func (s *ModelTestSuite) SetupTest() {
	s.reg = registry{}
}

func (s *ModelTestSuite) userSchema() *schema.Schema {
	sc, err := schema.New(data.D{
		{Key: "name", Value: schema.Field{Type: schematype.NewString(), Required: true}},
		{Key: "age", Value: schematype.NewNumber()},
	})
	s.Require().NoError(err)
	v, err := sc.Virtual("label")
	s.Require().NoError(err)
	v.Get(func(doc domain.Document) any {
		name, _ := doc.Get("name").(string)
		return "@" + name
	})
	return sc
}

func (s *ModelTestSuite) model(name string, sc *schema.Schema) *Model {
	m, err := New(name, sc, WithRegistry(s.reg))
	s.Require().NoError(err)
	s.reg[name] = m
	return m
}

func (s *ModelTestSuite) users() *Model {
	m := s.model("User", s.userSchema())
	_, err := m.Insert(ctx,
		data.M{"_id": "1", "name": "John", "age": 20},
		data.M{"_id": "2", "name": "Jane", "age": 25},
		data.M{"_id": "3", "name": "Mary", "age": 20},
	)
	s.Require().NoError(err)
	return m
}

func ids(docs []domain.Document) []any {
	res := make([]any, len(docs))
	for i, doc := range docs {
		res[i] = doc.ID()
	}
	return res
}

func (s *ModelTestSuite) TestNew() {
	m, err := New("Post", nil)
	s.NoError(err)
	s.Equal("Post", m.Name())
	s.True(m.Schema().Frozen())
	typ, ok := m.Schema().Lookup(IDPath)
	s.True(ok)
	s.IsType(&schematype.ID{}, typ)

	sc := s.userSchema()
	sc.Freeze()
	_, err = New("User", sc)
	s.ErrorIs(err, domain.ErrSchemaFrozen)
}

func (s *ModelTestSuite) TestInsertOne() {
	m := s.model("User", s.userSchema())

	doc, err := m.InsertOne(ctx, data.M{"name": "John", "age": "20"})
	s.Require().NoError(err)
	s.NotEmpty(doc.ID())
	s.Equal(20.0, doc.Get("age"))
	s.Equal("@John", doc.Get("label"))
	s.Equal(1, m.Count())

	found := m.FindByID(doc.ID())
	s.Require().NotNil(found)
	s.Equal("John", found.Get("name"))

	_, err = m.InsertOne(ctx, data.M{"_id": doc.ID(), "name": "Jane"})
	s.ErrorAs(err, &domain.ErrIDExist{})
	s.Equal(domain.KindIDExist, domain.KindOf(err))

	_, err = m.InsertOne(ctx, data.M{"age": 1})
	s.ErrorAs(err, &domain.ErrValidation{})
	_, err = m.InsertOne(ctx, data.M{"name": "Bob", "age": "x"})
	s.ErrorAs(err, &domain.ErrValidation{})
	s.Equal(1, m.Count())
}

func (s *ModelTestSuite) TestStoredForm() {
	m := s.model("User", s.userSchema())
	doc, err := m.InsertOne(ctx, data.M{"_id": "1", "name": "John", "label": "ignored"})
	s.Require().NoError(err)
	s.Equal("@John", doc.Get("label"))

	rec, ok := m.store.get("1")
	s.True(ok)
	s.Equal(data.M{"_id": "1", "name": "John"}, rec)

	lean := m.FindByID("1", domain.WithFindLean(true))
	s.IsType(data.M{}, lean)
	s.False(lean.Has("label"))
}

func (s *ModelTestSuite) TestKeyNormalization() {
	m := s.model("Item", nil)
	_, err := m.InsertOne(ctx, data.M{"_id": 1.0})
	s.Require().NoError(err)
	s.True(m.Has(1))
	s.True(m.Has("1"))
	s.NotNil(m.Get(1.0))

	_, err = m.InsertOne(ctx, data.M{"_id": "1"})
	s.ErrorAs(err, &domain.ErrIDExist{})

	_, err = m.InsertOne(ctx, data.M{"_id": ""})
	s.ErrorIs(err, domain.ErrIDUndefined)
}

func (s *ModelTestSuite) TestInsertFailFast() {
	m := s.users()
	res, err := m.Insert(ctx, data.M{"_id": "4", "name": "Bob"}, data.M{"_id": "1", "name": "Dup"}, data.M{"_id": "5", "name": "Ann"})
	s.ErrorAs(err, &domain.ErrIDExist{})
	s.Equal([]any{"4"}, ids(res))
	s.False(m.Has("5"))
}

func (s *ModelTestSuite) TestHooks() {
	fail := errors.New("fail")
	sc := s.userSchema()
	var calls []string
	s.Require().NoError(sc.Pre(domain.HookSave, func(_ context.Context, doc domain.Document) error {
		calls = append(calls, "pre "+doc.Get("name").(string))
		if doc.Get("name") == "Veto" {
			return fail
		}
		return nil
	}))
	s.Require().NoError(sc.Post(domain.HookSave, func(_ context.Context, doc domain.Document) error {
		if doc.Get("name") == "Late" {
			return fail
		}
		return nil
	}))
	s.Require().NoError(sc.Pre(domain.HookRemove, func(_ context.Context, doc domain.Document) error {
		if doc.Get("name") == "Keep" {
			return fail
		}
		return nil
	}))
	m := s.model("User", sc)

	_, err := m.InsertOne(ctx, data.M{"_id": "1", "name": "Veto"})
	s.ErrorIs(err, fail)
	s.Equal(0, m.Count())

	doc, err := m.InsertOne(ctx, data.M{"_id": "2", "name": "Late"})
	s.ErrorIs(err, fail)
	s.Require().NotNil(doc)
	s.Equal("2", doc.ID())
	s.True(m.Has("2"))

	_, err = m.InsertOne(ctx, data.M{"_id": "3", "name": "Keep"})
	s.NoError(err)
	_, err = m.RemoveByID(ctx, "3")
	s.ErrorIs(err, fail)
	s.True(m.Has("3"))

	s.Equal([]string{"pre Veto", "pre Late", "pre Keep"}, calls)
}

func (s *ModelTestSuite) TestEvents() {
	m := s.model("User", s.userSchema())
	var events []domain.Event
	for _, ev := range []domain.EventType{domain.EventInsert, domain.EventUpdate, domain.EventRemove} {
		m.On(ev, func(e domain.Event) { events = append(events, e) })
	}

	_, err := m.InsertOne(ctx, data.M{"_id": "1", "name": "John"})
	s.Require().NoError(err)
	_, err = m.UpdateByID(ctx, "1", data.M{"age": 30})
	s.Require().NoError(err)
	_, err = m.RemoveByID(ctx, "1")
	s.Require().NoError(err)

	s.Require().Len(events, 3)
	s.Equal(domain.EventInsert, events[0].Type)
	s.Equal(domain.EventUpdate, events[1].Type)
	s.Equal(30.0, events[1].Doc.Get("age"))
	s.Equal(domain.EventRemove, events[2].Type)
	s.Equal("User", events[2].Model)
}

func (s *ModelTestSuite) TestUpdateByID() {
	m := s.users()

	doc, err := m.UpdateByID(ctx, "1", data.M{"$inc": data.M{"age": 5}})
	s.Require().NoError(err)
	s.Equal(25.0, doc.Get("age"))
	s.Equal(25.0, m.FindByID("1").Get("age"))

	_, err = m.UpdateByID(ctx, "1", data.M{"_id": "9"})
	s.ErrorAs(err, &domain.ErrValidation{})
	s.True(m.Has("1"))
	s.False(m.Has("9"))

	_, err = m.UpdateByID(ctx, "9", data.M{"age": 1})
	s.ErrorAs(err, &domain.ErrIDNotExist{})

	_, err = m.UpdateByID(ctx, "1", data.M{"$unset": data.M{"name": true}})
	s.ErrorAs(err, &domain.ErrValidation{})
	s.Equal("John", m.FindByID("1").Get("name"))
}

func (s *ModelTestSuite) TestUpdateIncrementTwice() {
	m := s.model("Post", nil)
	_, err := m.InsertOne(ctx, data.M{"_id": "1", "views": 3})
	s.Require().NoError(err)

	inc := data.M{"$inc": data.M{"views": 1}}
	for range 2 {
		docs, err := m.Update(ctx, data.M{"_id": "1"}, inc)
		s.Require().NoError(err)
		s.Len(docs, 1)
	}
	s.Equal(5.0, m.FindByID("1").Get("views"))
}

func (s *ModelTestSuite) TestUpdateUnknownOperator() {
	m := s.model("Post", nil)
	_, err := m.InsertOne(ctx, data.M{"_id": "1", "views": 5.0})
	s.Require().NoError(err)

	_, err = m.Update(ctx, data.M{"_id": "1"}, data.M{"$missingOp": data.M{"views": 1}})
	s.Equal(domain.KindQueryCompile, domain.KindOf(err))

	_, err = m.UpdateByID(ctx, "1", data.M{"$missingOp": data.M{"views": 1}})
	s.Equal(domain.KindQueryCompile, domain.KindOf(err))

	s.Equal(data.M{"_id": "1", "views": 5.0}, m.FindByID("1", domain.WithFindLean(true)))
}

func (s *ModelTestSuite) TestReplaceByID() {
	m := s.users()

	doc, err := m.ReplaceByID(ctx, "1", data.M{"_id": "ignored", "name": "Johnny"})
	s.Require().NoError(err)
	s.Equal("1", doc.ID())
	s.False(doc.Has("age"))
	s.Equal("Johnny", m.FindByID("1").Get("name"))
	s.False(m.Has("ignored"))

	_, err = m.ReplaceByID(ctx, "9", data.M{"name": "x"})
	s.ErrorAs(err, &domain.ErrIDNotExist{})
}

func (s *ModelTestSuite) TestSave() {
	m := s.users()

	doc, err := m.Save(ctx, data.M{"name": "New"})
	s.Require().NoError(err)
	s.NotEmpty(doc.ID())
	s.Equal(4, m.Count())

	_, err = m.Save(ctx, data.M{"_id": "2", "name": "Janet"})
	s.Require().NoError(err)
	s.Equal("Janet", m.FindByID("2").Get("name"))
	s.False(m.FindByID("2").Has("age"))

	_, err = m.Save(ctx, data.M{"_id": "7", "name": "Seven"})
	s.Require().NoError(err)
	s.Equal(5, m.Count())

	live := m.FindByID("3").(*document.Document)
	live.Set("age", 99)
	_, err = live.Save(ctx)
	s.Require().NoError(err)
	s.Equal(99.0, m.FindByID("3").Get("age"))
}

func (s *ModelTestSuite) TestRemoveKeepsSlot() {
	m := s.users()

	doc, err := m.RemoveByID(ctx, "2")
	s.Require().NoError(err)
	s.Equal("Jane", doc.Get("name"))
	s.Equal(2, m.Count())
	s.Nil(m.FindByID("2"))
	s.Equal([]any{"1", "3"}, ids(m.ToArray()))

	_, err = m.RemoveByID(ctx, "2")
	s.ErrorAs(err, &domain.ErrIDNotExist{})

	_, err = m.InsertOne(ctx, data.M{"_id": "2", "name": "Jane"})
	s.Require().NoError(err)
	s.Equal([]any{"1", "2", "3"}, ids(m.ToArray()))
	s.Equal(3, m.Size())
}

func (s *ModelTestSuite) TestBatchWrites() {
	sc := s.userSchema()
	s.Require().NoError(sc.Pre(domain.HookSave, func(_ context.Context, doc domain.Document) error {
		if doc.ID() == "3" {
			return errors.New("locked")
		}
		return nil
	}))
	m := s.model("User", sc)
	_, err := m.Insert(ctx,
		data.M{"_id": "1", "name": "John", "age": 20},
		data.M{"_id": "2", "name": "Jane", "age": 25},
	)
	s.Require().NoError(err)
	m.store.put("3", data.M{"_id": "3", "name": "Mary", "age": 20.0})
	m.store.put("4", data.M{"_id": "4", "name": "Bob", "age": 20.0})

	res, err := m.Update(ctx, data.M{"age": 20}, data.M{"$inc": data.M{"age": 1}})
	s.Error(err)
	s.Equal([]any{"1"}, ids(res))
	s.Equal(21.0, m.FindByID("1").Get("age"))
	s.Equal(20.0, m.FindByID("4").Get("age"))

	res, err = m.Replace(ctx, data.M{"_id": "2"}, data.M{"name": "Janet"})
	s.NoError(err)
	s.Equal([]any{"2"}, ids(res))

	res, err = m.Remove(ctx, data.M{"age": 20})
	s.NoError(err)
	s.Equal([]any{"3", "4"}, ids(res))
	s.Equal(2, m.Count())

	_, err = m.Update(ctx, data.M{"$bogus": 1}, data.M{})
	s.ErrorAs(err, &domain.ErrQueryCompile{})
}

func (s *ModelTestSuite) TestFind() {
	m := s.users()

	res, err := m.Find(data.M{"age": 20})
	s.Require().NoError(err)
	s.Equal([]any{"1", "3"}, ids(res.ToArray()))

	res, err = m.Find(nil, domain.WithFindSkip(1), domain.WithFindLimit(1))
	s.Require().NoError(err)
	s.Equal([]any{"2"}, ids(res.ToArray()))

	res, err = m.Find(data.M{"age": data.M{"$gt": 20}}, domain.WithFindLean(true))
	s.Require().NoError(err)
	s.Equal([]data.M{{"_id": "2", "name": "Jane", "age": 25.0}}, res.ToObjects())

	doc, err := m.FindOne(data.M{"name": "Mary"})
	s.Require().NoError(err)
	s.Equal("3", doc.ID())

	doc, err = m.FindOne(data.M{"name": "Nobody"})
	s.NoError(err)
	s.Nil(doc)

	_, err = m.Find(data.M{"age": data.M{"$bogus": 1}})
	s.Error(err)
}

func (s *ModelTestSuite) TestReads() {
	m := s.users()

	s.Equal("1", m.First().ID())
	s.Equal("3", m.Last().ID())
	s.Equal("2", m.Eq(-2).ID())
	s.Nil(m.Eq(3))
	s.Equal([]any{"2", "3"}, ids(m.Slice(1, 3).ToArray()))
	s.Equal([]any{"1"}, ids(m.Limit(1).ToArray()))
	s.Equal([]any{"2", "3"}, ids(m.Skip(1).ToArray()))
	s.Equal([]any{"3", "2", "1"}, ids(m.Reverse().ToArray()))
	s.ElementsMatch([]any{"1", "2", "3"}, ids(m.Shuffle().ToArray()))

	sorted, err := m.Sort("-age name")
	s.Require().NoError(err)
	s.Equal([]any{"2", "1", "3"}, ids(sorted.ToArray()))

	names := m.Map(func(doc domain.Document, _ int) any { return doc.Get("name") })
	s.Equal([]any{"John", "Jane", "Mary"}, names)

	total := m.Reduce(func(acc any, doc domain.Document, _ int) any {
		return acc.(float64) + doc.Get("age").(float64)
	}, 0.0)
	s.Equal(65.0, total)
	last := m.ReduceRight(func(acc any, doc domain.Document, _ int) any {
		return acc.(string) + doc.ID().(string)
	}, "")
	s.Equal("321", last)

	var seen []int
	m.Each(func(_ domain.Document, i int) { seen = append(seen, i) })
	s.Equal([]int{0, 1, 2}, seen)

	young := m.Filter(func(doc domain.Document, _ int) bool { return doc.Get("age") == 20.0 })
	s.Equal(2, young.Count())
	s.True(m.Every(func(doc domain.Document, _ int) bool { return doc.Has("name") }))
	s.False(m.Some(func(doc domain.Document, _ int) bool { return doc.Get("age") == 99.0 }))

	lean := m.ToArray(domain.WithFindLean(true))
	s.IsType(data.M{}, lean[0])
}

func (s *ModelTestSuite) posts() (*Model, *Model) {
	m := s.model("Tag", nil)
	_, err := m.Insert(ctx,
		data.M{"_id": "t1", "name": "go"},
		data.M{"_id": "t2", "name": "zig"},
		data.M{"_id": "t3", "name": "c"},
	)
	s.Require().NoError(err)

	sc, err := schema.New(data.D{
		{Key: "title", Value: schematype.NewString()},
		{Key: "author", Value: schematype.NewReference("User")},
		{Key: "tags", Value: []any{schematype.NewReference("Tag")}},
	})
	s.Require().NoError(err)
	post := s.model("Post", sc)
	_, err = post.InsertOne(ctx, data.M{"_id": "p1", "title": "Hello", "author": "1", "tags": []any{"t2", "missing", "t1", "t3"}})
	s.Require().NoError(err)
	_, err = post.InsertOne(ctx, data.M{"_id": "p2", "title": "Draft"})
	s.Require().NoError(err)
	return post, m
}

func (s *ModelTestSuite) TestPopulate() {
	s.users()
	post, tags := s.posts()

	doc, err := post.PopulateDocument(post.FindByID("p1"), "author tags")
	s.Require().NoError(err)

	author, ok := doc.Get("author").(domain.Document)
	s.Require().True(ok)
	s.Equal("John", author.Get("name"))

	list, ok := doc.Get("tags").(*query.Query)
	s.Require().True(ok)
	s.Equal([]any{"t2", "t1", "t3"}, ids(list.ToArray()))

	_, err = tags.RemoveByID(ctx, "t1")
	s.Require().NoError(err)
	list = doc.Get("tags").(*query.Query)
	s.Equal(3, list.Count())

	obj := doc.(*document.Document).ToObject()
	s.Equal("John", obj["author"].(data.M)["name"])
	s.Len(obj["tags"], 3)

	stored, _ := post.store.get("p1")
	s.Equal("1", stored["author"])

	draft, err := post.PopulateDocument(post.FindByID("p2"), "author tags")
	s.Require().NoError(err)
	s.Nil(draft.Get("author"))
	empty, ok := draft.Get("tags").(*query.Query)
	s.Require().True(ok)
	s.Zero(empty.Count())
}

func (s *ModelTestSuite) TestPopulateOptions() {
	s.users()
	post, _ := s.posts()

	doc, err := post.PopulateDocument(post.FindByID("p1"), domain.PopulateOptions{Path: "tags", Sort: "name"})
	s.Require().NoError(err)
	s.Equal([]any{"t3", "t1", "t2"}, ids(doc.Get("tags").(*query.Query).ToArray()))

	doc, err = post.PopulateDocument(post.FindByID("p1"), domain.PopulateOptions{Path: "tags", Skip: 1, Limit: 1})
	s.Require().NoError(err)
	s.Equal([]any{"t1"}, ids(doc.Get("tags").(*query.Query).ToArray()))

	doc, err = post.PopulateDocument(post.FindByID("p1"), domain.PopulateOptions{Path: "tags", Match: data.M{"name": data.M{"$ne": "go"}}, Sort: "-name"})
	s.Require().NoError(err)
	s.Equal([]any{"t2", "t3"}, ids(doc.Get("tags").(*query.Query).ToArray()))

	res, err := post.Populate("author")
	s.Require().NoError(err)
	s.Equal(2, res.Count())
	s.NotNil(res.First().Get("author"))
	s.False(res.Last().Has("author"))
}

func (s *ModelTestSuite) TestPopulateErrors() {
	post, _ := s.posts()

	_, err := post.PopulateDocument(post.FindByID("p1"), "author")
	s.ErrorAs(err, &domain.ErrPopulation{})
	s.Equal(domain.KindPopulation, domain.KindOf(err))

	_, err = post.PopulateDocument(post.FindByID("p1"), "title")
	s.ErrorAs(err, &domain.ErrPopulation{})

	lone, err := New("Lone", nil)
	s.Require().NoError(err)
	_, err = lone.PopulateDocument(data.M{"_id": "x"}, "a")
	s.ErrorIs(err, domain.ErrNoRegistry)
}

func (s *ModelTestSuite) TestExportImport() {
	sc, err := schema.New(data.D{
		{Key: "name", Value: schematype.NewString()},
		{Key: "date", Value: schematype.NewDate()},
	})
	s.Require().NoError(err)
	m := s.model("Event", sc)
	date := time.Date(2014, 2, 13, 9, 30, 0, 0, time.UTC)
	_, err = m.Insert(ctx, data.M{"_id": "b", "name": "B", "date": date}, data.M{"_id": "a", "name": "A"})
	s.Require().NoError(err)

	exported, err := m.Export()
	s.Require().NoError(err)
	s.Require().Len(exported, 2)
	s.Equal("b", exported[0]["_id"])
	s.IsType("", exported[0]["date"])

	other, err := New("Event", sc)
	s.Require().NoError(err)
	s.Require().NoError(other.Import(exported))
	s.Equal([]any{"b", "a"}, ids(other.ToArray()))
	s.True(date.Equal(other.FindByID("b").Get("date").(time.Time)))

	s.ErrorIs(other.Import([]data.M{{"name": "no id"}}), domain.ErrIDUndefined)
}

func (s *ModelTestSuite) TestStatics() {
	sc := s.userSchema()
	s.Require().NoError(sc.Static("byName", func(_ context.Context, c domain.Collection, args ...any) (any, error) {
		return c.(*Model).FindOne(data.M{"name": args[0]})
	}))
	m := s.model("User", sc)
	_, err := m.InsertOne(ctx, data.M{"_id": "1", "name": "John"})
	s.Require().NoError(err)

	res, err := m.Call(ctx, "byName", "John")
	s.Require().NoError(err)
	s.Equal("1", res.(domain.Document).ID())

	_, err = m.Call(ctx, "missing")
	s.ErrorAs(err, &domain.ErrUnknownMethod{})
}

func (s *ModelTestSuite) TestDestroy() {
	m := s.users()
	_, ok := s.reg.Lookup("User")
	s.True(ok)
	m.Destroy()
	_, ok = s.reg.Lookup("User")
	s.False(ok)
}

func (s *ModelTestSuite) TestLockContext() {
	m := s.users()
	m.executor.Lock()
	defer m.executor.Unlock()

	c, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err := m.InsertOne(c, data.M{"name": "Late"})
	s.ErrorIs(err, context.DeadlineExceeded)
	s.Equal(3, m.Count())

	s.NotNil(m.FindByID("1"))
}

func (s *ModelTestSuite) TestNewDocument() {
	m := s.model("User", s.userSchema())
	doc, err := m.NewDocument(data.M{"name": "John"})
	s.Require().NoError(err)
	s.NotEmpty(doc.ID())
	s.Equal("@John", doc.Get("label"))
	s.Equal(0, m.Count())
}

func TestModelTestSuite(t *testing.T) {
	suite.Run(t, new(ModelTestSuite))
}
