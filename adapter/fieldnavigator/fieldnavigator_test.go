package fieldnavigator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

type pathDoc struct {
	data.M
	asked []string
}

func (p *pathDoc) GetPath(path string) (any, bool) {
	p.asked = append(p.asked, path)
	return strings.ToUpper(path), true
}

type FieldNavigatorTestSuite struct {
	suite.Suite
	fn *FieldNavigator
}

func (s *FieldNavigatorTestSuite) SetupTest() {
	s.fn = NewFieldNavigator(data.NewDocument).(*FieldNavigator)
}

func (s *FieldNavigatorTestSuite) TestGetAddress() {
	s.Equal([]string{"a"}, s.fn.GetAddress("a"))
	s.Equal([]string{"a", "b", "0"}, s.fn.GetAddress("a.b.0"))
}

func (s *FieldNavigatorTestSuite) TestFirstLevel() {
	doc := data.M{
		"hello": "world",
		"type": data.M{
			"planet": true,
			"blue":   true,
		},
		"nothing": nil,
	}

	value, ok := s.fn.Get(doc, "hello")
	s.True(ok)
	s.Equal("world", value)

	value, ok = s.fn.Get(doc, "type", "planet")
	s.True(ok)
	s.Equal(true, value)

	value, ok = s.fn.Get(doc, "nothing")
	s.True(ok)
	s.Nil(value)
}

func (s *FieldNavigatorTestSuite) TestNotOk() {
	doc := data.M{
		"hello": "world",
		"type":  data.M{"planet": true},
	}

	_, ok := s.fn.Get(doc, "helloo")
	s.False(ok)

	_, ok = s.fn.Get(doc, "hello", "length")
	s.False(ok)

	_, ok = s.fn.Get(doc, "type", "planet", "x")
	s.False(ok)

	_, ok = s.fn.Get(nil, "a")
	s.False(ok)
}

func (s *FieldNavigatorTestSuite) TestListIndex() {
	doc := data.M{"planets": []any{data.M{"name": "Earth"}, "Mars"}}

	value, ok := s.fn.Get(doc, "planets", "0", "name")
	s.True(ok)
	s.Equal("Earth", value)

	value, ok = s.fn.Get(doc, "planets", "1")
	s.True(ok)
	s.Equal("Mars", value)

	_, ok = s.fn.Get(doc, "planets", "2")
	s.False(ok)

	_, ok = s.fn.Get(doc, "planets", "name")
	s.False(ok)
}

func (s *FieldNavigatorTestSuite) TestPathGetter() {
	inner := &pathDoc{M: data.M{}}
	doc := data.M{"author": inner}

	value, ok := s.fn.Get(doc, "author", "name", "first")
	s.True(ok)
	s.Equal("NAME.FIRST", value)
	s.Equal([]string{"name.first"}, inner.asked)
}

func (s *FieldNavigatorTestSuite) TestSet() {
	doc := data.M{"a": nil, "list": []any{nil, data.M{}}}

	s.NoError(s.fn.Set(doc, 1, "x"))
	s.NoError(s.fn.Set(doc, 2, "a", "b", "c"))
	s.NoError(s.fn.Set(doc, 3, "list", "0", "d"))
	s.NoError(s.fn.Set(doc, 4, "list", "1"))

	s.Equal(data.M{
		"x":    1,
		"a":    data.M{"b": data.M{"c": 2}},
		"list": []any{data.M{"d": 3}, 4},
	}, doc)
}

func (s *FieldNavigatorTestSuite) TestSetInvalid() {
	doc := data.M{"a": "string", "list": []any{}}

	err := s.fn.Set(doc, 1, "a", "b")
	var e ErrCannotSet
	s.True(errors.As(err, &e))

	err = s.fn.Set(doc, 1, "list", "3")
	s.True(errors.As(err, &e))

	s.ErrorIs(s.fn.Set(doc, 1), ErrEmptyAddress{})
}

func (s *FieldNavigatorTestSuite) TestSetDocFactoryError() {
	fail := errors.New("fail")
	fn := NewFieldNavigator(func(any) (domain.Document, error) { return nil, fail })
	s.ErrorIs(fn.Set(data.M{}, 1, "a", "b"), fail)
}

func (s *FieldNavigatorTestSuite) TestUnset() {
	doc := data.M{"a": data.M{"b": 1, "c": 2}, "list": []any{1, 2}}

	s.fn.Unset(doc, "a", "b")
	s.fn.Unset(doc, "list", "0")
	s.fn.Unset(doc, "missing", "path")
	s.fn.Unset(doc)

	s.Equal(data.M{"a": data.M{"c": 2}, "list": []any{nil, 2}}, doc)
}

func TestFieldNavigatorTestSuite(t *testing.T) {
	suite.Run(t, new(FieldNavigatorTestSuite))
}
