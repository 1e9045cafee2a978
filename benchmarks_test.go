package warehouse_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/vinicius-lino-figueiredo/warehouse"
)

var sizes = [...]int{1, 10, 100, 1_000, 10_000}

func seeded(b *testing.B, size int) *warehouse.Model {
	sc, err := warehouse.NewSchema(warehouse.D{
		{Key: "part", Value: warehouse.Number()},
		{Key: "name", Value: warehouse.String()},
	})
	if err != nil {
		b.Fatal(err)
	}
	m, err := warehouse.New().Model("Part", sc)
	if err != nil {
		b.Fatal(err)
	}
	items := make([]any, size)
	for n := range size {
		items[n] = warehouse.M{"_id": fmt.Sprint(n), "part": n, "name": fmt.Sprintf("part %d", n)}
	}
	if _, err := m.Insert(context.Background(), items...); err != nil {
		b.Fatal(err)
	}
	return m
}

func BenchmarkInsert(b *testing.B) {
	ctx := context.Background()
	m, _ := warehouse.New().Model("Part", nil)
	rec := warehouse.M{"jo": "jo"}

	for b.Loop() {
		if _, err := m.InsertOne(ctx, rec); err != nil {
			b.FailNow()
		}
	}
}

func BenchmarkInsertBatch(b *testing.B) {
	ctx := context.Background()

	for _, size := range sizes {
		b.Run(fmt.Sprintf("db=%d", size), func(b *testing.B) {
			items := make([]any, size)
			for n := range size {
				items[n] = warehouse.M{"part": n + 1}
			}

			m, _ := warehouse.New().Model("Part", nil)
			for b.Loop() {
				if _, err := m.Insert(ctx, items...); err != nil {
					b.FailNow()
				}
			}

			perItem := float64(b.Elapsed().Nanoseconds()) / float64(b.N*size)
			b.ReportMetric(perItem, "ns/item")
		})
	}
}

func BenchmarkFind(b *testing.B) {
	for _, size := range sizes {
		b.Run(fmt.Sprintf("db=%d", size), func(b *testing.B) {
			m := seeded(b, size)
			q := warehouse.M{"part": warehouse.M{"$gte": size / 2}}
			for b.Loop() {
				if _, err := m.Find(q); err != nil {
					b.FailNow()
				}
			}
		})
	}
}

func BenchmarkFindLean(b *testing.B) {
	for _, size := range sizes {
		b.Run(fmt.Sprintf("db=%d", size), func(b *testing.B) {
			m := seeded(b, size)
			q := warehouse.M{"part": warehouse.M{"$gte": size / 2}}
			for b.Loop() {
				if _, err := m.Find(q, warehouse.WithLean(true)); err != nil {
					b.FailNow()
				}
			}
		})
	}
}

func BenchmarkFindByID(b *testing.B) {
	for _, size := range sizes {
		b.Run(fmt.Sprintf("db=%d", size), func(b *testing.B) {
			m := seeded(b, size)
			for b.Loop() {
				if m.FindByID(fmt.Sprint(rand.IntN(size))) == nil {
					b.FailNow()
				}
			}
		})
	}
}

func BenchmarkSort(b *testing.B) {
	for _, size := range sizes {
		b.Run(fmt.Sprintf("db=%d", size), func(b *testing.B) {
			m := seeded(b, size)
			for b.Loop() {
				if _, err := m.Sort("-part name"); err != nil {
					b.FailNow()
				}
			}
		})
	}
}

func BenchmarkUpdate(b *testing.B) {
	ctx := context.Background()
	for _, size := range sizes {
		b.Run(fmt.Sprintf("db=%d", size), func(b *testing.B) {
			m := seeded(b, size)
			update := warehouse.M{"$inc": warehouse.M{"part": 1}}
			for b.Loop() {
				if _, err := m.UpdateByID(ctx, fmt.Sprint(rand.IntN(size)), update); err != nil {
					b.FailNow()
				}
			}
		})
	}
}

func BenchmarkRemove(b *testing.B) {
	ctx := context.Background()
	for _, size := range sizes {
		b.Run(fmt.Sprintf("db=%d", size), func(b *testing.B) {
			m := seeded(b, size)
			for b.Loop() {
				id := fmt.Sprint(rand.IntN(size))
				if _, err := m.RemoveByID(ctx, id); err != nil {
					b.FailNow()
				}
				if _, err := m.InsertOne(ctx, warehouse.M{"_id": id, "part": 0}); err != nil {
					b.FailNow()
				}
			}
		})
	}
}

func BenchmarkSave(b *testing.B) {
	ctx := context.Background()
	for _, size := range sizes {
		b.Run(fmt.Sprintf("db=%d", size), func(b *testing.B) {
			db := warehouse.New(warehouse.WithPath(filepath.Join(b.TempDir(), "db.json")))
			m, _ := db.Model("Part", nil)
			items := make([]any, size)
			for n := range size {
				items[n] = warehouse.M{"part": n}
			}
			if _, err := m.Insert(ctx, items...); err != nil {
				b.FailNow()
			}
			for b.Loop() {
				if err := db.Save(ctx); err != nil {
					b.FailNow()
				}
			}
		})
	}
}
