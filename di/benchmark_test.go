package di_test

import (
	"testing"

	"github.com/gocrud/greeter/di"
)

func BenchmarkResolve_Cached(b *testing.B) {
	c := di.NewContainer()
	registerMVC(c)
	di.MustResolve[*Controller](c)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = di.Resolve[*Controller](c)
	}
}

func BenchmarkResolve_Sealed(b *testing.B) {
	c := di.NewContainer()
	registerMVC(c)
	if err := c.Build(); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = di.Resolve[*Controller](c)
		}
	})
}

func BenchmarkResolve_ColdGraph(b *testing.B) {
	for i := 0; i < b.N; i++ {
		c := di.NewContainer()
		registerMVC(c)
		_, _ = di.Resolve[*Controller](c)
	}
}
