package engine

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkTotalRevenue(b *testing.B) {
	eng := testEngine(generated(10000))
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = eng.TotalRevenue(ctx)
	}
}

func BenchmarkTotalRevenueParallel(b *testing.B) {
	cs := generated(10000)
	ctx := context.Background()
	for _, workers := range []int{2, 4, 8} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			eng := NewEngine(stubReader{customers: cs}, workers)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = eng.TotalRevenueParallel(ctx)
			}
		})
	}
}

func BenchmarkBigSpenders(b *testing.B) {
	cs := generated(10000)
	ctx := context.Background()
	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			eng := NewEngine(stubReader{customers: cs}, workers)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = eng.BigSpenders(ctx, 150.0)
			}
		})
	}
}
