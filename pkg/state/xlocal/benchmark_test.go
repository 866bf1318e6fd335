package xlocal

import (
	"fmt"
	"testing"
	"time"
)

func BenchmarkCache_Get(b *testing.B) {
	cache, err := New(Config{Capacity: 1000})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { cache.Close() })

	cache.Set("benchmark_key", []byte("value"), time.Minute)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		_, _ = cache.Get("benchmark_key")
	}
}

func BenchmarkCache_Get_Miss(b *testing.B) {
	cache, err := New(Config{Capacity: 1000})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { cache.Close() })

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		_, _ = cache.Get("nonexistent")
	}
}

func BenchmarkCache_Set(b *testing.B) {
	cache, err := New(Config{Capacity: 10000})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { cache.Close() })

	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key%d", i)
	}
	value := []byte("value")

	b.ReportAllocs()
	b.ResetTimer()
	i := 0
	for b.Loop() {
		cache.Set(keys[i%len(keys)], value, time.Minute)
		i++
	}
}

func BenchmarkCache_Set_WithEviction(b *testing.B) {
	// 容量远小于键空间，持续触发淘汰路径
	cache, err := New(Config{Capacity: 100})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { cache.Close() })

	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key%d", i)
	}
	value := []byte("value")

	b.ReportAllocs()
	b.ResetTimer()
	i := 0
	for b.Loop() {
		cache.Set(keys[i%len(keys)], value, time.Minute)
		i++
	}
}

func BenchmarkCache_Mixed_Parallel(b *testing.B) {
	cache, err := New(Config{Capacity: 1000})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { cache.Close() })

	for i := 0; i < 1000; i++ {
		cache.Set(fmt.Sprintf("key%d", i), []byte("value"), time.Minute)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := fmt.Sprintf("key%d", i%1000)
			if i%10 == 0 {
				cache.Set(key, []byte("value"), time.Minute)
			} else {
				cache.Get(key)
			}
			i++
		}
	})
}
