package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/auth"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/pptx/pptxtest"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/storage"
)

func benchmarkCodes(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "CODE-%05d\n", i)
	}
	return sb.String()
}

func benchmarkGenerate(b *testing.B, codes, perSlide int) {
	handler := newHandler(storage.NewMemoryStore(), 0)
	template := pptxtest.Template{
		Shapes:  [][]string{{"Batch "}, {"{{NUM}}"}, {"{{NUM}}"}, {"{{NUM}}"}, {"{{NUM}}"}},
		Picture: true,
	}.Build()
	f := form{
		fields: map[string]string{
			"running_numbers": benchmarkCodes(codes),
			"items_per_slide": fmt.Sprint(perSlide),
		},
		filename: "bench.pptx",
		file:     template,
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		req := f.request(b)
		b.StartTimer()

		rec := httptest.NewRecorder()
		handler.Generate(rec, req)
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
		}
	}
}

func BenchmarkGenerate_10Codes(b *testing.B) {
	benchmarkGenerate(b, 10, 1)
}

func BenchmarkGenerate_200Codes(b *testing.B) {
	benchmarkGenerate(b, 200, 4)
}

func BenchmarkUserGenerations(b *testing.B) {
	handler := newHandler(storage.NewMemoryStore(), 0)
	req := httptest.NewRequest(http.MethodGet, "/api/user/generations", nil)
	req = req.WithContext(auth.WithUserID(context.Background(), "bench-user"))

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler.UserGenerations(rec, req)
	}
}

func BenchmarkIndex(b *testing.B) {
	handler := newHandler(storage.NewMemoryStore(), 0)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler.Index(rec, req)
	}
}
