package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/metrics"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/model"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/pptx"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/pptx/pptxtest"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/service"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/storage"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/storage/mocks"
)

func newService(store storage.Storage) *service.GeneratorService {
	return service.NewGeneratorService(store, metrics.New(), zap.NewNop(), "", 0)
}

func slideTexts(t *testing.T, doc []byte) []string {
	t.Helper()
	prs, err := pptx.Open(doc, nil)
	require.NoError(t, err)

	var out []string
	for _, s := range prs.Slides() {
		out = append(out, strings.Join(s.Text(), "|"))
	}
	return out
}

func TestGenerate(t *testing.T) {
	template := pptxtest.Template{
		Shapes:  [][]string{{"Ticket "}, {"{{NUM}}"}, {"{{NUM}}"}},
		Picture: true,
	}.Build()

	tests := []struct {
		name       string
		numbers    string
		perSlide   int
		wantSlides []string
	}{
		{
			name:       "two per slide with short tail",
			numbers:    "A-001\nA-002\nA-003\n",
			perSlide:   2,
			wantSlides: []string{"Ticket |A-001|A-002", "Ticket |A-003|"},
		},
		{
			name:       "default one per slide",
			numbers:    "  7 \n\n 8 ",
			perSlide:   0,
			wantSlides: []string{"Ticket |7|", "Ticket |8|"},
		},
		{
			name:       "single chunk keeps one slide",
			numbers:    "X",
			perSlide:   5,
			wantSlides: []string{"Ticket |X|"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(storage.NewMemoryStore())

			res, err := svc.Generate(context.Background(), "user", model.GenerateRequest{
				Filename:       "tickets.pptx",
				RunningNumbers: tt.numbers,
				Template:       template,
				ItemsPerSlide:  tt.perSlide,
			})
			require.NoError(t, err)

			assert.Equal(t, "Filled_tickets.pptx", res.Filename)
			assert.Equal(t, len(tt.wantSlides), res.Slides)
			assert.Equal(t, tt.wantSlides, slideTexts(t, res.Document))
		})
	}
}

func TestGenerate_CustomPlaceholderAndTrailingSlides(t *testing.T) {
	template := pptxtest.Template{Shapes: [][]string{{"<code>"}}, ExtraSlides: 1}.Build()
	svc := newService(storage.NewMemoryStore())

	res, err := svc.Generate(context.Background(), "user", model.GenerateRequest{
		Filename:       "deck.pptx",
		RunningNumbers: "1\n2\n3",
		Placeholder:    "<code>",
		Template:       template,
		ItemsPerSlide:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Slides)
	assert.Equal(t, []string{"1", "2", "3", "extra 1"}, slideTexts(t, res.Document))
}

func TestGenerate_Errors(t *testing.T) {
	valid := pptxtest.Template{Shapes: [][]string{{"{{NUM}}"}}}.Build()

	tests := []struct {
		name string
		req  model.GenerateRequest
		want error
	}{
		{name: "no codes", req: model.GenerateRequest{Template: valid, RunningNumbers: " \n\n"}, want: service.ErrNoCodes},
		{name: "negative items", req: model.GenerateRequest{Template: valid, RunningNumbers: "1", ItemsPerSlide: -2}, want: service.ErrInvalidItemsPerSlide},
		{name: "broken template", req: model.GenerateRequest{Template: []byte("PK not really"), RunningNumbers: "1"}, want: pptx.ErrInvalidPackage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockStorage(ctrl)
			store.EXPECT().Save(gomock.Any(), gomock.Any()).Times(0)

			_, err := newService(store).Generate(context.Background(), "user", tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, service.IsClientError(err))
		})
	}
}

func TestGenerate_RecordsGeneration(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStorage(ctrl)

	store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, g *model.Generation) error {
		assert.NotEmpty(t, g.ID)
		assert.Equal(t, "alice", g.UserID)
		assert.Equal(t, "in.pptx", g.Template)
		assert.Equal(t, "Filled_in.pptx", g.Output)
		assert.Equal(t, "{{NUM}}", g.Placeholder)
		assert.Equal(t, 4, g.Codes)
		assert.Equal(t, 2, g.Slides)
		assert.Equal(t, 3, g.ItemsPerSlide)
		assert.False(t, g.Created.IsZero())
		return nil
	})

	_, err := newService(store).Generate(context.Background(), "alice", model.GenerateRequest{
		Filename:       "in.pptx",
		RunningNumbers: "1\n2\n3\n4",
		Template:       pptxtest.Template{Shapes: [][]string{{"{{NUM}}"}}}.Build(),
		ItemsPerSlide:  3,
	})
	require.NoError(t, err)
}

func TestGenerate_JournalFailureDoesNotFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStorage(ctrl)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	res, err := newService(store).Generate(context.Background(), "alice", model.GenerateRequest{
		Filename:       "in.pptx",
		RunningNumbers: "1",
		Template:       pptxtest.Template{Shapes: [][]string{{"{{NUM}}"}}}.Build(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Document)
}

func TestStatsAndPing(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStorage(ctrl)
	boom := errors.New("db down")

	store.EXPECT().Stats(gomock.Any()).Return(model.Stats{Generations: 2}, nil)
	store.EXPECT().Stats(gomock.Any()).Return(model.Stats{}, boom)
	store.EXPECT().Ping(gomock.Any()).Return(boom)
	store.EXPECT().ListByUser(gomock.Any(), "bob").Return([]*model.Generation{{ID: "g"}}, nil)

	svc := newService(store)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Generations)

	_, err = svc.Stats(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.Ping(context.Background()), boom)

	list, err := svc.History(context.Background(), "bob")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
