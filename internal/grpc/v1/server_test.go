package v1_test

import (
	"context"
	"encoding/base64"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	v1 "github.com/sithlordsylar/PPTX-Gen-Temp/internal/grpc/v1"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/pptx"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/pptx/pptxtest"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/service"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/storage"
)

func dial(t *testing.T, store storage.Storage) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	svc := service.NewGeneratorService(store, nil, zap.NewNop(), "", 1)
	srv := v1.NewServer(svc, zap.NewNop(), 8<<20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func request(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func TestGenerate(t *testing.T) {
	store := storage.NewMemoryStore()
	conn := dial(t, store)

	template := pptxtest.Template{Shapes: [][]string{{"No. "}, {"{{NUM}}"}}}.Build()
	out, err := v1.Generate(context.Background(), conn, request(t, map[string]any{
		"template":        base64.StdEncoding.EncodeToString(template),
		"filename":        "seats.pptx",
		"running_numbers": "A1\nA2\nA3",
		"user_id":         "grpc-user",
	}))
	require.NoError(t, err)

	fields := out.GetFields()
	assert.Equal(t, "Filled_seats.pptx", fields["filename"].GetStringValue())
	assert.EqualValues(t, 3, fields["slides"].GetNumberValue())
	assert.EqualValues(t, 3, fields["codes"].GetNumberValue())

	doc, err := base64.StdEncoding.DecodeString(fields["document"].GetStringValue())
	require.NoError(t, err)
	prs, err := pptx.Open(doc, nil)
	require.NoError(t, err)
	require.Len(t, prs.Slides(), 3)
	assert.Equal(t, []string{"No. ", "A1"}, prs.Slides()[0].Text())
	assert.Equal(t, []string{"No. ", "A3"}, prs.Slides()[2].Text())

	items, err := store.ListByUser(context.Background(), "grpc-user")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestGenerate_Errors(t *testing.T) {
	conn := dial(t, storage.NewMemoryStore())
	template := base64.StdEncoding.EncodeToString(pptxtest.Template{Shapes: [][]string{{"{{NUM}}"}}}.Build())

	tests := []struct {
		name   string
		fields map[string]any
		want   codes.Code
	}{
		{name: "missing template", fields: map[string]any{"running_numbers": "1"}, want: codes.InvalidArgument},
		{name: "bad base64", fields: map[string]any{"template": "***", "running_numbers": "1"}, want: codes.InvalidArgument},
		{name: "template not a string", fields: map[string]any{"template": 5, "running_numbers": "1"}, want: codes.InvalidArgument},
		{name: "no codes", fields: map[string]any{"template": template, "running_numbers": "\n"}, want: codes.InvalidArgument},
		{name: "fractional items", fields: map[string]any{"template": template, "running_numbers": "1", "items_per_slide": 1.5}, want: codes.InvalidArgument},
		{name: "negative items", fields: map[string]any{"template": template, "running_numbers": "1", "items_per_slide": -2}, want: codes.InvalidArgument},
		{
			name:   "not a presentation",
			fields: map[string]any{"template": base64.StdEncoding.EncodeToString([]byte("plain text")), "running_numbers": "1"},
			want:   codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v1.Generate(context.Background(), conn, request(t, tt.fields))
			require.Error(t, err)
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}
