package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/gemstore/internal/source"
)

type namedSource struct{ id string }

func (s namedSource) GetSourceID() string    { return s.id }
func (s namedSource) GetDisplayName() string { return s.id }
func (s namedSource) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.GemstoneItem, string, error) {
	return nil, "", nil
}
func (s namedSource) ReadMedia(ctx context.Context, ref source.MediaRef) ([]byte, error) {
	return nil, nil
}

func TestSelectSources(t *testing.T) {
	sources := map[string]source.Source{
		"staging:b":     namedSource{"staging:b"},
		"staging:a":     namedSource{"staging:a"},
		"feed:supplier": namedSource{"feed:supplier"},
	}

	tests := []struct {
		name    string
		kind    string
		only    string
		want    []string
		wantErr bool
	}{
		{name: "all staging sorted", kind: "staging", want: []string{"staging:a", "staging:b"}},
		{name: "one staging", kind: "staging", only: "b", want: []string{"staging:b"}},
		{name: "feed", kind: "FEED", want: []string{"feed:supplier"}},
		{name: "unknown kind", kind: "ftp", wantErr: true},
		{name: "missing name", kind: "staging", only: "zzz", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectSources(sources, tt.kind, tt.only)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, s := range got {
				ids = append(ids, s.GetSourceID())
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd(nil)
	names := map[string]bool{}
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"migrate", "import", "reindex", "sources", "token"} {
		assert.True(t, names[want], want)
	}
}
