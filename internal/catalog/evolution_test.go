package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func chainOf(slugs ...string) *ChainNode {
	var root, cur *ChainNode
	for _, s := range slugs {
		n := &ChainNode{Species: NamedRef{Name: s}}
		if root == nil {
			root = n
		} else {
			cur.EvolvesTo = []*ChainNode{n}
		}
		cur = n
	}
	return root
}

func TestStageOf(t *testing.T) {
	root := chainOf("bulbasaur", "ivysaur", "venusaur")
	// a side branch is never followed
	root.EvolvesTo = append(root.EvolvesTo, &ChainNode{Species: NamedRef{Name: "branch"}})

	require.Equal(t, 1, StageOf(root, "bulbasaur"))
	require.Equal(t, 3, StageOf(root, "venusaur"))
	require.Equal(t, 1, StageOf(root, "branch"))
	require.Equal(t, 1, StageOf(nil, "x"))
}

func TestEvolutionWalkerFetchesEachStageInOrder(t *testing.T) {
	var calls []string
	fetch := func(_ context.Context, slug string) (EvolutionStage, error) {
		calls = append(calls, slug)
		return EvolutionStage{Slug: slug, Name: "fr-" + slug}, nil
	}

	stages, err := WalkEvolutions(context.Background(), chainOf("a", "b", "c"), fetch)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, calls)
	require.Len(t, stages, 3)
	require.Equal(t, "fr-c", stages[2].Name)
}

func TestEvolutionWalkerStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	fetch := func(_ context.Context, slug string) (EvolutionStage, error) {
		if slug == "b" {
			return EvolutionStage{}, boom
		}
		return EvolutionStage{Slug: slug}, nil
	}

	w := NewEvolutionWalker(chainOf("a", "b", "c"), fetch)
	require.True(t, w.Next(context.Background()))
	require.Equal(t, "a", w.Stage().Slug)
	require.False(t, w.Next(context.Background()))
	require.False(t, w.Next(context.Background()))
	require.ErrorIs(t, w.Err(), boom)

	stages, err := WalkEvolutions(context.Background(), chainOf("a", "b", "c"), fetch)
	require.ErrorIs(t, err, boom)
	require.Len(t, stages, 1)
}

func TestEvolutionWalkerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := NewEvolutionWalker(chainOf("a"), func(context.Context, string) (EvolutionStage, error) {
		t.Fatal("fetch called after cancel")
		return EvolutionStage{}, nil
	})
	require.False(t, w.Next(ctx))
	require.ErrorIs(t, w.Err(), context.Canceled)
}
