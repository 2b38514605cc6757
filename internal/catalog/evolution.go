package catalog

import "context"

// ChainNode is one node of an evolution chain as returned by the catalog.
type ChainNode struct {
	Species   NamedRef
	EvolvesTo []*ChainNode
}

// Next returns the first child, which is the branch the app follows.
func (n *ChainNode) Next() *ChainNode {
	if n == nil || len(n.EvolvesTo) == 0 {
		return nil
	}
	return n.EvolvesTo[0]
}

// StageOf returns the 1-based position of slug along the first-child path of
// the chain, or 1 when slug is not on that path.
func StageOf(root *ChainNode, slug string) int {
	stage := 1
	for n := root; n != nil; n = n.Next() {
		if n.Species.Name == slug {
			return stage
		}
		stage++
	}
	return 1
}

// StageFetcher loads the display data for one species.
type StageFetcher func(ctx context.Context, slug string) (EvolutionStage, error)

// EvolutionWalker iterates the first-child path of a chain, fetching each
// stage as it goes:
//
//	w := NewEvolutionWalker(root, fetch)
//	for w.Next(ctx) {
//		use(w.Stage())
//	}
//	if err := w.Err(); err != nil { ... }
type EvolutionWalker struct {
	fetch StageFetcher
	node  *ChainNode
	cur   EvolutionStage
	err   error
}

func NewEvolutionWalker(root *ChainNode, fetch StageFetcher) *EvolutionWalker {
	return &EvolutionWalker{fetch: fetch, node: root}
}

// Next fetches the next stage. It returns false at the end of the chain or
// after the first error.
func (w *EvolutionWalker) Next(ctx context.Context) bool {
	if w.err != nil || w.node == nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		w.err = err
		return false
	}
	stage, err := w.fetch(ctx, w.node.Species.Name)
	if err != nil {
		w.err = err
		return false
	}
	w.cur = stage
	w.node = w.node.Next()
	return true
}

func (w *EvolutionWalker) Stage() EvolutionStage { return w.cur }

func (w *EvolutionWalker) Err() error { return w.err }

// WalkEvolutions drains a walker into a slice. On error the stages fetched so
// far are returned with it.
func WalkEvolutions(ctx context.Context, root *ChainNode, fetch StageFetcher) ([]EvolutionStage, error) {
	var out []EvolutionStage
	w := NewEvolutionWalker(root, fetch)
	for w.Next(ctx) {
		out = append(out, w.Stage())
	}
	return out, w.Err()
}
